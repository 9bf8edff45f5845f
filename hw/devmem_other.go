// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build !linux

package hw

import "errors"

var ErrNoDevMem = errors.New("/dev/mem: not supported on this system")

type DevMem struct{ Mem }

func OpenDevMem(base, size uintptr) (*DevMem, error) {
	return nil, ErrNoDevMem
}

func (*DevMem) Close() error { return nil }
