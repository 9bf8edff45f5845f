// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package nxgpio

import "errors"

var (
	ErrInvalidPin   = errors.New("invalid pin")
	ErrReadOnly     = errors.New("read only register")
	ErrWriteOnly    = errors.New("write only register")
	ErrConfig       = errors.New("invalid configuration")
	ErrUnknownBank  = errors.New("unknown bank")
	ErrUnknownField = errors.New("unknown register field")
)
