// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package hw

import "sync/atomic"

// Mem is a Region backed by ordinary memory; every word is a plain register.
type Mem struct {
	words []uint32
}

func NewMem(size uintptr) *Mem {
	return &Mem{words: make([]uint32, (size+3)/4)}
}

func (m *Mem) Len() uintptr { return uintptr(len(m.words)) * 4 }

func (m *Mem) Load32(off uintptr) uint32 {
	CheckOffset(m, off)
	return atomic.LoadUint32(&m.words[off/4])
}

func (m *Mem) Store32(off uintptr, v uint32) {
	CheckOffset(m, off)
	atomic.StoreUint32(&m.words[off/4], v)
}

// Barrier is a no-op; atomic loads and stores are already ordered.
func (*Mem) Barrier() {}
