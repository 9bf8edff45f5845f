// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package hw provides ordered 32 bit access to memory mapped register blocks.
package hw

import "fmt"

// A Region is a mapped register block addressed by byte offset.
type Region interface {
	// Load32 returns the 32 bit word at the given byte offset.
	Load32(off uintptr) uint32
	// Store32 writes the 32 bit word at the given byte offset.
	Store32(off uintptr, v uint32)
	// Barrier orders all previous stores before any following store.
	Barrier()
	// Len is the mapped length in bytes.
	Len() uintptr
}

func CheckOffset(r Region, off uintptr) {
	if off&3 != 0 || off+4 > r.Len() {
		panic(fmt.Errorf("hw: offset %#x outside of %#x byte region",
			off, r.Len()))
	}
}
