// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux

package hw

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

var DevMemFile = "/dev/mem"

// DevMem is a physical address range mapped through /dev/mem.
type DevMem struct {
	buf   []byte
	delta uintptr
	size  uintptr
	last  atomic.Uintptr
	dirty atomic.Bool
}

// OpenDevMem maps size bytes of physical memory starting at base. The
// mapping is page aligned; base itself need not be.
func OpenDevMem(base, size uintptr) (*DevMem, error) {
	f, err := os.OpenFile(DevMemFile, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	// the mapping outlives the descriptor
	defer f.Close()

	start, delta, length := pageSpan(base, size,
		uintptr(unix.Getpagesize()))
	buf, err := unix.Mmap(int(f.Fd()), int64(start), int(length),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %#x+%#x: %w", base, size, err)
	}
	return &DevMem{buf: buf, delta: delta, size: size}, nil
}

func (m *DevMem) Len() uintptr { return m.size }

func (m *DevMem) word(off uintptr) *uint32 {
	CheckOffset(m, off)
	return (*uint32)(unsafe.Pointer(&m.buf[m.delta+off]))
}

func (m *DevMem) Load32(off uintptr) uint32 {
	return atomic.LoadUint32(m.word(off))
}

func (m *DevMem) Store32(off uintptr, v uint32) {
	atomic.StoreUint32(m.word(off), v)
	m.last.Store(off)
	m.dirty.Store(true)
}

// Barrier reads back the most recently written register, which forces
// posted writes on the bus to complete before the next store is issued.
func (m *DevMem) Barrier() {
	if m.dirty.Swap(false) {
		m.Load32(m.last.Load())
	}
}

func (m *DevMem) Close() error {
	if m.buf == nil {
		return nil
	}
	err := unix.Munmap(m.buf)
	m.buf = nil
	return err
}
