// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package hw

import "testing"

func TestPageSpan(t *testing.T) {
	for _, x := range []struct {
		base, size           uintptr
		start, delta, length uintptr
	}{
		{0xc0010800, 0x120, 0xc0010000, 0x800, 0x1000},
		{0xc001a000, 0x1c, 0xc001a000, 0, 0x1000},
		{0xc0010f80, 0x100, 0xc0010000, 0xf80, 0x2000},
	} {
		start, delta, length := pageSpan(x.base, x.size, 0x1000)
		if start != x.start || delta != x.delta || length != x.length {
			t.Errorf("pageSpan(%#x, %#x) = %#x, %#x, %#x",
				x.base, x.size, start, delta, length)
		}
	}
}

func TestMem(t *testing.T) {
	m := NewMem(0x20)
	if m.Len() != 0x20 {
		t.Fatal("len", m.Len())
	}
	m.Store32(0x1c, 0xdeadbeef)
	m.Barrier()
	if v := m.Load32(0x1c); v != 0xdeadbeef {
		t.Errorf("got %#x", v)
	}
	if v := m.Load32(0x18); v != 0 {
		t.Errorf("neighbor got %#x", v)
	}
}

func TestCheckOffset(t *testing.T) {
	m := NewMem(0x10)
	for _, off := range []uintptr{0x10, 0x2, 0x100} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("offset %#x didn't panic", off)
				}
			}()
			m.Load32(off)
		}()
	}
}
