// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package nxgpio

import (
	"fmt"
	"sync"

	"github.com/platinasystems/nxgpio/hw"
)

// Accessor performs single bit operations on the registers of one block.
// All operations on the block are serialized by its mutex so concurrent
// read/modify/write of different pins in the same word can't lose updates.
type Accessor struct {
	mu     sync.Mutex
	region hw.Region
}

// NewAccessor returns an accessor of the registers mapped by r.
func NewAccessor(r hw.Region) *Accessor { return &Accessor{region: r} }

func (a *Accessor) Region() hw.Region { return a.region }

// Op is one step of an Apply sequence.
type Op struct {
	Field Field
	Clear bool
}

func Set(f Field) Op   { return Op{Field: f} }
func Clear(f Field) Op { return Op{Field: f, Clear: true} }

func (op Op) String() string {
	if op.Clear {
		return "clear " + op.Field.String()
	}
	return "set " + op.Field.String()
}

func checkPin(pin uint) error {
	if pin >= RegWidth {
		return fmt.Errorf("%d: %w, register width is %d",
			pin, ErrInvalidPin, RegWidth)
	}
	return nil
}

func (op Op) check() error {
	switch op.Field.Kind {
	case ReadOnly:
		return fmt.Errorf("%s: %w", op, ErrReadOnly)
	case Write1Set:
		if op.Clear {
			return fmt.Errorf("%s: %w", op, ErrWriteOnly)
		}
	}
	return nil
}

// GetBit returns bit pin of a readable field.
func (a *Accessor) GetBit(f Field, pin uint) (bool, error) {
	if err := checkPin(pin); err != nil {
		return false, err
	}
	if f.Kind.IsShadow() {
		return false, fmt.Errorf("get %s: %w", f, ErrWriteOnly)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.region.Load32(f.Offset)&(1<<pin) != 0, nil
}

// Word returns the whole readable field.
func (a *Accessor) Word(f Field) (uint32, error) {
	if f.Kind.IsShadow() {
		return 0, fmt.Errorf("get %s: %w", f, ErrWriteOnly)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.region.Load32(f.Offset), nil
}

// SetBit asserts bit pin. A plain register is read, or'ed and stored; a
// write-1 shadow register is only stored with the pin mask since the
// hardware does the rest. On a write-1-to-clear register this triggers the
// clear, as ClearBit does.
func (a *Accessor) SetBit(f Field, pin uint) error {
	return a.Apply(pin, Set(f))
}

// ClearBit deasserts bit pin. A plain register is read, and'ed and stored;
// a write-1-to-clear register is only stored with the pin mask. A
// write-1-to-set register has no clear operation; use its write-1-to-clear
// counterpart instead.
func (a *Accessor) ClearBit(f Field, pin uint) error {
	return a.Apply(pin, Clear(f))
}

// Apply runs ops on bit pin in order while holding the block lock, with a
// write barrier between consecutive steps. Every op is checked before any
// register is touched.
func (a *Accessor) Apply(pin uint, ops ...Op) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	for _, op := range ops {
		if err := op.check(); err != nil {
			return err
		}
	}
	mask := uint32(1) << pin
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, op := range ops {
		if i > 0 {
			a.region.Barrier()
		}
		a.store(op, mask)
	}
	return nil
}

func (a *Accessor) store(op Op, mask uint32) {
	off := op.Field.Offset
	switch op.Field.Kind {
	case Write1Set, Write1Clear:
		a.region.Store32(off, mask)
	default:
		v := a.region.Load32(off)
		if op.Clear {
			v &^= mask
		} else {
			v |= mask
		}
		a.region.Store32(off, v)
	}
}
