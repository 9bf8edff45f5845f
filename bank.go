// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package nxgpio

import (
	"fmt"

	"github.com/platinasystems/nxgpio/hw"
)

// BankBlock drives an ordinary GPIO bank where output level and direction
// are plain registers.
type BankBlock struct {
	acc   *Accessor
	width uint

	data   Field
	outEnb Field
	pad    Field
}

// NewBank returns the driver of a bank with width pins mapped by r.
func NewBank(r hw.Region, width uint) (*BankBlock, error) {
	if width == 0 || width > RegWidth {
		return nil, fmt.Errorf("bank width %d: %w", width, ErrConfig)
	}
	l := BankLayout()
	if r.Len() < l.Size {
		return nil, fmt.Errorf("bank region %#x < %#x: %w",
			r.Len(), l.Size, ErrConfig)
	}
	return &BankBlock{
		acc:    NewAccessor(r),
		width:  width,
		data:   l.Fields[Data],
		outEnb: l.Fields[OutEnb],
		pad:    l.Fields[Pad],
	}, nil
}

func (b *BankBlock) Width() uint         { return b.width }
func (b *BankBlock) Accessor() *Accessor { return b.acc }

func (b *BankBlock) DirectionInput(pin uint) error {
	if err := checkWidth(pin, b.width); err != nil {
		return err
	}
	return b.acc.ClearBit(b.outEnb, pin)
}

func (b *BankBlock) DirectionOutput(pin uint, v bool) error {
	if err := checkWidth(pin, b.width); err != nil {
		return err
	}
	level := Clear(b.data)
	if v {
		level = Set(b.data)
	}
	return b.acc.Apply(pin, level, Set(b.outEnb))
}

func (b *BankBlock) Value(pin uint) (bool, error) {
	if err := checkWidth(pin, b.width); err != nil {
		return false, err
	}
	return b.acc.GetBit(b.pad, pin)
}

func (b *BankBlock) SetValue(pin uint, v bool) error {
	if err := checkWidth(pin, b.width); err != nil {
		return err
	}
	if v {
		return b.acc.SetBit(b.data, pin)
	}
	return b.acc.ClearBit(b.data, pin)
}

func (b *BankBlock) Function(pin uint) (Function, error) {
	if err := checkWidth(pin, b.width); err != nil {
		return Input, err
	}
	out, err := b.acc.GetBit(b.outEnb, pin)
	if out {
		return Output, err
	}
	return Input, err
}
