// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package nxgpio

import (
	"fmt"

	"github.com/platinasystems/nxgpio/hw"
)

// AliveOptions configure an ALIVE block.
type AliveOptions struct {
	// Width is the number of ALIVE pins of the SoC variant.
	Width uint
	// Kinds replace the default register kinds by field name.
	Kinds map[string]Kind
	// Input names the pad level field, Pad (default) or PadRead.
	Input string
}

// AliveBlock drives the ALIVE power domain GPIO pins. Direction and output
// level each have a set and a reset register; the pad level is read from
// a separate read only register.
type AliveBlock struct {
	acc    *Accessor
	layout Layout
	width  uint

	outEnbReset Field
	outEnb      Field
	outEnbRead  Field
	padReset    Field
	data        Field
	input       Field
}

func NewAlive(r hw.Region, opts AliveOptions) (*AliveBlock, error) {
	if opts.Width == 0 || opts.Width > RegWidth {
		return nil, fmt.Errorf("alive width %d: %w", opts.Width, ErrConfig)
	}
	if opts.Input == "" {
		opts.Input = Pad
	}
	if opts.Input != Pad && opts.Input != PadRead {
		return nil, fmt.Errorf("alive input %q: %w, must be %s|%s",
			opts.Input, ErrConfig, Pad, PadRead)
	}
	l, err := AliveLayout().WithKinds(opts.Kinds)
	if err != nil {
		return nil, err
	}
	if r.Len() < l.Size {
		return nil, fmt.Errorf("alive region %#x < %#x: %w",
			r.Len(), l.Size, ErrConfig)
	}
	b := &AliveBlock{
		acc:    NewAccessor(r),
		layout: l,
		width:  opts.Width,
	}
	for _, x := range []struct {
		f    *Field
		name string
	}{
		{&b.outEnbReset, OutEnbReset},
		{&b.outEnb, OutEnb},
		{&b.outEnbRead, OutEnbRead},
		{&b.padReset, PadReset},
		{&b.data, Data},
		{&b.input, opts.Input},
	} {
		*x.f = l.Fields[x.name]
	}
	return b, nil
}

func (b *AliveBlock) Width() uint         { return b.width }
func (b *AliveBlock) Layout() Layout      { return b.layout }
func (b *AliveBlock) Accessor() *Accessor { return b.acc }

// level is the register that latches the given output level.
func (b *AliveBlock) level(v bool) Field {
	if v {
		return b.data
	}
	return b.padReset
}

func (b *AliveBlock) DirectionInput(pin uint) error {
	if err := checkWidth(pin, b.width); err != nil {
		return err
	}
	return b.acc.SetBit(b.outEnbReset, pin)
}

func (b *AliveBlock) DirectionOutput(pin uint, v bool) error {
	if err := checkWidth(pin, b.width); err != nil {
		return err
	}
	return b.acc.Apply(pin, Set(b.level(v)), Set(b.outEnb))
}

func (b *AliveBlock) Value(pin uint) (bool, error) {
	if err := checkWidth(pin, b.width); err != nil {
		return false, err
	}
	return b.acc.GetBit(b.input, pin)
}

func (b *AliveBlock) SetValue(pin uint, v bool) error {
	if err := checkWidth(pin, b.width); err != nil {
		return err
	}
	return b.acc.SetBit(b.level(v), pin)
}

func (b *AliveBlock) Function(pin uint) (Function, error) {
	if err := checkWidth(pin, b.width); err != nil {
		return Input, err
	}
	out, err := b.acc.GetBit(b.outEnbRead, pin)
	if out {
		return Output, err
	}
	return Input, err
}
