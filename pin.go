// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package nxgpio

import "fmt"

// Function is the current direction of a pin.
type Function uint8

const (
	Input Function = iota
	Output
)

func (f Function) String() string {
	if f == Output {
		return "output"
	}
	return "input"
}

// Driver is the pin direction and value interface of one register block.
type Driver interface {
	// DirectionInput stops driving the pad.
	DirectionInput(pin uint) error
	// DirectionOutput programs the output level then drives the pad.
	DirectionOutput(pin uint, v bool) error
	// Value is the pad level, whatever the direction.
	Value(pin uint) (bool, error)
	// SetValue latches the output level without changing direction.
	SetValue(pin uint, v bool) error
	Function(pin uint) (Function, error)
	// Width is the number of pins wired in this block.
	Width() uint
}

func checkWidth(pin, width uint) error {
	if pin >= width {
		return fmt.Errorf("%d: %w, bank width is %d",
			pin, ErrInvalidPin, width)
	}
	return nil
}
