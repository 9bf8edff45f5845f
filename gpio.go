// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package nxgpio provides register level control of Nexell GPIO banks and
// the ALIVE power domain GPIO block.
//
// Pins are numbered as the SoC does, bank index * 32 + bit, so the ALIVE
// pins begin at 160. A pin may also be named BANK.BIT or BANK:BIT, e.g.
//
//	gpio_alv.2, alv:2, gpioc.4, c.4
package nxgpio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/platinasystems/nxgpio/hw"
)

const (
	AliveName  = "gpio_alv"
	AliveIndex = 5
)

// BankKind selects the register semantics of a bank.
type BankKind uint8

const (
	GpioBank BankKind = iota
	Alive
)

func (k BankKind) String() string {
	if k == Alive {
		return "alive"
	}
	return "gpio"
}

// BankID is a bank resolved from its name: Alive or GpioBank(Index).
type BankID struct {
	Kind  BankKind
	Index uint
}

var bankNames = []string{"gpioa", "gpiob", "gpioc", "gpiod", "gpioe"}

// ParseBankName accepts gpioa..gpioe, a..e, gpio_alv, alv and alive.
func ParseBankName(name string) (BankID, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	switch s {
	case AliveName, "alv", "alive":
		return BankID{Alive, AliveIndex}, nil
	}
	for i, bn := range bankNames {
		if s == bn || s == bn[len(bn)-1:] {
			return BankID{GpioBank, uint(i)}, nil
		}
	}
	return BankID{}, fmt.Errorf("%q: %w", name, ErrUnknownBank)
}

func bankOfIndex(i uint) (BankID, error) {
	switch {
	case i == AliveIndex:
		return BankID{Alive, AliveIndex}, nil
	case i < uint(len(bankNames)):
		return BankID{GpioBank, i}, nil
	}
	return BankID{}, fmt.Errorf("index %d: %w", i, ErrUnknownBank)
}

func (id BankID) String() string {
	if id.Kind == Alive {
		return AliveName
	}
	if id.Index < uint(len(bankNames)) {
		return bankNames[id.Index]
	}
	return fmt.Sprint("gpio", id.Index)
}

// Base is the global number of bit 0 of the bank.
func (id BankID) Base() uint { return id.Index * RegWidth }

// ParsePin resolves a global pin number or BANK.BIT name.
func ParsePin(spec string) (BankID, uint, error) {
	if i := strings.IndexAny(spec, ".:"); i > 0 {
		id, err := ParseBankName(spec[:i])
		if err != nil {
			return id, 0, err
		}
		bit, err := strconv.ParseUint(spec[i+1:], 0, 8)
		if err != nil {
			return id, 0, fmt.Errorf("%q: %w", spec, ErrInvalidPin)
		}
		return id, uint(bit), nil
	}
	n, err := strconv.ParseUint(spec, 0, 16)
	if err != nil {
		return BankID{}, 0, fmt.Errorf("%q: %w", spec, ErrInvalidPin)
	}
	id, err := bankOfIndex(uint(n) / RegWidth)
	return id, uint(n) % RegWidth, err
}

// Bank is a configured register block with its driver chosen by kind.
type Bank struct {
	ID     BankID
	Base   uintptr
	Driver Driver
}

func (b *Bank) String() string { return b.ID.String() }

// Controller routes pins to the bank that owns them.
type Controller struct {
	cfg   Config
	mu    sync.RWMutex
	banks map[uint]*Bank
}

func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg, banks: make(map[uint]*Bank)}
}

func (c *Controller) Config() Config { return c.cfg }

// Attach builds the driver for a configured bank on its mapped region.
func (c *Controller) Attach(bc BankConfig, r hw.Region) (*Bank, error) {
	id, err := ParseBankName(bc.Name)
	if err != nil {
		return nil, err
	}
	b := &Bank{ID: id, Base: bc.Base}
	switch id.Kind {
	case Alive:
		width := bc.Width
		if width == 0 {
			width = c.cfg.Variant.AlivePins
		}
		b.Driver, err = NewAlive(r, AliveOptions{
			Width: width,
			Kinds: c.cfg.Kinds,
			Input: c.cfg.Input,
		})
	default:
		width := bc.Width
		if width == 0 {
			width = RegWidth
		}
		b.Driver, err = NewBank(r, width)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.banks[id.Index]; found {
		return nil, fmt.Errorf("%s: %w, attached twice", id, ErrConfig)
	}
	c.banks[id.Index] = b
	return b, nil
}

// Banks lists attached banks in index order.
func (c *Controller) Banks() []*Bank {
	c.mu.RLock()
	defer c.mu.RUnlock()
	banks := make([]*Bank, 0, len(c.banks))
	for _, b := range c.banks {
		banks = append(banks, b)
	}
	sort.Slice(banks, func(i, j int) bool {
		return banks[i].ID.Index < banks[j].ID.Index
	})
	return banks
}

func (c *Controller) Bank(id BankID) (*Bank, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, found := c.banks[id.Index]
	if !found {
		return nil, fmt.Errorf("%s: %w, not attached", id, ErrUnknownBank)
	}
	return b, nil
}

// Line resolves a pin spec to its bank and bit.
func (c *Controller) Line(spec string) (Line, error) {
	id, bit, err := ParsePin(spec)
	if err != nil {
		return Line{}, err
	}
	b, err := c.Bank(id)
	if err != nil {
		return Line{}, err
	}
	if err = checkWidth(bit, b.Driver.Width()); err != nil {
		return Line{}, fmt.Errorf("%s: %w", spec, err)
	}
	return Line{Bank: b, Pin: bit}, nil
}

// Line is one pin of an attached bank.
type Line struct {
	Bank *Bank
	Pin  uint
}

func (l Line) Number() uint { return l.Bank.ID.Base() + l.Pin }

func (l Line) String() string {
	return fmt.Sprint(l.Bank.ID, ".", l.Pin)
}

func (l Line) DirectionInput() error {
	return l.Bank.Driver.DirectionInput(l.Pin)
}

func (l Line) DirectionOutput(v bool) error {
	return l.Bank.Driver.DirectionOutput(l.Pin, v)
}

func (l Line) Value() (bool, error) { return l.Bank.Driver.Value(l.Pin) }

func (l Line) SetValue(v bool) error {
	return l.Bank.Driver.SetValue(l.Pin, v)
}

func (l Line) Function() (Function, error) {
	return l.Bank.Driver.Function(l.Pin)
}
