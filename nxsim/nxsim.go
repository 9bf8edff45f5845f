// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package nxsim models the Nexell GPIO register blocks in memory so that
// drivers can be exercised without hardware.
//
// The models honor the shadow register semantics: writing a 1 to a set
// or reset register changes the latch, writing a 0 has no effect and
// reading a shadow register returns all ones, so a driver that mistakes
// one for a plain register corrupts its neighbors visibly.
package nxsim

import (
	"fmt"
	"sync"

	"github.com/platinasystems/nxgpio"
	"github.com/platinasystems/nxgpio/hw"
)

// Undefined is returned by loads of write only registers.
const Undefined = ^uint32(0)

// Access is one recorded load, store or barrier.
type Access struct {
	Write   bool
	Barrier bool
	Off     uintptr
	Val     uint32
}

func (a Access) String() string {
	switch {
	case a.Barrier:
		return "barrier"
	case a.Write:
		return fmt.Sprintf("store 0x%03x 0x%08x", a.Off, a.Val)
	}
	return fmt.Sprintf("load  0x%03x 0x%08x", a.Off, a.Val)
}

// pads is the part shared by both models: output enable, output latch
// and the externally driven level of each pin.
type pads struct {
	mu     sync.Mutex
	size   uintptr
	outEnb uint32
	latch  uint32
	ext    uint32
	trace  []Access
	tracer bool
}

// level is what the pad reads: the latch where driven, else the outside.
func (p *pads) level() uint32 {
	return p.outEnb&p.latch | ^p.outEnb&p.ext
}

func (p *pads) record(a Access) {
	if p.tracer {
		p.trace = append(p.trace, a)
	}
}

func (p *pads) Len() uintptr { return p.size }

func (p *pads) Barrier() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(Access{Barrier: true})
}

// Trace starts recording accesses, discarding any earlier record.
func (p *pads) Trace() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trace = p.trace[:0]
	p.tracer = true
}

// Accesses returns and clears the record.
func (p *pads) Accesses() []Access {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := append([]Access(nil), p.trace...)
	p.trace = p.trace[:0]
	return t
}

// Drive sets the level applied to pin from outside the SoC.
func (p *pads) Drive(pin uint, high bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drive(pin, high)
}

func (p *pads) drive(pin uint, high bool) {
	if high {
		p.ext |= 1 << pin
	} else {
		p.ext &^= 1 << pin
	}
}

// Output reports whether pin is driven and the latched level.
func (p *pads) Output(pin uint) (enabled, latched bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outEnb&(1<<pin) != 0, p.latch&(1<<pin) != 0
}

// Level is the pad level of pin.
func (p *pads) Level(pin uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level()&(1<<pin) != 0
}

// Alive models the ALIVE power domain GPIO block.
type Alive struct {
	pads
	pwrgate uint32
}

var _ hw.Region = (*Alive)(nil)

func NewAlive() *Alive {
	return &Alive{pads: pads{size: nxgpio.AliveSize}}
}

func (m *Alive) Load32(off uintptr) (v uint32) {
	hw.CheckOffset(m, off)
	m.mu.Lock()
	defer m.mu.Unlock()
	switch off {
	case nxgpio.AlivePwrGate:
		v = m.pwrgate
	case nxgpio.AliveOutEnbRead:
		v = m.outEnb
	case nxgpio.AlivePad, nxgpio.AlivePadRead:
		v = m.level()
	case nxgpio.AliveOutEnbReset, nxgpio.AliveOutEnb,
		nxgpio.AlivePadReset, nxgpio.AliveData:
		v = Undefined
	}
	m.record(Access{Off: off, Val: v})
	return
}

func (m *Alive) Store32(off uintptr, v uint32) {
	hw.CheckOffset(m, off)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Access{Write: true, Off: off, Val: v})
	switch off {
	case nxgpio.AlivePwrGate:
		m.pwrgate = v
	case nxgpio.AliveOutEnbReset:
		m.outEnb &^= v
	case nxgpio.AliveOutEnb:
		m.outEnb |= v
	case nxgpio.AlivePadReset:
		m.latch &^= v
	case nxgpio.AliveData:
		m.latch |= v
	}
}

// Bank models an ordinary GPIO bank. Edge detection follows the detmode
// and intenb registers: two mode bits per pin, 0 low, 1 high, 2 falling
// and 3 rising, latched into det which is write 1 to clear.
type Bank struct {
	pads
	detmode [2]uint32
	intenb  uint32
	det     uint32
}

var _ hw.Region = (*Bank)(nil)

func NewBank() *Bank {
	return &Bank{pads: pads{size: nxgpio.BankSize}}
}

func (m *Bank) Load32(off uintptr) (v uint32) {
	hw.CheckOffset(m, off)
	m.mu.Lock()
	defer m.mu.Unlock()
	switch off {
	case nxgpio.BankData:
		v = m.latch
	case nxgpio.BankOutEnb:
		v = m.outEnb
	case nxgpio.BankDetMode0:
		v = m.detmode[0]
	case nxgpio.BankDetMode1:
		v = m.detmode[1]
	case nxgpio.BankIntEnb:
		v = m.intenb
	case nxgpio.BankDet:
		v = m.det
	case nxgpio.BankPad:
		v = m.level()
	}
	m.record(Access{Off: off, Val: v})
	return
}

func (m *Bank) Store32(off uintptr, v uint32) {
	hw.CheckOffset(m, off)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Access{Write: true, Off: off, Val: v})
	switch off {
	case nxgpio.BankData:
		m.latch = v
	case nxgpio.BankOutEnb:
		m.outEnb = v
	case nxgpio.BankDetMode0:
		m.detmode[0] = v
	case nxgpio.BankDetMode1:
		m.detmode[1] = v
	case nxgpio.BankIntEnb:
		m.intenb = v
	case nxgpio.BankDet:
		m.det &^= v
	}
}

// Drive sets the external level of pin and latches a detect event if
// enabled for the resulting transition.
func (m *Bank) Drive(pin uint, high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mask := uint32(1) << pin
	was := m.level()&mask != 0
	m.drive(pin, high)
	is := m.level()&mask != 0
	if m.intenb&mask == 0 {
		return
	}
	mode := m.detmode[pin/16] >> (2 * (pin % 16)) & 3
	var hit bool
	switch mode {
	case 0:
		hit = !is
	case 1:
		hit = is
	case 2:
		hit = was && !is
	case 3:
		hit = !was && is
	}
	if hit {
		m.det |= mask
	}
}

// Open returns a new model for the bank; it matches the driver's region
// opener so a whole board can run simulated.
func Open(id nxgpio.BankID, base, size uintptr) (hw.Region, error) {
	var r hw.Region
	if id.Kind == nxgpio.Alive {
		r = NewAlive()
	} else {
		r = NewBank()
	}
	if size > r.Len() {
		return nil, fmt.Errorf("%s@%#x: size %#x > %#x: %w",
			id, base, size, r.Len(), nxgpio.ErrConfig)
	}
	return r, nil
}
