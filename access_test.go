// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package nxgpio

import (
	"sync"
	"testing"

	"github.com/platinasystems/nxgpio/hw"
	"github.com/platinasystems/nxgpio/internal/test"
)

// counting records the number of loads and stores made through it.
type counting struct {
	hw.Region
	loads, stores, barriers int
}

func (c *counting) Load32(off uintptr) uint32 {
	c.loads++
	return c.Region.Load32(off)
}

func (c *counting) Store32(off uintptr, v uint32) {
	c.stores++
	c.Region.Store32(off, v)
}

func (c *counting) Barrier() {
	c.barriers++
	c.Region.Barrier()
}

func TestPlainRMW(t *testing.T) {
	assert := test.Assert{TB: t}
	m := hw.NewMem(AliveSize)
	m.Store32(AlivePwrGate, 0x8001)
	a := NewAccessor(m)
	f := AliveLayout().Fields[PwrGate]
	assert.Nil(a.SetBit(f, 4))
	assert.Equal(m.Load32(AlivePwrGate), uint32(0x8011))
	assert.Nil(a.ClearBit(f, 0))
	assert.Equal(m.Load32(AlivePwrGate), uint32(0x8010))
	v, err := a.GetBit(f, 15)
	assert.Nil(err)
	assert.True(v)
	v, err = a.GetBit(f, 0)
	assert.Nil(err)
	assert.False(v)
}

func TestShadowStoresMaskOnly(t *testing.T) {
	assert := test.Assert{TB: t}
	c := &counting{Region: hw.NewMem(AliveSize)}
	c.Region.Store32(AliveData, 0xffff0000)
	a := NewAccessor(c)
	f := AliveLayout().Fields[Data]
	assert.Nil(a.SetBit(f, 3))
	assert.Equal(c.Region.Load32(AliveData), uint32(1<<3))
	assert.Equal(c.loads, 0)
	assert.Equal(c.stores, 1)
	assert.Error(a.ClearBit(f, 3), ErrWriteOnly)
	_, err := a.GetBit(f, 3)
	assert.Error(err, ErrWriteOnly)
	_, err = a.Word(f)
	assert.Error(err, ErrWriteOnly)
	assert.Equal(c.loads, 0)
	assert.Equal(c.stores, 1)

	// write 1 to clear takes the mask from either operation
	reset := AliveLayout().Fields[OutEnbReset]
	c.Region.Store32(AliveOutEnbReset, 0xffff0000)
	assert.Nil(a.ClearBit(reset, 3))
	assert.Equal(c.Region.Load32(AliveOutEnbReset), uint32(0x8))
	assert.Equal(c.loads, 0)
	assert.Equal(c.stores, 2)
	assert.Nil(a.SetBit(reset, 5))
	assert.Equal(c.Region.Load32(AliveOutEnbReset), uint32(0x20))
	_, err = a.GetBit(reset, 3)
	assert.Error(err, ErrWriteOnly)
	assert.Equal(c.loads, 0)
	assert.Equal(c.stores, 3)
}

func TestReadOnly(t *testing.T) {
	assert := test.Assert{TB: t}
	c := &counting{Region: hw.NewMem(AliveSize)}
	a := NewAccessor(c)
	f := AliveLayout().Fields[Pad]
	assert.Error(a.SetBit(f, 1), ErrReadOnly)
	assert.Error(a.ClearBit(f, 1), ErrReadOnly)
	assert.Equal(c.stores, 0)
	_, err := a.GetBit(f, 1)
	assert.Nil(err)
}

func TestInvalidPin(t *testing.T) {
	assert := test.Assert{TB: t}
	c := &counting{Region: hw.NewMem(AliveSize)}
	a := NewAccessor(c)
	l := AliveLayout()
	_, err := a.GetBit(l.Fields[Pad], 40)
	assert.Error(err, ErrInvalidPin)
	assert.Error(a.SetBit(l.Fields[Data], 32), ErrInvalidPin)
	assert.Error(a.ClearBit(l.Fields[PwrGate], 99), ErrInvalidPin)
	assert.Equal(c.loads+c.stores, 0)
}

func TestApply(t *testing.T) {
	assert := test.Assert{TB: t}
	c := &counting{Region: hw.NewMem(AliveSize)}
	a := NewAccessor(c)
	l := AliveLayout()
	assert.Nil(a.Apply(2, Set(l.Fields[Data]), Set(l.Fields[OutEnb]),
		Set(l.Fields[PwrGate])))
	assert.Equal(c.stores, 3)
	assert.Equal(c.barriers, 2)

	// nothing is written if any step is invalid
	c.stores, c.barriers = 0, 0
	err := a.Apply(2, Set(l.Fields[Data]), Set(l.Fields[Pad]))
	assert.Error(err, ErrReadOnly)
	assert.Equal(c.stores, 0)
	assert.Equal(c.barriers, 0)
}

func TestConcurrentRMW(t *testing.T) {
	const n = 1000
	assert := test.Assert{TB: t}
	a := NewAccessor(hw.NewMem(BankSize))
	f := BankLayout().Fields[Data]
	var wg sync.WaitGroup
	for pin := uint(0); pin < RegWidth; pin++ {
		wg.Add(1)
		go func(pin uint) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				a.SetBit(f, pin)
				a.ClearBit(f, pin)
			}
			if pin&1 == 0 {
				a.SetBit(f, pin)
			}
		}(pin)
	}
	wg.Wait()
	w, err := a.Word(f)
	assert.Nil(err)
	assert.Equal(w, uint32(0x55555555))
}
