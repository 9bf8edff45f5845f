// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package nxsim

import (
	"testing"

	"github.com/platinasystems/nxgpio"
	"github.com/platinasystems/nxgpio/internal/test"
)

func TestAliveShadow(t *testing.T) {
	assert := test.Assert{TB: t}
	m := NewAlive()
	m.Store32(nxgpio.AliveData, 0x5)
	m.Store32(nxgpio.AliveOutEnb, 0x3)
	assert.Equal(m.Load32(nxgpio.AliveOutEnbRead), uint32(0x3))
	assert.Equal(m.Load32(nxgpio.AlivePad), uint32(0x1))
	assert.Equal(m.Load32(nxgpio.AliveData), Undefined)
	m.Store32(nxgpio.AlivePadReset, 0x1)
	m.Store32(nxgpio.AliveOutEnbReset, 0x2)
	assert.Equal(m.Load32(nxgpio.AliveOutEnbRead), uint32(0x1))
	assert.Equal(m.Load32(nxgpio.AlivePadRead), uint32(0x0))
	m.Drive(1, true)
	assert.True(m.Level(1))
	assert.False(m.Level(0))
	// read only
	m.Store32(nxgpio.AlivePad, 0xff)
	assert.Equal(m.Load32(nxgpio.AlivePad), uint32(0x2))
}

func TestBankDetect(t *testing.T) {
	assert := test.Assert{TB: t}
	m := NewBank()
	// pin 3 rising, pin 18 falling
	m.Store32(nxgpio.BankDetMode0, 3<<6)
	m.Store32(nxgpio.BankDetMode1, 2<<4)
	m.Store32(nxgpio.BankIntEnb, 1<<3|1<<18)
	m.Drive(18, true)
	m.Drive(3, true)
	assert.Equal(m.Load32(nxgpio.BankDet), uint32(1<<3))
	m.Drive(18, false)
	assert.Equal(m.Load32(nxgpio.BankDet), uint32(1<<3|1<<18))
	m.Store32(nxgpio.BankDet, 1<<3)
	assert.Equal(m.Load32(nxgpio.BankDet), uint32(1<<18))
	// a driven pin ignores the outside
	m.Store32(nxgpio.BankOutEnb, 1<<5)
	m.Drive(5, true)
	assert.Equal(m.Load32(nxgpio.BankPad), uint32(1<<3))
}

func TestOpen(t *testing.T) {
	assert := test.Assert{TB: t}
	alv := nxgpio.BankID{Kind: nxgpio.Alive, Index: nxgpio.AliveIndex}
	r, err := Open(alv, nxgpio.AliveBase, nxgpio.AliveSize)
	assert.Nil(err)
	_, ok := r.(*Alive)
	assert.True(ok)
	_, err = Open(nxgpio.BankID{}, nxgpio.GpioABase, nxgpio.AliveSize)
	assert.Error(err, nxgpio.ErrConfig)
}

func TestTrace(t *testing.T) {
	assert := test.Assert{TB: t}
	m := NewBank()
	m.Load32(nxgpio.BankPad)
	m.Trace()
	m.Store32(nxgpio.BankData, 1)
	m.Barrier()
	m.Load32(nxgpio.BankData)
	assert.Equal(m.Accesses(), "[store 0x000 0x00000001 barrier "+
		"load  0x000 0x00000001]")
	assert.Equal(len(m.Accesses()), 0)
}
