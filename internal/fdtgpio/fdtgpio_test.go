// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package fdtgpio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/platinasystems/nxgpio"
	"github.com/platinasystems/nxgpio/internal/test"
)

// blob assembles a version 17 flattened device tree.
type blob struct {
	st, strs bytes.Buffer
	names    map[string]int
}

func (b *blob) u32(v uint32) { binary.Write(&b.st, binary.BigEndian, v) }

func (b *blob) pad() {
	for b.st.Len()%4 != 0 {
		b.st.WriteByte(0)
	}
}

func (b *blob) begin(name string) *blob {
	b.u32(1)
	b.st.WriteString(name)
	b.st.WriteByte(0)
	b.pad()
	return b
}

func (b *blob) end() *blob {
	b.u32(2)
	return b
}

func (b *blob) prop(name string, v []byte) *blob {
	if b.names == nil {
		b.names = make(map[string]int)
	}
	off, found := b.names[name]
	if !found {
		off = b.strs.Len()
		b.strs.WriteString(name)
		b.strs.WriteByte(0)
		b.names[name] = off
	}
	b.u32(3)
	b.u32(uint32(len(v)))
	b.u32(uint32(off))
	b.st.Write(v)
	b.pad()
	return b
}

func (b *blob) str(name, v string) *blob {
	return b.prop(name, append([]byte(v), 0))
}

func (b *blob) cells(name string, v ...uint32) *blob {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, v)
	return b.prop(name, buf.Bytes())
}

func (b *blob) bytes() []byte {
	b.u32(9)
	const hdr = 40
	out := new(bytes.Buffer)
	for _, v := range []uint32{
		magic,
		uint32(hdr + b.st.Len() + b.strs.Len()),
		hdr,
		uint32(hdr + b.st.Len()),
		0,
		17,
		16,
		0,
		uint32(b.strs.Len()),
		uint32(b.st.Len()),
	} {
		binary.Write(out, binary.BigEndian, v)
	}
	out.Write(b.st.Bytes())
	out.Write(b.strs.Bytes())
	return out.Bytes()
}

func board() *blob {
	b := new(blob)
	b.begin("")
	b.begin("soc")
	b.begin("gpio@c001c000").
		str("compatible", BankCompatible).
		cells("reg", 0xc001c000, 0x1000).
		str("gpio-bank-name", "gpioc").
		end()
	b.begin("gpio@c0010800").
		str("compatible", BankCompatible).
		cells("reg", 0xc0010800, 0x120).
		cells("nexell,gpio-bank-width", 15).
		str("gpio-bank-name", "gpio_alv").
		end()
	b.end()
	b.begin("button").
		str("compatible", MiscCompatible).
		str("misc-name", "button").
		cells("misc-addr", 0xc0010800).
		cells("misc-id", 1).
		str("misc-trigger", "rising").
		str("misc-toggle", "led").
		end()
	b.begin("led@0").
		str("compatible", CtrlCompatible).
		cells("gpio-num", 68).
		end()
	b.begin("buzzer").
		str("compatible", CtrlCompatible).
		cells("gpio-num", 165).
		cells("pad_func", 1).
		str("gpio-name", "beep").
		end()
	return b.end()
}

func TestParse(t *testing.T) {
	assert := test.Assert{TB: t}
	cfg := nxgpio.DefaultConfig()
	assert.Nil(Parse(board().bytes(), &cfg))
	assert.Nil(cfg.Validate())
	assert.Equal(len(cfg.Banks), 6)
	bc, found := cfg.BankAt(0xc0010800)
	assert.True(found)
	assert.Equal(bc.Name, "gpio_alv")
	assert.Equal(bc.Width, 15)
	assert.Equal(len(cfg.Devices), 3)
	assert.Equal(cfg.Devices[0], nxgpio.DeviceConfig{Name: "beep",
		Pin: "165", PadFunc: 1})
	assert.Equal(cfg.Devices[1], nxgpio.DeviceConfig{Name: "button",
		Pin: "gpio_alv.1", Trigger: "rising", Toggle: "led"})
	assert.Equal(cfg.Devices[2], nxgpio.DeviceConfig{Name: "led",
		Pin: "68", PadFunc: DefaultPadFunc})
}

func TestMiscBank(t *testing.T) {
	assert := test.Assert{TB: t}
	b := new(blob)
	b.begin("").begin("sw").
		str("compatible", MiscCompatible).
		str("misc-name", "sw").
		cells("misc-addr", 0xd0000000).
		cells("misc-id", 3).
		str("misc-bank", "gpioe").
		end().end()
	cfg := nxgpio.DefaultConfig()
	assert.Nil(Parse(b.bytes(), &cfg))
	bc, found := cfg.BankAt(0xd0000000)
	assert.True(found)
	assert.Equal(bc.Name, "gpioe")
	_, found = cfg.BankAt(nxgpio.GpioEBase)
	assert.False(found)
	assert.Equal(cfg.Devices[0].Pin, "gpioe.3")
}

func TestParseErrors(t *testing.T) {
	assert := test.Assert{TB: t}
	for name, b := range map[string]*blob{
		"no misc-id": new(blob).begin("").begin("x").
			str("compatible", MiscCompatible).
			str("misc-name", "x").
			cells("misc-addr", uint32(nxgpio.AliveBase)).
			end().end(),
		"unknown misc-addr": new(blob).begin("").begin("x").
			str("compatible", MiscCompatible).
			str("misc-name", "x").
			cells("misc-addr", 0x1000).
			cells("misc-id", 0).
			end().end(),
		"no gpio-num": new(blob).begin("").begin("x").
			str("compatible", CtrlCompatible).
			end().end(),
		"no reg": new(blob).begin("").begin("x").
			str("compatible", BankCompatible).
			str("gpio-bank-name", "gpioa").
			end().end(),
		"bad bank": new(blob).begin("").begin("x").
			str("compatible", BankCompatible).
			str("gpio-bank-name", "gpioz").
			cells("reg", 0x1000).
			end().end(),
		"short cell": new(blob).begin("").begin("x").
			str("compatible", CtrlCompatible).
			prop("gpio-num", []byte{1}).
			end().end(),
	} {
		cfg := nxgpio.DefaultConfig()
		err := Parse(b.bytes(), &cfg)
		if err == nil {
			t.Fatal(name, "not detected")
		}
		assert.Error(err, nxgpio.ErrConfig)
	}
	cfg := nxgpio.DefaultConfig()
	assert.Error(Parse([]byte("dtb"), &cfg), nxgpio.ErrConfig)
	truncated := board().bytes()[:60]
	assert.Error(Parse(truncated, &cfg), nxgpio.ErrConfig)
}

func TestLoad(t *testing.T) {
	assert := test.Assert{TB: t}
	fn := filepath.Join(t.TempDir(), "linux.dtb")
	assert.Nil(os.WriteFile(fn, board().bytes(), 0644))
	cfg := nxgpio.DefaultConfig()
	assert.Nil(Load(fn, &cfg))
	assert.Equal(len(cfg.Devices), 3)
	err := Load(filepath.Join(t.TempDir(), "missing.dtb"), &cfg)
	assert.True(os.IsNotExist(err))
}
