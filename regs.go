// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package nxgpio

import (
	"fmt"
	"sort"
	"strings"
)

// Register field names.
const (
	PwrGate     = "pwrgate"
	OutEnbReset = "outputenb_reset"
	OutEnb      = "outputenb"
	OutEnbRead  = "outputenb_read"
	PadReset    = "pad_reset"
	Data        = "data"
	PadRead     = "pad_read"
	Pad         = "pad"
	DetMode0    = "detmode0"
	DetMode1    = "detmode1"
	IntEnb      = "intenb"
	Det         = "det"
)

// ALIVE block byte offsets.
const (
	AlivePwrGate     uintptr = 0x000
	AliveOutEnbReset uintptr = 0x074
	AliveOutEnb      uintptr = 0x078
	AliveOutEnbRead  uintptr = 0x07c
	AlivePadReset    uintptr = 0x08c
	AliveData        uintptr = 0x090
	AlivePadRead     uintptr = 0x094
	AlivePad         uintptr = 0x11c

	AliveSize uintptr = 0x120
)

// Ordinary bank byte offsets.
const (
	BankData     uintptr = 0x00
	BankOutEnb   uintptr = 0x04
	BankDetMode0 uintptr = 0x08
	BankDetMode1 uintptr = 0x0c
	BankIntEnb   uintptr = 0x10
	BankDet      uintptr = 0x14
	BankPad      uintptr = 0x18
	BankSize     uintptr = 0x1c
)

// RegWidth is the number of pins a 32 bit register can address.
const RegWidth = 32

// Kind is the hardware semantic of a register.
type Kind uint8

const (
	// PlainRMW is an ordinary read/write register.
	PlainRMW Kind = iota
	// Write1Set latches a 1 for every bit written as 1; reads are undefined.
	Write1Set
	// Write1Clear latches a 0 for every bit written as 1; reads are
	// undefined.
	Write1Clear
	// ReadOnly ignores writes.
	ReadOnly
)

var kindNames = []string{
	PlainRMW:    "rmw",
	Write1Set:   "w1s",
	Write1Clear: "w1c",
	ReadOnly:    "ro",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprint("kind(", uint8(k), ")")
}

// IsShadow reports whether k is a write only set or clear register.
func (k Kind) IsShadow() bool { return k == Write1Set || k == Write1Clear }

// ParseKind returns the kind named rmw, w1s, w1c or ro.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w, must be rmw|w1s|w1c|ro", s, ErrConfig)
}

// A Field is a named 32 bit register of a block.
type Field struct {
	Name   string
	Offset uintptr
	Kind   Kind
}

func (f Field) String() string {
	return fmt.Sprintf("%s@%#03x(%s)", f.Name, f.Offset, f.Kind)
}

// Layout maps field names of a register block to their offsets and kinds.
type Layout struct {
	Name   string
	Size   uintptr
	Fields map[string]Field
}

func newLayout(name string, size uintptr, fields ...Field) Layout {
	l := Layout{Name: name, Size: size, Fields: make(map[string]Field)}
	for _, f := range fields {
		l.Fields[f.Name] = f
	}
	return l
}

// AliveLayout is the ALIVE power domain GPIO block.
func AliveLayout() Layout {
	return newLayout("alive", AliveSize,
		Field{PwrGate, AlivePwrGate, PlainRMW},
		Field{OutEnbReset, AliveOutEnbReset, Write1Clear},
		Field{OutEnb, AliveOutEnb, Write1Set},
		Field{OutEnbRead, AliveOutEnbRead, ReadOnly},
		Field{PadReset, AlivePadReset, Write1Clear},
		Field{Data, AliveData, Write1Set},
		Field{PadRead, AlivePadRead, ReadOnly},
		Field{Pad, AlivePad, ReadOnly},
	)
}

// BankLayout is an ordinary 32 pin GPIO bank.
func BankLayout() Layout {
	return newLayout("bank", BankSize,
		Field{Data, BankData, PlainRMW},
		Field{OutEnb, BankOutEnb, PlainRMW},
		Field{DetMode0, BankDetMode0, PlainRMW},
		Field{DetMode1, BankDetMode1, PlainRMW},
		Field{IntEnb, BankIntEnb, PlainRMW},
		Field{Det, BankDet, Write1Clear},
		Field{Pad, BankPad, ReadOnly},
	)
}

func (l Layout) Field(name string) (Field, error) {
	f, found := l.Fields[name]
	if !found {
		return Field{}, fmt.Errorf("%s: %s: %w",
			l.Name, name, ErrUnknownField)
	}
	return f, nil
}

// WithKinds returns a copy of the layout with the given field kinds
// replaced.
func (l Layout) WithKinds(kinds map[string]Kind) (Layout, error) {
	c := Layout{Name: l.Name, Size: l.Size,
		Fields: make(map[string]Field, len(l.Fields))}
	for k, f := range l.Fields {
		c.Fields[k] = f
	}
	for name, kind := range kinds {
		f, err := c.Field(name)
		if err != nil {
			return Layout{}, err
		}
		f.Kind = kind
		c.Fields[name] = f
	}
	return c, nil
}

// Names lists fields in offset order.
func (l Layout) Names() []string {
	names := make([]string, 0, len(l.Fields))
	for k := range l.Fields {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		return l.Fields[names[i]].Offset < l.Fields[names[j]].Offset
	})
	return names
}

// Variant distinguishes SoC generations by their ALIVE pin count.
type Variant struct {
	Name      string
	AlivePins uint
}

var (
	Legacy   = Variant{"legacy", 6}
	Extended = Variant{"extended", 15}

	Variants = []Variant{Legacy, Extended}
)

func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if strings.EqualFold(s, v.Name) {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("variant %q: %w", s, ErrConfig)
}

func (v Variant) String() string { return v.Name }

// ParseKinds parses a comma separated list of FIELD=KIND overrides, e.g.
// "outputenb=rmw,data=rmw".
func ParseKinds(s string) (map[string]Kind, error) {
	kinds := make(map[string]Kind)
	for _, kv := range strings.Split(s, ",") {
		if kv = strings.TrimSpace(kv); kv == "" {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			return nil, fmt.Errorf("%q: %w, want FIELD=KIND", kv,
				ErrConfig)
		}
		k, err := ParseKind(kv[eq+1:])
		if err != nil {
			return nil, err
		}
		kinds[kv[:eq]] = k
	}
	return kinds, nil
}
