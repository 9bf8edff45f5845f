// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package nxgpio

import (
	"strings"
	"testing"

	"github.com/platinasystems/nxgpio/internal/test"
)

func TestAliveLayout(t *testing.T) {
	assert := test.Assert{TB: t}
	l := AliveLayout()
	for _, x := range []struct {
		name string
		off  uintptr
		kind Kind
	}{
		{PwrGate, 0x000, PlainRMW},
		{OutEnbReset, 0x074, Write1Clear},
		{OutEnb, 0x078, Write1Set},
		{OutEnbRead, 0x07c, ReadOnly},
		{PadReset, 0x08c, Write1Clear},
		{Data, 0x090, Write1Set},
		{PadRead, 0x094, ReadOnly},
		{Pad, 0x11c, ReadOnly},
	} {
		f, err := l.Field(x.name)
		assert.Nil(err)
		assert.Equal(f.Offset, x.off)
		assert.Equal(f.Kind, x.kind)
		assert.True(f.Offset+4 <= l.Size)
	}
	assert.Equal(strings.Join(l.Names(), ","),
		"pwrgate,outputenb_reset,outputenb,outputenb_read,"+
			"pad_reset,data,pad_read,pad")
}

func TestBankLayout(t *testing.T) {
	assert := test.Assert{TB: t}
	l := BankLayout()
	assert.Equal(strings.Join(l.Names(), ","),
		"data,outputenb,detmode0,detmode1,intenb,det,pad")
	f, err := l.Field(Det)
	assert.Nil(err)
	assert.Equal(f, "det@0x014(w1c)")
	_, err = l.Field(PadRead)
	assert.Error(err, ErrUnknownField)
}

func TestWithKinds(t *testing.T) {
	assert := test.Assert{TB: t}
	l := AliveLayout()
	c, err := l.WithKinds(map[string]Kind{Data: PlainRMW})
	assert.Nil(err)
	assert.Equal(c.Fields[Data].Kind, PlainRMW)
	assert.Equal(l.Fields[Data].Kind, Write1Set)
	_, err = l.WithKinds(map[string]Kind{"bogus": ReadOnly})
	assert.Error(err, ErrUnknownField)
}

func TestParseKind(t *testing.T) {
	assert := test.Assert{TB: t}
	for _, k := range []Kind{PlainRMW, Write1Set, Write1Clear, ReadOnly} {
		got, err := ParseKind(strings.ToUpper(k.String()))
		assert.Nil(err)
		assert.Equal(got, k)
	}
	_, err := ParseKind("w0c")
	assert.Error(err, ErrConfig)
	assert.True(Write1Clear.IsShadow())
	assert.False(ReadOnly.IsShadow())
}

func TestParseVariant(t *testing.T) {
	assert := test.Assert{TB: t}
	v, err := ParseVariant("Extended")
	assert.Nil(err)
	assert.Equal(v.AlivePins, 15)
	v, err = ParseVariant("legacy")
	assert.Nil(err)
	assert.Equal(v.AlivePins, 6)
	_, err = ParseVariant("s5p6818")
	assert.Error(err, ErrConfig)
}

func TestParseKinds(t *testing.T) {
	assert := test.Assert{TB: t}
	kinds, err := ParseKinds("outputenb=rmw, data=RMW,")
	assert.Nil(err)
	assert.Equal(len(kinds), 2)
	assert.Equal(kinds[OutEnb], PlainRMW)
	assert.Equal(kinds[Data], PlainRMW)
	_, err = ParseKinds("data")
	assert.Error(err, ErrConfig)
	_, err = ParseKinds("data=w2s")
	assert.Error(err, ErrConfig)
}
