// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fdtgpio reads the Nexell GPIO banks and the GPIO devices of a
// board from its flattened device tree.
package fdtgpio

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/platinasystems/fdt"
	"github.com/platinasystems/nxgpio"
)

var File = "/boot/linux.dtb"

// Compatible strings of the nodes this package reads.
const (
	BankCompatible = "nexell,nexell-gpio"
	MiscCompatible = "nexell,misc_gpio"
	CtrlCompatible = "nexell,nx_gpio_ctrl"
)

// DefaultPadFunc is the alternate function of a control pin that doesn't
// name one.
const DefaultPadFunc = 5

const magic = 0xd00dfeed

// Load merges the device tree file into cfg.
func Load(file string, cfg *nxgpio.Config) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err = Parse(b, cfg); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	return nil
}

// Parse merges banks and devices of the blob into cfg. Banks replace the
// configured bank of the same name; devices are appended.
func Parse(b []byte, cfg *nxgpio.Config) (err error) {
	if len(b) < 40 || binary.BigEndian.Uint32(b) != magic {
		return fmt.Errorf("%w: not a device tree blob", nxgpio.ErrConfig)
	}
	t := &fdt.Tree{Debug: false, IsLittleEndian: false}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: truncated device tree, %v",
				nxgpio.ErrConfig, r)
		}
	}()
	if err = t.Parse(b); err != nil {
		return fmt.Errorf("%w: %v", nxgpio.ErrConfig, err)
	}
	r := reader{t: t, cfg: cfg}
	t.EachProperty("compatible", BankCompatible, r.bank)
	if r.err != nil {
		return r.err
	}
	t.EachProperty("compatible", MiscCompatible, r.misc)
	t.EachProperty("compatible", CtrlCompatible, r.ctrl)
	if r.err == nil {
		cfg.SortDevices()
	}
	return r.err
}

// reader keeps the first error of the node callbacks.
type reader struct {
	t   *fdt.Tree
	cfg *nxgpio.Config
	err error
}

func (r *reader) fail(n *fdt.Node, format string, args ...interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %s: %w", n.Name,
			fmt.Sprintf(format, args...), nxgpio.ErrConfig)
	}
}

func (r *reader) u32(n *fdt.Node, name string) (uint32, bool) {
	b, found := n.Properties[name]
	if !found {
		return 0, false
	}
	if len(b) < 4 {
		r.fail(n, "%s: short cell", name)
		return 0, false
	}
	return r.t.PropUint32(b), true
}

func (r *reader) str(n *fdt.Node, name string) (string, bool) {
	b, found := n.Properties[name]
	if !found || len(b) == 0 {
		return "", false
	}
	return r.t.PropString(b), true
}

func (r *reader) bank(n *fdt.Node, _, _ string) {
	name, found := r.str(n, "gpio-bank-name")
	if !found {
		r.fail(n, "no gpio-bank-name")
		return
	}
	reg, found := r.u32(n, "reg")
	if !found {
		r.fail(n, "no reg")
		return
	}
	bc := nxgpio.BankConfig{Name: name, Base: uintptr(reg)}
	if w, found := r.u32(n, "nexell,gpio-bank-width"); found {
		bc.Width = uint(w)
	}
	if _, err := nxgpio.ParseBankName(name); err != nil {
		r.fail(n, "%v", err)
		return
	}
	r.cfg.SetBank(bc)
}

// misc reads a gpio misc device; its pin is misc-id of the bank at
// misc-addr, or of misc-bank when that is given.
func (r *reader) misc(n *fdt.Node, _, _ string) {
	name, found := r.str(n, "misc-name")
	if !found {
		r.fail(n, "no misc-name")
		return
	}
	addr, found := r.u32(n, "misc-addr")
	if !found {
		r.fail(n, "no misc-addr")
		return
	}
	id, found := r.u32(n, "misc-id")
	if !found {
		r.fail(n, "no misc-id")
		return
	}
	bank, found := r.str(n, "misc-bank")
	if found {
		r.cfg.SetBank(nxgpio.BankConfig{Name: bank,
			Base: uintptr(addr)})
	} else if bc, found := r.cfg.BankAt(uintptr(addr)); found {
		bank = bc.Name
	} else {
		r.fail(n, "misc-addr %#x isn't a gpio bank", addr)
		return
	}
	dc := nxgpio.DeviceConfig{
		Name: name,
		Pin:  fmt.Sprint(bank, ".", id),
	}
	dc.Trigger, _ = r.str(n, "misc-trigger")
	dc.Toggle, _ = r.str(n, "misc-toggle")
	r.cfg.Devices = append(r.cfg.Devices, dc)
}

// ctrl reads a gpio control device by its global pin number.
func (r *reader) ctrl(n *fdt.Node, _, _ string) {
	num, found := r.u32(n, "gpio-num")
	if !found {
		r.fail(n, "no gpio-num")
		return
	}
	name, found := r.str(n, "gpio-name")
	if !found {
		name = strings.SplitN(n.Name, "@", 2)[0]
	}
	dc := nxgpio.DeviceConfig{
		Name:    name,
		Pin:     fmt.Sprint(num),
		PadFunc: DefaultPadFunc,
	}
	if f, found := r.u32(n, "pad_func"); found {
		dc.PadFunc = uint(f)
	}
	r.cfg.Devices = append(r.cfg.Devices, dc)
}
