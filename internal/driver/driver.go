// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package driver probes the configured GPIO banks and devices of a board.
//
// A Driver owns everything it acquires: the mapped register blocks, the
// registered misc devices, their interrupt actions and the heartbeat.
// These are released in reverse order if Probe fails part way and by
// Close.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/platinasystems/log"
	"github.com/platinasystems/nxgpio"
	"github.com/platinasystems/nxgpio/hw"
	"github.com/platinasystems/nxgpio/internal/fdtgpio"
	"github.com/platinasystems/nxgpio/internal/irq"
	"github.com/platinasystems/nxgpio/internal/miscdev"
)

const (
	DefaultHeartbeat = 10 * time.Second
	// DefaultDebounce is 20 jiffies at 100 Hz.
	DefaultDebounce = 200 * time.Millisecond
)

// Opener maps the register block of a bank.
type Opener func(id nxgpio.BankID, base, size uintptr) (hw.Region, error)

// DevMem maps banks through /dev/mem.
func DevMem(id nxgpio.BankID, base, size uintptr) (hw.Region, error) {
	m, err := hw.OpenDevMem(base, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return m, nil
}

type Options struct {
	// Open defaults to DevMem.
	Open     Opener
	Registry *miscdev.Registry
	// Heartbeat is the status period; zero selects DefaultHeartbeat and
	// negative disables it.
	Heartbeat time.Duration
	// Beat, if set, replaces the heartbeat log.
	Beat     func([]State)
	Debounce time.Duration
}

// Device is a probed misc device.
type Device struct {
	*miscdev.Device
	Config nxgpio.DeviceConfig
	Line   nxgpio.Line
	Action *irq.Action
}

// State is a heartbeat sample of a device.
type State struct {
	Name     string
	Function nxgpio.Function
	Value    bool
	Err      error
}

func (s State) String() string {
	if s.Err != nil {
		return fmt.Sprint(s.Name, ": ", s.Err)
	}
	v := 0
	if s.Value {
		v = 1
	}
	return fmt.Sprint(s.Name, "=", v, "(", s.Function, ")")
}

// cleanup is a stack of release functions.
type cleanup []func() error

func (c *cleanup) push(f func() error) { *c = append(*c, f) }

// unwind runs and pops every release function, last first, returning the
// first error.
func (c *cleanup) unwind() (err error) {
	for i := len(*c) - 1; i >= 0; i-- {
		if xerr := (*c)[i](); err == nil {
			err = xerr
		}
	}
	*c = (*c)[:0]
	return
}

type Driver struct {
	cfg     nxgpio.Config
	ctrl    *nxgpio.Controller
	reg     *miscdev.Registry
	devices []*Device

	mu      sync.Mutex
	cleanup cleanup
}

// Map attaches every configured bank; close releases the mappings.
func Map(cfg nxgpio.Config, open Opener) (*nxgpio.Controller,
	func() error, error) {
	var c cleanup
	ctrl, err := mapBanks(cfg, open, &c)
	if err != nil {
		c.unwind()
		return nil, nil, err
	}
	return ctrl, c.unwind, nil
}

func mapBanks(cfg nxgpio.Config, open Opener, c *cleanup) (
	*nxgpio.Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if open == nil {
		open = DevMem
	}
	ctrl := nxgpio.NewController(cfg)
	for _, bc := range cfg.Banks {
		id, err := nxgpio.ParseBankName(bc.Name)
		if err != nil {
			return nil, err
		}
		size := nxgpio.BankSize
		if id.Kind == nxgpio.Alive {
			size = nxgpio.AliveSize
		}
		r, err := open(id, bc.Base, size)
		if err != nil {
			return nil, err
		}
		if closer, ok := r.(io.Closer); ok {
			c.push(closer.Close)
		}
		if _, err = ctrl.Attach(bc, r); err != nil {
			return nil, err
		}
	}
	return ctrl, nil
}

// Probe maps the banks, then for each device puts its pin in input mode,
// registers it and requests its interrupt, then starts the heartbeat.
func Probe(cfg nxgpio.Config, opts Options) (*Driver, error) {
	d := &Driver{cfg: cfg, reg: opts.Registry}
	if d.reg == nil {
		d.reg = miscdev.NewRegistry()
	}
	if err := d.probe(opts); err != nil {
		d.Close()
		return nil, err
	}
	log.Print("daemon", "info", "probed ", len(d.devices), " devices")
	return d, nil
}

func (d *Driver) probe(opts Options) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctrl, err = mapBanks(d.cfg, opts.Open, &d.cleanup); err != nil {
		return
	}
	ctrl := d.ctrl
	d.reg.SetResolver(func(name string) (miscdev.Pin, error) {
		return ctrl.Line(name)
	})
	d.cleanup.push(func() error {
		d.reg.SetResolver(nil)
		return nil
	})
	for _, dc := range d.cfg.Devices {
		if err = d.add(dc); err != nil {
			return
		}
	}
	for _, dev := range d.devices {
		if dev.Config.Toggle == "" {
			continue
		}
		led := d.device(dev.Config.Toggle)
		if err = led.Line.DirectionOutput(false); err != nil {
			return fmt.Errorf("%s: %w", led.Name, err)
		}
	}
	debounce := opts.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	for _, dev := range d.devices {
		if dev.Config.Trigger == "" {
			continue
		}
		if err = d.request(dev, debounce); err != nil {
			return
		}
	}
	d.heartbeat(opts)
	return nil
}

func (d *Driver) add(dc nxgpio.DeviceConfig) error {
	l, err := d.ctrl.Line(dc.Pin)
	if err != nil {
		return fmt.Errorf("%s: %w", dc.Name, err)
	}
	if err = l.DirectionInput(); err != nil {
		return fmt.Errorf("%s: %w", dc.Name, err)
	}
	dev := &Device{
		Device: &miscdev.Device{
			Name:    dc.Name,
			Pin:     l,
			PadFunc: dc.PadFunc,
		},
		Config: dc,
		Line:   l,
	}
	if err = d.reg.Register(dev.Device); err != nil {
		return err
	}
	d.cleanup.push(func() error { return d.reg.Deregister(dc.Name) })
	d.devices = append(d.devices, dev)
	log.Print("daemon", "info", dc.Name, ": ", l)
	return nil
}

func (d *Driver) request(dev *Device, debounce time.Duration) error {
	trigger, err := irq.ParseTrigger(dev.Config.Trigger)
	if err != nil {
		return fmt.Errorf("%s: %w", dev.Name, err)
	}
	var led *Device
	if dev.Config.Toggle != "" {
		led = d.device(dev.Config.Toggle)
	}
	top := irq.Debounce(debounce, func(ev irq.Event) irq.Return {
		log.Print("daemon", "info", ev.Name, ": top half, ", ev.Edge())
		return irq.WakeThread
	})
	thread := func(ev irq.Event) {
		if led == nil {
			log.Print("daemon", "info", ev.Name, ": bottom half")
			return
		}
		v, err := led.Line.Value()
		if err == nil {
			err = led.Line.SetValue(!v)
		}
		if err != nil {
			log.Print("daemon", "err", ev.Name, ": ", led.Name, ": ",
				err)
			return
		}
		log.Print("daemon", "info", ev.Name, ": bottom half, ",
			led.Name, " ", !v)
	}
	dev.Action, err = irq.Request(dev.Name, dev.Line.Value, trigger, top,
		thread)
	if err != nil {
		return err
	}
	d.cleanup.push(func() error {
		dev.Action.Free()
		return nil
	})
	return nil
}

func (d *Driver) heartbeat(opts Options) {
	period := opts.Heartbeat
	if period == 0 {
		period = DefaultHeartbeat
	}
	if period < 0 {
		return
	}
	beat := opts.Beat
	if beat == nil {
		beat = func(states []State) {
			s := make([]string, len(states))
			for i, st := range states {
				s[i] = st.String()
			}
			log.Print("daemon", "info", "heartbeat ",
				strings.Join(s, " "))
		}
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				beat(d.States())
			}
		}
	}()
	d.cleanup.push(func() error {
		close(stop)
		<-done
		return nil
	})
}

func (d *Driver) device(name string) *Device {
	for _, dev := range d.devices {
		if dev.Name == name {
			return dev
		}
	}
	return nil
}

func (d *Driver) Config() nxgpio.Config          { return d.cfg }
func (d *Driver) Controller() *nxgpio.Controller { return d.ctrl }
func (d *Driver) Registry() *miscdev.Registry    { return d.reg }
func (d *Driver) Devices() []*Device             { return d.devices }
func (d *Driver) Device(name string) (*Device, bool) {
	dev := d.device(name)
	return dev, dev != nil
}

// States samples the function and level of every device.
func (d *Driver) States() []State {
	states := make([]State, len(d.devices))
	for i, dev := range d.devices {
		st := State{Name: dev.Name}
		st.Function, st.Err = dev.Line.Function()
		if st.Err == nil {
			st.Value, st.Err = dev.Line.Value()
		}
		states[i] = st
	}
	return states
}

// Close releases everything acquired by Probe, last acquired first.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cleanup.unwind()
}

// LoadConfig returns the built in configuration merged with the device
// tree. An empty dtb selects fdtgpio.File, which may be absent.
func LoadConfig(dtb string) (nxgpio.Config, error) {
	cfg := nxgpio.DefaultConfig()
	if dtb == "" {
		dtb = fdtgpio.File
		if _, err := os.Stat(dtb); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	}
	err := fdtgpio.Load(dtb, &cfg)
	return cfg, err
}
