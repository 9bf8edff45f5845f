// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package miscdev exports single GPIO pins as character-device-like
// objects: a read returns the pad level as one byte, a write latches the
// level of its first byte and an ioctl sets the direction.
package miscdev

import (
	"fmt"
	"sort"
	"sync"
	"syscall"

	"github.com/platinasystems/log"
	"github.com/platinasystems/nxgpio"
)

// Ioctl requests; the argument of DirectionOut is the initial level.
const (
	DirectionIn  uint = 0
	DirectionOut uint = 1
)

// Pin is the line a device exports; nxgpio.Line is one.
type Pin interface {
	DirectionInput() error
	DirectionOutput(v bool) error
	Value() (bool, error)
	SetValue(v bool) error
	Function() (nxgpio.Function, error)
}

type Device struct {
	Name    string
	Pin     Pin
	PadFunc uint

	mu    sync.Mutex
	opens int
}

func (d *Device) String() string { return d.Name }

func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	log.Print("daemon", "info", d.Name, ": open")
	return nil
}

func (d *Device) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opens == 0 {
		return fmt.Errorf("%s: release: %w", d.Name, syscall.EBADF)
	}
	d.opens--
	log.Print("daemon", "info", d.Name, ": release")
	return nil
}

// Read returns the pad level in p[0], 0 or 1.
func (d *Device) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	v, err := d.Pin.Value()
	if err != nil {
		return 0, fmt.Errorf("%s: read: %w", d.Name, err)
	}
	p[0] = 0
	if v {
		p[0] = 1
	}
	return 1, nil
}

// Write latches low if p[0] is 0, else high, and consumes all of p.
func (d *Device) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := d.Pin.SetValue(p[0] != 0); err != nil {
		return 0, fmt.Errorf("%s: write: %w", d.Name, err)
	}
	return len(p), nil
}

func (d *Device) Ioctl(request, arg uint) error {
	var err error
	switch request {
	case DirectionIn:
		err = d.Pin.DirectionInput()
	case DirectionOut:
		err = d.Pin.DirectionOutput(arg != 0)
	default:
		err = syscall.EINVAL
	}
	if err != nil {
		return fmt.Errorf("%s: ioctl %d: %w", d.Name, request, err)
	}
	return nil
}

// Info describes a device and its pin state.
type Info struct {
	Name    string
	Pin     string
	PadFunc uint
	Output  bool
	Value   bool
	Opens   int
}

func (d *Device) Info() (Info, error) {
	info := Info{Name: d.Name, Pin: fmt.Sprint(d.Pin), PadFunc: d.PadFunc}
	d.mu.Lock()
	info.Opens = d.opens
	d.mu.Unlock()
	fn, err := d.Pin.Function()
	if err != nil {
		return info, fmt.Errorf("%s: %w", d.Name, err)
	}
	info.Output = fn == nxgpio.Output
	if info.Value, err = d.Pin.Value(); err != nil {
		return info, fmt.Errorf("%s: %w", d.Name, err)
	}
	return info, nil
}

// Conn is the device surface seen by a user, either a local Registry or
// a remote Client.
type Conn interface {
	Read(name string) (byte, error)
	Write(name string, p []byte) (int, error)
	Ioctl(name string, request, arg uint) error
	Info(name string) (Info, error)
	List() ([]string, error)
}

// Registry holds devices by name.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
	resolve func(name string) (Pin, error)
}

var _ Conn = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]*Device)}
}

// SetResolver exports unregistered names as new devices on lookup; nil
// stops that.
func (r *Registry) SetResolver(resolve func(name string) (Pin, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolve = resolve
}

func (r *Registry) Register(d *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.devices[d.Name]; found {
		return fmt.Errorf("%s: %w", d.Name, syscall.EEXIST)
	}
	r.devices[d.Name] = d
	return nil
}

func (r *Registry) Deregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.devices[name]; !found {
		return fmt.Errorf("%s: %w", name, syscall.ENODEV)
	}
	delete(r.devices, name)
	return nil
}

func (r *Registry) Lookup(name string) (*Device, error) {
	r.mu.RLock()
	d, found := r.devices[name]
	resolve := r.resolve
	r.mu.RUnlock()
	if found {
		return d, nil
	}
	if resolve == nil {
		return nil, fmt.Errorf("%s: %w", name, syscall.ENODEV)
	}
	pin, err := resolve(name)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, found = r.devices[name]; !found {
		d = &Device{Name: name, Pin: pin}
		r.devices[name] = d
	}
	return d, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.devices))
	for name := range r.devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Read(name string) (byte, error) {
	d, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}
	b := make([]byte, 1)
	_, err = d.Read(b)
	return b[0], err
}

func (r *Registry) Write(name string, p []byte) (int, error) {
	d, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}
	return d.Write(p)
}

func (r *Registry) Ioctl(name string, request, arg uint) error {
	d, err := r.Lookup(name)
	if err != nil {
		return err
	}
	return d.Ioctl(request, arg)
}

func (r *Registry) Info(name string) (Info, error) {
	d, err := r.Lookup(name)
	if err != nil {
		return Info{}, err
	}
	return d.Info()
}

func (r *Registry) List() ([]string, error) { return r.Names(), nil }
