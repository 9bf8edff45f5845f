// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package nxgpiod serves the GPIO misc devices of a Nexell board and
// publishes their state to redis.
package nxgpiod

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/nxgpio"
	"github.com/platinasystems/nxgpio/cmd"
	"github.com/platinasystems/nxgpio/internal/driver"
	"github.com/platinasystems/nxgpio/internal/miscdev"
	"github.com/platinasystems/nxgpio/internal/pinpub"
	"github.com/platinasystems/nxgpio/lang"
	"github.com/platinasystems/nxgpio/nxsim"
	"github.com/platinasystems/parms"
)

const (
	Name          = "nxgpiod"
	DefaultRedis  = "127.0.0.1:6379"
	DefaultPeriod = time.Second
)

type Command struct {
	Init func()
	init sync.Once

	// Devices are added to those of the device tree.
	Devices []nxgpio.DeviceConfig
	// Serve exports the registry; default miscdev.Serve.
	Serve func(*miscdev.Registry) (io.Closer, error)
	// Publisher returns the redis publisher; default pinpub.New.
	Publisher func(addr, hash string) *pinpub.Publisher

	mu   sync.Mutex
	stop chan struct{}
}

func (*Command) String() string { return Name }

func (*Command) Usage() string {
	return Name + " [-sim] [-dtb FILE] [-redis ADDR] [-hash NAME] " +
		"[-period DURATION]"
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "Nexell GPIO daemon",
		lang.KoKR: "넥셀 GPIO 데몬",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Probe the GPIO banks and misc devices of the device tree, serve the
	devices on @nxgpio for "ngc -remote" and publish the fields
	NAME.value and NAME.direction of each device to a redis hash when
	they change.

OPTIONS
	-sim	use simulated registers instead of /dev/mem
	-dtb FILE
		device tree blob, default /boot/linux.dtb
	-redis ADDR
		redis server, default 127.0.0.1:6379
	-hash NAME
		redis hash, default nxgpio
	-period DURATION
		publication period, default 1s`,
	}
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func (c *Command) Main(args ...string) error {
	if c.Init != nil {
		c.init.Do(c.Init)
	}
	flag, args := flags.New(args, "-sim")
	parm, args := parms.New(args, "-dtb", "-redis", "-hash", "-period")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	period := DefaultPeriod
	if s := parm.ByName["-period"]; s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		if d <= 0 {
			return fmt.Errorf("-period %s: %w", s, nxgpio.ErrConfig)
		}
		period = d
	}
	addr := parm.ByName["-redis"]
	if addr == "" {
		addr = DefaultRedis
	}
	hash := parm.ByName["-hash"]
	if hash == "" {
		hash = pinpub.DefaultHash
	}

	cfg, err := driver.LoadConfig(parm.ByName["-dtb"])
	if err != nil {
		return err
	}
	cfg.Devices = append(cfg.Devices, c.Devices...)
	cfg.SortDevices()
	opts := driver.Options{Open: driver.DevMem}
	if flag.ByName["-sim"] {
		opts.Open = nxsim.Open
	}
	drv, err := driver.Probe(cfg, opts)
	if err != nil {
		return err
	}
	defer drv.Close()

	serve := c.Serve
	if serve == nil {
		serve = func(reg *miscdev.Registry) (io.Closer, error) {
			return miscdev.Serve(reg)
		}
	}
	srv, err := serve(drv.Registry())
	if err != nil {
		return err
	}
	defer srv.Close()

	newPublisher := c.Publisher
	if newPublisher == nil {
		newPublisher = pinpub.New
	}
	pub := newPublisher(addr, hash)
	defer pub.Close()

	stop := c.stopch()
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		publish(pub, drv.States())
		select {
		case <-stop:
			return nil
		case <-t.C:
		}
	}
}

// Close stops Main.
func (c *Command) Close() error {
	stop := c.stopch()
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-stop:
	default:
		close(stop)
	}
	return nil
}

func (c *Command) stopch() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		c.stop = make(chan struct{})
	}
	return c.stop
}

func publish(pub *pinpub.Publisher, states []driver.State) {
	for _, st := range states {
		if st.Err != nil {
			log.Print("daemon", "err", st)
			continue
		}
		v := 0
		if st.Value {
			v = 1
		}
		err := pub.Publish(st.Name+".value", v)
		if err == nil {
			err = pub.Publish(st.Name+".direction", st.Function)
		}
		if errors.Is(err, pinpub.ErrBackoff) {
			return
		}
		if err != nil {
			log.Print("daemon", "err", err)
			return
		}
	}
}
