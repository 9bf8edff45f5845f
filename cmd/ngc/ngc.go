// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package ngc controls Nexell GPIO pins on the fly.
package ngc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/nxgpio"
	"github.com/platinasystems/nxgpio/internal/driver"
	"github.com/platinasystems/nxgpio/internal/miscdev"
	"github.com/platinasystems/nxgpio/lang"
	"github.com/platinasystems/nxgpio/nxsim"
	"github.com/platinasystems/parms"
)

const Name = "ngc"

// Iterations of the toggle subcommand.
const Iterations = 5

var ErrArgs = errors.New("args error")

var sleep = time.Sleep

type Command struct {
	Init func()
	init sync.Once

	// Stdout defaults to os.Stdout.
	Stdout io.Writer

	mu    sync.Mutex
	key   string
	conn  miscdev.Conn
	close func() error
}

func (*Command) String() string { return Name }

func (*Command) Usage() string {
	return Name + ` [-sim] [-remote] [-v] [-dtb FILE] [-variant NAME]
	[-input FIELD] [-kinds FIELD=KIND[,...]] SUBCOMMAND

	set PIN VALUE
	get PIN
	toggle PIN SECONDS
	function PIN
	info [PIN]...`
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "control Nexell GPIO pins",
		lang.KoKR: "넥셀 GPIO 핀 제어",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Control the GPIO and ALIVE GPIO pins of a Nexell SoC through their
	memory mapped registers.

	PIN is a global number (bank * 32 + bit, ALIVE pins begin at 160),
	BANK.BIT (e.g. gpio_alv.2, alv:2, gpioc.4) or the name of a device
	from the device tree.

SUBCOMMANDS
	set PIN VALUE
		Drive PIN as an output at VALUE, 0 low, anything else high.

	get PIN
		Put PIN in input mode and read its pad.

	toggle PIN SECONDS
		Five times: drive PIN with the inverse of the last level read,
		wait SECONDS, switch to input and read the pad.

	function PIN
		Print input or output.

	info [PIN]...
		List devices or the given pins with their pad function,
		direction and level.

OPTIONS
	-sim	use simulated registers instead of /dev/mem
	-remote	use the devices served by nxgpiod
	-v	print "write value : N" and "read value : N", the default
		on a terminal; otherwise print N
	-dtb FILE
		device tree blob, default /boot/linux.dtb
	-variant legacy|extended
		ALIVE pin count of the SoC, 6 or 15
	-input pad|pad_read
		ALIVE pad level register
	-kinds FIELD=KIND[,...]
		override ALIVE register kinds, rmw, w1s, w1c or ro`,
	}
}

func (c *Command) Main(args ...string) error {
	if c.Init != nil {
		c.init.Do(c.Init)
	}
	flag, args := flags.New(args, "-sim", "-remote", "-v")
	parm, args := parms.New(args, "-dtb", "-variant", "-input", "-kinds")
	if len(args) == 0 {
		return fmt.Errorf("%w, expected SUBCOMMAND", ErrArgs)
	}
	conn, err := c.connect(flag, parm)
	if err != nil {
		return err
	}
	s := &session{
		conn:    conn,
		w:       c.stdout(),
		verbose: flag.ByName["-v"] || c.isTerminal(),
	}
	switch args[0] {
	case "set":
		if len(args) != 3 {
			return usage("set PIN VALUE")
		}
		return s.set(args[1], args[2])
	case "get":
		if len(args) != 2 {
			return usage("get PIN")
		}
		return s.get(args[1])
	case "toggle":
		if len(args) != 3 {
			return usage("toggle PIN SECONDS")
		}
		return s.toggle(args[1], args[2])
	case "function":
		if len(args) != 2 {
			return usage("function PIN")
		}
		return s.function(args[1])
	case "info":
		return s.info(args[1:]...)
	}
	return fmt.Errorf("%s: unknown subcommand", args[0])
}

func usage(s string) error {
	return fmt.Errorf("%w, usage: %s %s", ErrArgs, Name, s)
}

func (c *Command) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *Command) isTerminal() bool {
	f, ok := c.stdout().(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// connect returns the device surface for the options, reusing the last
// one while the options don't change.
func (c *Command) connect(flag *flags.Flags, parm *parms.Parms) (
	miscdev.Conn, error) {
	key := fmt.Sprint(flag.ByName["-sim"], flag.ByName["-remote"],
		parm.ByName)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && key == c.key {
		return c.conn, nil
	}
	c.release()
	if flag.ByName["-remote"] {
		client, err := miscdev.Dial()
		if err != nil {
			return nil, err
		}
		c.key, c.conn, c.close = key, client, client.Close
		return client, nil
	}
	cfg, err := config(parm)
	if err != nil {
		return nil, err
	}
	open := driver.DevMem
	if flag.ByName["-sim"] {
		open = nxsim.Open
	}
	ctrl, closer, err := driver.Map(cfg, open)
	if err != nil {
		return nil, err
	}
	reg := miscdev.NewRegistry()
	for _, dc := range cfg.Devices {
		l, err := ctrl.Line(dc.Pin)
		if err == nil {
			err = reg.Register(&miscdev.Device{
				Name:    dc.Name,
				Pin:     l,
				PadFunc: dc.PadFunc,
			})
		}
		if err != nil {
			closer()
			return nil, fmt.Errorf("%s: %w", dc.Name, err)
		}
	}
	reg.SetResolver(func(name string) (miscdev.Pin, error) {
		return ctrl.Line(name)
	})
	c.key, c.conn, c.close = key, reg, closer
	return reg, nil
}

func config(parm *parms.Parms) (nxgpio.Config, error) {
	cfg, err := driver.LoadConfig(parm.ByName["-dtb"])
	if err != nil {
		return cfg, err
	}
	if s := parm.ByName["-variant"]; s != "" {
		if cfg.Variant, err = nxgpio.ParseVariant(s); err != nil {
			return cfg, err
		}
	}
	if s := parm.ByName["-input"]; s != "" {
		cfg.Input = s
	}
	if s := parm.ByName["-kinds"]; s != "" {
		if cfg.Kinds, err = nxgpio.ParseKinds(s); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (c *Command) release() error {
	var err error
	if c.close != nil {
		err = c.close()
	}
	c.key, c.conn, c.close = "", nil, nil
	return err
}

// Close releases the registers or connection of the last Main.
func (c *Command) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.release()
}

type session struct {
	conn    miscdev.Conn
	w       io.Writer
	verbose bool
}

func (s *session) print(what string, v byte) {
	if s.verbose {
		fmt.Fprintf(s.w, "%s value : %d\n", what, v)
	} else {
		fmt.Fprintln(s.w, v)
	}
}

func (s *session) write(pin string, v byte) error {
	if err := s.conn.Ioctl(pin, miscdev.DirectionOut, uint(v)); err != nil {
		return err
	}
	if _, err := s.conn.Write(pin, []byte{v}); err != nil {
		return err
	}
	s.print("write", v)
	return nil
}

func (s *session) read(pin string) (byte, error) {
	if err := s.conn.Ioctl(pin, miscdev.DirectionIn, 0); err != nil {
		return 0, err
	}
	v, err := s.conn.Read(pin)
	if err != nil {
		return 0, err
	}
	s.print("read", v)
	return v, nil
}

func (s *session) set(pin, value string) error {
	i, err := strconv.ParseInt(value, 0, 0)
	if err != nil {
		return fmt.Errorf("%s: %w", value, err)
	}
	var v byte
	if i != 0 {
		v = 1
	}
	return s.write(pin, v)
}

func (s *session) get(pin string) error {
	_, err := s.read(pin)
	return err
}

func (s *session) toggle(pin, seconds string) error {
	sec, err := strconv.ParseUint(seconds, 0, 0)
	if err != nil {
		return fmt.Errorf("%s: %w", seconds, err)
	}
	var v byte
	for i := 1; i <= Iterations; i++ {
		v ^= 1
		if err = s.write(pin, v); err != nil {
			return err
		}
		sleep(time.Duration(sec) * time.Second)
		if v, err = s.read(pin); err != nil {
			return err
		}
		fmt.Fprintf(s.w, "---------%ds--------\n", i)
	}
	return nil
}

func (s *session) function(pin string) error {
	info, err := s.conn.Info(pin)
	if err != nil {
		return err
	}
	fn := nxgpio.Input
	if info.Output {
		fn = nxgpio.Output
	}
	fmt.Fprintln(s.w, fn)
	return nil
}

func (s *session) info(pins ...string) error {
	if len(pins) == 0 {
		names, err := s.conn.List()
		if err != nil {
			return err
		}
		pins = names
	}
	for _, pin := range pins {
		info, err := s.conn.Info(pin)
		if err != nil {
			return err
		}
		fn := nxgpio.Input
		if info.Output {
			fn = nxgpio.Output
		}
		v := 0
		if info.Value {
			v = 1
		}
		fmt.Fprintf(s.w, "%-12s %-12s %-6s %d", info.Name, info.Pin,
			fn, v)
		if info.PadFunc != 0 {
			fmt.Fprint(s.w, " pad_func=", info.PadFunc)
		}
		fmt.Fprintln(s.w)
	}
	return nil
}
