// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package nxgpiod

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/garyburd/redigo/redis"
	"github.com/platinasystems/nxgpio"
	"github.com/platinasystems/nxgpio/internal/fdtgpio"
	"github.com/platinasystems/nxgpio/internal/miscdev"
	"github.com/platinasystems/nxgpio/internal/pinpub"
	"github.com/platinasystems/nxgpio/internal/test"
)

func init() {
	fdtgpio.File = filepath.Join(os.TempDir(), "nxgpiod-test-missing.dtb")
}

// conn sends each command to a channel.
type conn chan string

func (c conn) Close() error { return nil }
func (c conn) Err() error   { return nil }
func (c conn) Do(cmd string, args ...interface{}) (interface{}, error) {
	c <- fmt.Sprint(append([]interface{}{cmd}, args...))
	return int64(1), nil
}
func (c conn) Send(string, ...interface{}) error { return nil }
func (c conn) Flush() error                      { return nil }
func (c conn) Receive() (interface{}, error)     { return nil, nil }

type closer struct{ closed chan struct{} }

func (c closer) Close() error { close(c.closed); return nil }

func TestMain(t *testing.T) {
	assert := test.Assert{TB: t}
	cmds := make(conn, 64)
	served := closer{make(chan struct{})}
	var names []string
	var redisAddr string
	c := &Command{
		Devices: []nxgpio.DeviceConfig{
			{Name: "led", Pin: "gpiob.3"},
			{Name: "button", Pin: "gpio_alv.2"},
		},
		Serve: func(reg *miscdev.Registry) (io.Closer, error) {
			names = reg.Names()
			return served, nil
		},
		Publisher: func(addr, hash string) *pinpub.Publisher {
			redisAddr = addr
			return pinpub.NewDialer(hash, func() (redis.Conn, error) {
				return cmds, nil
			})
		},
	}
	done := make(chan error, 1)
	go func() {
		done <- c.Main("-sim", "-period", "10ms", "-hash", "h")
	}()
	for _, expect := range []string{
		"[HSET h button.value 0]",
		"[HSET h button.direction input]",
		"[HSET h led.value 0]",
		"[HSET h led.direction input]",
	} {
		select {
		case s := <-cmds:
			assert.Equal(s, expect)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for", expect)
		}
	}
	assert.Nil(c.Close())
	assert.Nil(c.Close())
	select {
	case err := <-done:
		assert.Nil(err)
	case <-time.After(5 * time.Second):
		t.Fatal("Main didn't stop")
	}
	<-served.closed
	assert.Equal(names, "[button led]")
	assert.Equal(redisAddr, DefaultRedis)
	select {
	case s := <-cmds:
		t.Fatal("unchanged state published:", s)
	default:
	}
}

func TestArgs(t *testing.T) {
	assert := test.Assert{TB: t}
	c := new(Command)
	assert.Error(c.Main("-sim", "now"), "[now]: unexpected")
	assert.Error(c.Main("-sim", "-period", "0s"), nxgpio.ErrConfig)
	assert.Error(c.Main("-sim", "-period", "soon"),
		`time: invalid duration "soon"`)
	c.Devices = []nxgpio.DeviceConfig{{Name: "x", Pin: "gpio_alv.9"}}
	assert.Error(c.Main("-sim"), nxgpio.ErrInvalidPin)
	c.Devices = []nxgpio.DeviceConfig{{Name: "x", Pin: "gpio_alv.1"},
		{Name: "x", Pin: "gpio_alv.2"}}
	assert.Error(c.Main("-sim"), nxgpio.ErrConfig)
}

func TestKind(t *testing.T) {
	test.Assert{TB: t}.Equal((*Command)(nil).Kind(), "daemon")
}
