// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// The nxgpio program controls the GPIO pins of Nexell SoC boards.
//
//	nxgpio ngc set gpio_alv.2 1
//	nxgpio cli -sim
//	nxgpio nxgpiod -redis 127.0.0.1:6379
package main

import (
	"github.com/platinasystems/nxgpio/cmd/cli"
	"github.com/platinasystems/nxgpio/cmd/ngc"
	"github.com/platinasystems/nxgpio/cmd/nxgpiod"
	"github.com/platinasystems/nxgpio/goes"
)

// Goes returns the commands of the program.
func Goes() goes.ByName {
	g := make(goes.ByName)
	n := new(ngc.Command)
	g.Plot(n,
		&cli.Command{
			Exec:  n.Main,
			Words: []string{"set", "get", "toggle", "function", "info"},
		},
		new(nxgpiod.Command))
	return g
}

func main() {
	Goes().Main()
}
