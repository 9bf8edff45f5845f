// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package cmd defines the commands run by the goes dispatcher.
package cmd

import "github.com/platinasystems/nxgpio/lang"

type Cmd interface {
	Apropos() lang.Alt
	Main(...string) error
	// String returns the command name.
	String() string
	Usage() string
	/* Optional
	Close() error
	Kind() Kind
	Man() lang.Alt
	*/
}

type closer interface {
	Close() error
}

type manner interface {
	Man() lang.Alt
}

// Close the command if it has a Close method.
func Close(v Cmd) error {
	if m, found := v.(closer); found {
		return m.Close()
	}
	return nil
}

// Man returns the command's manual or its apropos.
func Man(v Cmd) lang.Alt {
	if m, found := v.(manner); found {
		return m.Man()
	}
	return v.Apropos()
}
