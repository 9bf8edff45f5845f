// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package goes dispatches the commands of a multi-call program.
package goes

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/nxgpio/cmd"
)

var (
	Exit = os.Exit

	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

type ByName map[string]cmd.Cmd

// Plot commands on map.
func (byName ByName) Plot(cmds ...cmd.Cmd) {
	for _, v := range cmds {
		name := v.String()
		if _, found := byName[name]; found {
			panic(fmt.Errorf("%s: duplicate", name))
		}
		byName[name] = v
	}
}

func (byName ByName) Names() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Main runs the args[0] command, or if that isn't a command, args[1] as
// invoked through the program name. Without args, this uses os.Args and
// exits 1 after printing "PROG: ERROR" instead of returning the error.
//
// With "-h", "-help" or "--help" this prints the command's usage and
// apropos; similarly "-usage", "-apropos" and "-man" print the respective
// text.
//
// A daemon is closed on SIGTERM or SIGINT and its error is logged.
func (byName ByName) Main(args ...string) (err error) {
	if len(args) == 0 {
		args = append([]string{}, os.Args...)
		if len(args) == 0 {
			return
		}
		prog := filepath.Base(args[0])
		defer func() {
			if err != nil && err != io.EOF {
				fmt.Fprintf(Stderr, "%s: %v\n", prog, err)
				Exit(1)
			}
		}()
	}
	if _, found := byName[filepath.Base(args[0])]; found {
		args[0] = filepath.Base(args[0])
	} else {
		args = args[1:]
	}
	if len(args) == 0 {
		return byName.help()
	}
	name := args[0]
	v, found := byName[name]
	if !found {
		if name == "help" {
			return byName.help(args[1:]...)
		}
		return fmt.Errorf("%s: command not found", name)
	}
	args = args[1:]
	flag, args := flags.New(args,
		[]string{"-h", "-help", "--help"},
		[]string{"-apropos", "--apropos"},
		[]string{"-man", "--man"},
		[]string{"-usage", "--usage"})
	switch {
	case flag.ByName["-h"]:
		fmt.Fprintf(Stdout, "usage:\t%s\n\n%s\n", v.Usage(), v.Apropos())
		return nil
	case flag.ByName["-apropos"]:
		fmt.Fprintln(Stdout, v.Apropos())
		return nil
	case flag.ByName["-man"]:
		fmt.Fprintln(Stdout, strings.TrimLeft(cmd.Man(v).String(), "\n"))
		return nil
	case flag.ByName["-usage"]:
		fmt.Fprintln(Stdout, "usage:\t"+v.Usage())
		return nil
	}
	if !cmd.WhatKind(v).IsDaemon() {
		defer func() {
			if xerr := cmd.Close(v); err == nil {
				err = xerr
			}
		}()
		return v.Main(args...)
	}
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGTERM, os.Interrupt)
	defer signal.Stop(sigch)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case sig := <-sigch:
			log.Print("daemon", "info", name, ": ", sig)
			cmd.Close(v)
		case <-done:
		}
	}()
	log.Print("daemon", "info", name, ": start")
	if err = v.Main(args...); err != nil {
		log.Print("daemon", "err", name, ": ", err)
	} else {
		log.Print("daemon", "info", name, ": stop")
	}
	return
}

func (byName ByName) help(args ...string) error {
	if len(args) > 0 {
		v, found := byName[args[0]]
		if !found {
			return fmt.Errorf("%s: command not found", args[0])
		}
		fmt.Fprintf(Stdout, "usage:\t%s\n\n%s\n", v.Usage(), v.Apropos())
		return nil
	}
	for _, name := range byName.Names() {
		v := byName[name]
		if cmd.WhatKind(v).IsHidden() {
			continue
		}
		fmt.Fprintf(Stdout, "%-12s %s\n", name, v.Apropos())
	}
	return nil
}
