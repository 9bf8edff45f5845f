// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package cli prompts for and runs the lines of another command.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/shlex"
	"github.com/mattn/go-isatty"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/liner"
	"github.com/platinasystems/nxgpio/lang"
)

const Name = "cli"

type Command struct {
	// Prompt defaults to "ngc> ".
	Prompt string
	// Exec runs the options given to Main followed by the fields of
	// each line.
	Exec func(args ...string) error
	// Words are completed at the start of a line.
	Words []string

	Stdin          io.Reader
	Stdout, Stderr io.Writer
}

type prompter interface {
	Prompt(string) (string, error)
	Close() error
}

func (*Command) String() string { return Name }

func (*Command) Usage() string {
	return Name + " [-no-liner] [OPTION]..."
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "interactive GPIO control",
		lang.KoKR: "대화형 GPIO 제어",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Prompt for ngc subcommands, e.g.

		ngc> set gpio_alv.2 1
		ngc> toggle gpioc.4 1

	Each OPTION is given to every subcommand so that "cli -sim" keeps
	the simulated registers for the whole session.

	Arguments may be quoted; text after '#' is ignored. Enter "exit",
	"quit" or end of file to leave.

	The line editor is used if stdin is a terminal unless -no-liner.`,
	}
}

func (c *Command) Main(args ...string) error {
	if c.Exec == nil {
		return errors.New("cli: nothing to run")
	}
	flag, opts := flags.New(args, "-no-liner")
	var p prompter
	if !flag.ByName["-no-liner"] && c.isTerminal() {
		p = c.liner()
	} else {
		p = &notliner{bufio.NewScanner(c.stdin()), c.stdout()}
	}
	defer p.Close()
	prompt := c.Prompt
	if len(prompt) == 0 {
		prompt = "ngc> "
	}
	for {
		line, err := p.Prompt(prompt)
		switch {
		case err == io.EOF:
			return nil
		case err == liner.ErrPromptAborted:
			continue
		case err != nil:
			return err
		}
		fields, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintln(c.stderr(), err)
			continue
		}
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "exit", "quit":
			return nil
		}
		err = c.Exec(append(append([]string{}, opts...), fields...)...)
		if err != nil {
			fmt.Fprintln(c.stderr(), err)
		}
	}
}

func (c *Command) stdin() io.Reader {
	if c.Stdin != nil {
		return c.Stdin
	}
	return os.Stdin
}

func (c *Command) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *Command) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

func (c *Command) isTerminal() bool {
	f, ok := c.stdin().(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func (c *Command) liner() prompter {
	l := &lineEditor{liner.NewLiner()}
	l.SetCtrlCAborts(true)
	l.SetCompleter(c.complete)
	return l
}

// complete returns the words prefixed by the first field of line.
func (c *Command) complete(line string) (lines []string) {
	if strings.ContainsAny(line, " \t") {
		return
	}
	for _, w := range append(c.Words, "exit", "quit") {
		if strings.HasPrefix(w, line) {
			lines = append(lines, w+" ")
		}
	}
	sort.Strings(lines)
	return
}

type lineEditor struct {
	*liner.State
}

func (l *lineEditor) Prompt(prompt string) (string, error) {
	line, err := l.State.Prompt(prompt)
	if err == nil && len(strings.TrimSpace(line)) > 0 {
		l.AppendHistory(line)
	}
	return line, err
}

// notliner reads lines from scripts and ttys unsupported by liner.
type notliner struct {
	scanner *bufio.Scanner
	w       io.Writer
}

func (p *notliner) Close() error { return nil }

func (p *notliner) Prompt(prompt string) (string, error) {
	if p.w != nil {
		fmt.Fprint(p.w, prompt)
	}
	if p.scanner.Scan() {
		return p.scanner.Text(), nil
	}
	err := p.scanner.Err()
	if err == nil {
		err = io.EOF
	}
	return "", err
}
