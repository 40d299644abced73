// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cmd holds the command framework of the holon tools.
package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/juju/ansiterm"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("holon.cmd")

// ErrSilent can be returned from Run to signal that Main should exit
// with code 1 without writing an error message.
const ErrSilent = errors.ConstError("cmd: error out silently")

// Info holds everything necessary to describe a Command's intent and usage.
type Info struct {
	// Name is the Command's name.
	Name string

	// Args describes the command's expected arguments.
	Args string

	// Purpose is a short explanation of the Command's purpose.
	Purpose string

	// Doc is the long documentation for the Command.
	Doc string
}

// Usage combines Name and Args to describe the Command's intended usage.
func (i *Info) Usage() string {
	if i.Args == "" {
		return i.Name
	}
	return fmt.Sprintf("%s %s", i.Name, i.Args)
}

// Command is implemented by the holon commands.
type Command interface {
	// Info returns information about the command.
	Info() *Info

	// SetFlags adds the command's options to f.
	SetFlags(f *gnuflag.FlagSet)

	// Init is called with the positional arguments once the flags
	// are parsed.
	Init(args []string) error

	// Run executes the command.
	Run(ctx *Context) error
}

// Context is the execution environment of a command.
type Context struct {
	context.Context

	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// AbsPath returns an absolute representation of path relative to the
// context directory.
func (ctx *Context) AbsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(ctx.Dir, path)
}

// NewFlagSet returns a FlagSet initialized for use with c.
func NewFlagSet(c Command) *gnuflag.FlagSet {
	f := gnuflag.NewFlagSet(c.Info().Name, gnuflag.ContinueOnError)
	f.SetOutput(io.Discard)
	c.SetFlags(f)
	return f
}

// PrintUsage writes usage information for c to w.
func PrintUsage(w io.Writer, c Command) {
	i := c.Info()
	fmt.Fprintf(w, "usage: %s\n", i.Usage())
	fmt.Fprintf(w, "purpose: %s\n", i.Purpose)
	f := NewFlagSet(c)
	f.SetOutput(w)
	fmt.Fprintf(w, "\noptions:\n")
	f.PrintDefaults()
	if i.Doc != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(i.Doc))
	}
}

// Parse parses args on c. This must be called before c is Run.
// Options may follow positional arguments unless c reports otherwise
// through an AllowInterspersedFlags method.
func Parse(c Command, args []string) error {
	intersperse := true
	if i, ok := c.(interface{ AllowInterspersedFlags() bool }); ok {
		intersperse = i.AllowInterspersedFlags()
	}
	f := NewFlagSet(c)
	if err := f.Parse(intersperse, args); err != nil {
		return err
	}
	return c.Init(f.Args())
}

// CheckEmpty returns an error if args is not empty.
func CheckEmpty(args []string) error {
	if len(args) != 0 {
		return errors.Errorf("unrecognized args: %q", args)
	}
	return nil
}

// WriteError writes err to w, flagged in red on terminals.
func WriteError(w io.Writer, err error) {
	aw := ansiterm.NewWriter(w)
	aw.SetForeground(ansiterm.BrightRed)
	fmt.Fprint(aw, "ERROR")
	aw.Reset()
	fmt.Fprintf(aw, " %s\n", err)
}

// Main parses args on c, runs it and returns the exit code: 0 on
// success, 1 when Run fails and 2 for bad arguments.
func Main(c Command, ctx *Context, args []string) int {
	if err := Parse(c, args); err == gnuflag.ErrHelp {
		PrintUsage(ctx.Stdout, c)
		return 0
	} else if err != nil {
		WriteError(ctx.Stderr, err)
		PrintUsage(ctx.Stderr, c)
		return 2
	}
	if err := c.Run(ctx); err != nil {
		if errors.Is(err, ErrSilent) {
			return 1
		}
		logger.Debugf("%s command failed: %s", c.Info().Name, errors.ErrorStack(err))
		WriteError(ctx.Stderr, err)
		return 1
	}
	return 0
}
