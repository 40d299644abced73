// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/txtr/holon/version"
)

// SuperCommandParams provides a way to have default parameter to the
// NewSuperCommand call.
type SuperCommandParams struct {
	Name    string
	Purpose string
	Doc     string

	// SetFlags adds the options shared by every subcommand. They are
	// given before the subcommand name.
	SetFlags func(f *gnuflag.FlagSet)

	// NotifyRun is called with the subcommand name before it runs.
	NotifyRun func(name string)
}

// SuperCommand is a Command that selects a subcommand and assumes its
// properties.
type SuperCommand struct {
	params  SuperCommandParams
	subcmds map[string]Command
	subcmd  Command
}

var _ Command = (*SuperCommand)(nil)

// NewSuperCommand creates and initializes a new SuperCommand, with a
// "help" subcommand registered.
func NewSuperCommand(params SuperCommandParams) *SuperCommand {
	if params.NotifyRun == nil {
		params.NotifyRun = runNotifier
	}
	c := &SuperCommand{params: params, subcmds: make(map[string]Command)}
	c.Register(&helpCommand{super: c})
	return c
}

func runNotifier(name string) {
	logger.Infof("running %s [%s %s %s]", name, version.Current, runtime.Compiler, runtime.Version())
}

// Register makes a subcommand available for use on the command line.
func (c *SuperCommand) Register(subcmd Command) {
	name := subcmd.Info().Name
	if _, found := c.subcmds[name]; found {
		panic(fmt.Sprintf("command already registered: %q", name))
	}
	c.subcmds[name] = subcmd
}

// Info implements Command.
func (c *SuperCommand) Info() *Info {
	names := make([]string, 0, len(c.subcmds))
	width := 0
	for name := range c.subcmds {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)
	lines := []string{strings.TrimSpace(c.params.Doc), "", "commands:"}
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("    %-*s - %s", width, name, c.subcmds[name].Info().Purpose))
	}
	return &Info{
		Name:    c.params.Name,
		Args:    "<command> ...",
		Purpose: c.params.Purpose,
		Doc:     strings.TrimSpace(strings.Join(lines, "\n")),
	}
}

// AllowInterspersedFlags stops the parsing of the shared options at
// the subcommand name.
func (c *SuperCommand) AllowInterspersedFlags() bool {
	return false
}

// SetFlags implements Command.
func (c *SuperCommand) SetFlags(f *gnuflag.FlagSet) {
	if c.params.SetFlags != nil {
		c.params.SetFlags(f)
	}
}

// Init selects the subcommand named by the first argument and parses
// the rest of the arguments on it.
func (c *SuperCommand) Init(args []string) error {
	if len(args) == 0 {
		c.subcmd = c.subcmds["help"]
		return nil
	}
	subcmd, found := c.subcmds[args[0]]
	if !found {
		return errors.Errorf("unrecognized command: %s %s", c.params.Name, args[0])
	}
	if err := Parse(subcmd, args[1:]); err != nil {
		if err == gnuflag.ErrHelp {
			c.subcmd = &helpCommand{super: c, topic: args[0]}
			return nil
		}
		return errors.Annotatef(err, "%s", args[0])
	}
	c.subcmd = subcmd
	return nil
}

// Run executes the subcommand chosen by Init.
func (c *SuperCommand) Run(ctx *Context) error {
	if c.subcmd == nil {
		return errors.New("no subcommand selected")
	}
	c.params.NotifyRun(c.subcmd.Info().Name)
	return c.subcmd.Run(ctx)
}

type helpCommand struct {
	super *SuperCommand
	topic string
}

func (c *helpCommand) Info() *Info {
	return &Info{
		Name:    "help",
		Args:    "[command]",
		Purpose: "Show help on a command or other topic.",
	}
}

func (c *helpCommand) SetFlags(f *gnuflag.FlagSet) {}

func (c *helpCommand) Init(args []string) error {
	switch len(args) {
	case 0:
	case 1:
		c.topic = args[0]
	default:
		return CheckEmpty(args[1:])
	}
	return nil
}

func (c *helpCommand) Run(ctx *Context) error {
	if c.topic == "" {
		PrintUsage(ctx.Stdout, c.super)
		return nil
	}
	subcmd, found := c.super.subcmds[c.topic]
	if !found {
		return errors.NotFoundf("help topic %q", c.topic)
	}
	PrintUsage(ctx.Stdout, subcmd)
	return nil
}
