// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/txtr/holon/cmd"
	"github.com/txtr/holon/config"
	"github.com/txtr/holon/version"
)

type versionCommand struct {
	*globals

	remote bool
}

func (c *versionCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "version",
		Purpose: "Print the holon version, and optionally the reaktor's.",
	}
}

func (c *versionCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.remote, "remote", false, "Also ask the reaktor for its version")
}

func (c *versionCommand) Init(args []string) error {
	return cmd.CheckEmpty(args)
}

func (c *versionCommand) Run(ctx *cmd.Context) error {
	fmt.Fprintf(ctx.Stdout, "holon %s\n", version.Current)
	if !c.remote {
		return nil
	}
	r, closer, err := c.setUp(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer closer.Close()
	conn, err := config.Open(r)
	if err != nil {
		return errors.Trace(err)
	}
	defer conn.Close()
	remote, err := conn.Client.RemoteVersion(ctx)
	if err != nil {
		return errors.Annotate(err, "reading reaktor version")
	}
	fmt.Fprintf(ctx.Stdout, "reaktor %s %s\n", r.Name, remote)
	return nil
}
