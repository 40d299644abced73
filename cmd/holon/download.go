// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/txtr/holon/cmd"
	"github.com/txtr/holon/downloader"
)

const downloadDoc = `
Downloads a document deliverable. The file is saved under the name
suggested by the reaktor unless --output is given.
`

type downloadCommand struct {
	*globals

	documentID string
	token      string
	output     string
	drm        bool
	preview    string
	version    int
	quiet      bool
	limitRate  string
	bytesPerS  int64
}

func (c *downloadCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "download",
		Args:    "<document id>",
		Purpose: "Download a document.",
		Doc:     downloadDoc,
	}
}

func (c *downloadCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.token, "token", "", "Session token")
	f.StringVar(&c.output, "o", "", "Path of the downloaded file")
	f.StringVar(&c.output, "output", "", "")
	f.BoolVar(&c.drm, "drm", false, "Fetch the ADEPT DRM fulfillment token")
	f.StringVar(&c.preview, "preview", "", "Fetch the preview in this format")
	f.IntVar(&c.version, "version", 0, "Document version (default latest)")
	f.StringVar(&c.limitRate, "limit-rate", "", "Limit the transfer rate, e.g. 500KB (per second)")
	f.BoolVar(&c.quiet, "q", false, "Do not show progress")
	f.BoolVar(&c.quiet, "quiet", false, "")
}

func (c *downloadCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no document id specified")
	}
	c.documentID = args[0]
	if c.token == "" {
		return errors.New("--token is required")
	}
	if c.limitRate != "" {
		n, err := humanize.ParseBytes(c.limitRate)
		if err != nil {
			return errors.NotValidf("--limit-rate %q", c.limitRate)
		}
		c.bytesPerS = int64(n)
	}
	return cmd.CheckEmpty(args[1:])
}

func (c *downloadCommand) Run(ctx *cmd.Context) error {
	r, closer, err := c.setUp(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer closer.Close()
	dl, err := downloader.New(r.Transport())
	if err != nil {
		return errors.Trace(err)
	}

	path := c.output
	if path == "" {
		path = c.documentID + ".download"
	}
	path = ctx.AbsPath(path)
	req := downloader.Request{
		Token:      c.token,
		DocumentID: c.documentID,
		Path:       path,
		Preview:    c.preview,
		Version:    c.version,

		BytesPerSecond: c.bytesPerS,
	}
	if c.drm {
		req.AccessType = downloader.AccessADEPTDRM
	}
	if !c.quiet {
		req.Progress = func(ratio float64) bool {
			fmt.Fprintf(ctx.Stderr, "\r%3.0f%%", ratio*100)
			return ctx.Err() != nil
		}
	}
	name, err := dl.Download(ctx, req)
	if !c.quiet {
		fmt.Fprintln(ctx.Stderr)
	}
	if err != nil {
		return errors.Trace(err)
	}
	if c.output == "" && name != "" {
		target := ctx.AbsPath(filepath.Base(name))
		if err := os.Rename(path, target); err != nil {
			return errors.Trace(err)
		}
		path = target
	}
	fmt.Fprintln(ctx.Stdout, path)
	return nil
}
