// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"bytes"
	"context"
	"io"
	"strings"

	gc "gopkg.in/check.v1"

	"github.com/txtr/holon/cmd"
)

// Context returns a command context with buffered output, running in
// a fresh directory.
func Context(c *gc.C) *cmd.Context {
	return &cmd.Context{
		Context: context.Background(),
		Dir:     c.MkDir(),
		Stdin:   &bytes.Buffer{},
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
	}
}

// ContextWithStdin is like Context with the given standard input.
func ContextWithStdin(c *gc.C, stdin string) *cmd.Context {
	ctx := Context(c)
	ctx.Stdin = strings.NewReader(stdin)
	return ctx
}

// Stdout returns the standard output of a context made by Context.
func Stdout(ctx *cmd.Context) string {
	return bufferString(ctx.Stdout)
}

// Stderr returns the standard error of a context made by Context.
func Stderr(ctx *cmd.Context) string {
	return bufferString(ctx.Stderr)
}

func bufferString(stream io.Writer) string {
	return stream.(*bytes.Buffer).String()
}

// RunCommand parses args on com and runs it in a new context, which is
// returned along with the first error met.
func RunCommand(c *gc.C, com cmd.Command, args ...string) (*cmd.Context, error) {
	ctx := Context(c)
	if err := cmd.Parse(com, args); err != nil {
		return ctx, err
	}
	return ctx, com.Run(ctx)
}

// RunMain runs com as the process entry point would and returns the
// context along with the exit code.
func RunMain(c *gc.C, com cmd.Command, args ...string) (*cmd.Context, int) {
	ctx := Context(c)
	return ctx, cmd.Main(com, ctx, args)
}
