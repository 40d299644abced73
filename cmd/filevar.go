// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"io"
	"os"

	"github.com/juju/errors"
)

// FileVar represents a path to a file. The path "-" reads stdin.
type FileVar struct {
	Path string
}

// Set stores the path.
func (f *FileVar) Set(v string) error {
	f.Path = v
	return nil
}

// Read returns the content of the file relative to the context.
func (f *FileVar) Read(ctx *Context) ([]byte, error) {
	if f.Path == "" {
		return nil, errors.NotValidf("empty path")
	}
	if f.Path == "-" {
		data, err := io.ReadAll(ctx.Stdin)
		return data, errors.Trace(err)
	}
	data, err := os.ReadFile(ctx.AbsPath(f.Path))
	return data, errors.Trace(err)
}

// String returns the path to the file.
func (f *FileVar) String() string {
	return f.Path
}
