// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package logging sets up the holon loggers.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/lumberjack/v2"
)

// FileWriterName is the name of the loggo writer to the log file.
const FileWriterName = "holon-file"

// Defaults for the rotation of the log file.
const (
	DefaultMaxSizeMB  = 300
	DefaultMaxBackups = 2
)

// Config describes the logging of a holon process.
type Config struct {
	// Spec is a loggo configuration string such as
	// "<root>=WARNING;holon.api=DEBUG".
	Spec string

	// File, when set, receives the log output in addition to stderr
	// and is rotated once it grows past MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

type closer func() error

func (c closer) Close() error { return c() }

// Configure applies config to the loggo loggers. The returned closer
// removes the file writer and closes the log file.
func Configure(config Config) (io.Closer, error) {
	if config.Spec != "" {
		if err := loggo.ConfigureLoggers(config.Spec); err != nil {
			return nil, errors.Annotatef(err, "logging config %q", config.Spec)
		}
	}
	if config.File == "" {
		return closer(func() error { return nil }), nil
	}

	if err := os.MkdirAll(filepath.Dir(config.File), 0755); err != nil {
		return nil, errors.Annotate(err, "creating log directory")
	}
	if config.MaxSizeMB == 0 {
		config.MaxSizeMB = DefaultMaxSizeMB
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = DefaultMaxBackups
	}
	writer := &lumberjack.Logger{
		Filename:   config.File,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		Compress:   true,
	}
	if err := loggo.RegisterWriter(FileWriterName, loggo.NewSimpleWriter(writer, loggo.DefaultFormatter)); err != nil {
		_ = writer.Close()
		return nil, errors.Annotate(err, "registering log file writer")
	}
	return closer(func() error {
		_, _ = loggo.RemoveWriter(FileWriterName)
		return errors.Trace(writer.Close())
	}), nil
}
