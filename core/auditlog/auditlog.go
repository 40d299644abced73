// Copyright 2017 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package auditlog persists the call history of reaktor clients.
package auditlog

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/lumberjack/v2"
	"gopkg.in/yaml.v3"
)

var logger = loggo.GetLogger("holon.core.auditlog")

// Entry records one call made to a reaktor.
type Entry struct {
	When   string `yaml:"when"` // ISO 8601 to millisecond precision
	Method string `yaml:"method"`
	URL    string `yaml:"url"`

	// Status is the HTTP status, or -1 when no response was received.
	Status int `yaml:"status"`

	// DurationMS is the time taken, or -1 when no response was
	// received.
	DurationMS int64 `yaml:"duration-ms"`
}

// NewEntry returns the entry for a call answered with status after
// took. A negative took means no response was received.
func NewEntry(when time.Time, method, url string, status int, took time.Duration) Entry {
	ms := int64(-1)
	if took >= 0 {
		ms = took.Milliseconds()
	}
	return Entry{
		When:       when.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Method:     method,
		URL:        url,
		Status:     status,
		DurationMS: ms,
	}
}

// AuditLog represents something that can store history entries
// somewhere.
type AuditLog interface {
	AddEntry(e Entry) error
}

// LogFile is an AuditLog writing YAML documents to a rotated file.
type LogFile struct {
	mu         sync.Mutex
	fileLogger io.WriteCloser
}

// FileName is the name of the history file within the log directory.
const FileName = "reaktor-history.yaml"

// NewLogFile returns an audit log writing to the history file in the
// specified directory.
func NewLogFile(logDir string) *LogFile {
	logPath := filepath.Join(logDir, FileName)
	if err := primeLogFile(logPath); err != nil {
		// This isn't a fatal error so log and continue if priming
		// fails.
		logger.Errorf("Unable to prime %s (proceeding anyway): %v", logPath, err)
	}
	return &LogFile{
		fileLogger: &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    100, // MB
			MaxBackups: 5,
			Compress:   true,
		},
	}
}

// AddEntry implements AuditLog.
func (a *LogFile) AddEntry(e Entry) error {
	return errors.Trace(a.addRecord(e))
}

// Close closes the underlying file.
func (a *LogFile) Close() error {
	return errors.Trace(a.fileLogger.Close())
}

const documentStart = "---\n"

func (a *LogFile) addRecord(e Entry) error {
	bytes, err := yaml.Marshal(e)
	if err != nil {
		return errors.Trace(err)
	}
	// Combining the start and document together in one write to
	// prevent lumberjack from rolling the file between them.
	withStart := make([]byte, 0, len(documentStart)+len(bytes))
	withStart = append(withStart, []byte(documentStart)...)
	withStart = append(withStart, bytes...)

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err = a.fileLogger.Write(withStart)
	return errors.Trace(err)
}

// primeLogFile ensures the history file is created with a private
// mode.
func primeLogFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Trace(err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(f.Close())
}

// ReadEntries decodes the entries written to r.
func ReadEntries(r io.Reader) ([]Entry, error) {
	dec := yaml.NewDecoder(r)
	var entries []Entry
	for {
		var e Entry
		err := dec.Decode(&e)
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, errors.Annotate(err, "reading history entries")
		}
		entries = append(entries, e)
	}
}
