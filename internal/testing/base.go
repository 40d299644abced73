// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"time"

	"github.com/juju/loggo"
	"github.com/juju/testing"
	gc "gopkg.in/check.v1"
)

// LongWait is used when something should have already happened, or
// happens quickly, but we want to make sure we just haven't missed it.
const LongWait = 10 * time.Second

// ShortWait is a reasonable amount of time to block waiting for
// something that shouldn't actually happen.
const ShortWait = 50 * time.Millisecond

// BaseSuite isolates each test from the environment and captures the
// log output of the holon loggers.
type BaseSuite struct {
	testing.IsolationSuite

	Logs *loggo.TestWriter
}

func (s *BaseSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.Logs = &loggo.TestWriter{}
	err := loggo.RegisterWriter("holon-test", s.Logs)
	c.Assert(err, gc.IsNil)
	s.AddCleanup(func(*gc.C) {
		_, _ = loggo.RemoveWriter("holon-test")
	})
	loggo.GetLogger("holon").SetLogLevel(loggo.TRACE)
}

// LogMessages returns the messages logged at level or above.
func (s *BaseSuite) LogMessages(level loggo.Level) []string {
	var messages []string
	for _, entry := range s.Logs.Log() {
		if entry.Level >= level {
			messages = append(messages, entry.Message)
		}
	}
	return messages
}
