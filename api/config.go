// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package api

import (
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/txtr/holon/core/auditlog"
	"github.com/txtr/holon/rpc"
	"github.com/txtr/holon/rpc/httptransport"
)

// DefaultRetryDelay is the pause before retrying a failed transport
// attempt.
const DefaultRetryDelay = time.Second

// DefaultNoRetry lists the functions never retried in addition to
// those starting with "checkout" or "commit".
var DefaultNoRetry = []string{"WSShopMgmt.checkoutBasket"}

// Config holds the settings of a Client.
type Config struct {
	// Transport posts the requests. It is required.
	Transport rpc.Transport

	// KeepHistory enables the call history.
	KeepHistory bool

	// DoRetry enables a single retry of calls whose transport
	// attempt failed.
	DoRetry bool

	// RetryDelay is the pause before the retry.
	RetryDelay time.Duration

	// NoRetry lists functions which must never be retried. It
	// defaults to DefaultNoRetry.
	NoRetry []string

	// IDs supplies the request ids. It defaults to random ids of
	// rpc.DefaultIDLength characters.
	IDs rpc.IDGenerator

	Clock clock.Clock

	// Metrics, when set, records every call.
	Metrics *Collector

	// AuditLog, when set, receives every history entry.
	AuditLog auditlog.AuditLog

	// CommunicationError is the error type reported by the transport
	// when no response was received. Only such failures are retried.
	CommunicationError errors.ConstError
}

func (c Config) withDefaults() Config {
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.NoRetry == nil {
		c.NoRetry = DefaultNoRetry
	}
	if c.IDs == nil {
		c.IDs = rpc.RandomIDs(rpc.DefaultIDLength)
	}
	if c.Clock == nil {
		c.Clock = clock.WallClock
	}
	if c.CommunicationError == "" {
		c.CommunicationError = httptransport.ErrCommunication
	}
	return c
}

// Validate checks the configuration once defaults are applied.
func (c Config) Validate() error {
	if c.Transport == nil {
		return errors.NotValidf("nil Transport")
	}
	if c.RetryDelay < 0 {
		return errors.NotValidf("negative RetryDelay")
	}
	return nil
}
