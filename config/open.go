// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package config

import (
	"time"

	"github.com/juju/errors"

	"github.com/txtr/holon/api"
	"github.com/txtr/holon/api/base"
	"github.com/txtr/holon/api/caching"
	"github.com/txtr/holon/core/auditlog"
	"github.com/txtr/holon/rpc"
	"github.com/txtr/holon/rpc/httptransport"
)

// Conn is an open connection to a reaktor. Calls go through the
// caching decorator when the reaktor caches calls.
type Conn struct {
	base.Connection

	// Client is the uncached client, for history and diagnostics.
	Client  *api.Client
	Metrics *api.Collector

	auditLog *auditlog.LogFile
}

// Open connects to the reaktor described by r.
func Open(r Reaktor) (*Conn, error) {
	transportConfig := r.Transport()
	transport, err := httptransport.New(transportConfig)
	if err != nil {
		return nil, errors.Trace(err)
	}

	conn := &Conn{Metrics: api.NewMetricsCollector()}
	clientConfig := api.Config{
		Transport:   transport,
		KeepHistory: r.KeepHistory || r.AuditLogDir != "",
		DoRetry:     r.DoRetry,
		RetryDelay:  time.Duration(r.RetrySleep),
		NoRetry:     r.NoRetry,
		Metrics:     conn.Metrics,
	}
	if clientConfig.IDs, err = rpc.NewIDGenerator(r.IDs); err != nil {
		return nil, errors.Trace(err)
	}
	if r.AuditLogDir != "" {
		conn.auditLog = auditlog.NewLogFile(r.AuditLogDir)
		clientConfig.AuditLog = conn.auditLog
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		conn.Close()
		return nil, errors.Trace(err)
	}
	conn.Client = client
	conn.Connection = client

	if r.CacheCalls {
		cached, err := caching.New(client, caching.Config{Metrics: conn.Metrics})
		if err != nil {
			conn.Close()
			return nil, errors.Trace(err)
		}
		conn.Connection = cached
	}
	logger.Debugf("opened reaktor %q at %s", r.Name, client.BaseURL())
	return conn, nil
}

// Close releases the audit log, if any.
func (c *Conn) Close() error {
	if c.auditLog == nil {
		return nil
	}
	return errors.Trace(c.auditLog.Close())
}
