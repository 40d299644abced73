// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package api holds the client making calls to a reaktor.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/retry"

	"github.com/txtr/holon/api/base"
	"github.com/txtr/holon/rpc"
	"github.com/txtr/holon/rpc/params"
)

var logger = loggo.GetLogger("holon.api")

// Client makes calls to a reaktor. It is safe for concurrent use.
type Client struct {
	*base.Dispatcher

	transport  rpc.Transport
	ids        rpc.IDGenerator
	clock      clock.Clock
	doRetry    bool
	retryDelay time.Duration
	noRetry    set.Strings
	commError  errors.ConstError
	metrics    *Collector

	// history is nil when disabled.
	history *history
}

var _ base.Connection = (*Client)(nil)

// NewClient returns a client with the given configuration.
func NewClient(config Config) (*Client, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	c := &Client{
		transport:  config.Transport,
		ids:        config.IDs,
		clock:      config.Clock,
		doRetry:    config.DoRetry,
		retryDelay: config.RetryDelay,
		noRetry:    set.NewStrings(config.NoRetry...),
		commError:  config.CommunicationError,
		metrics:    config.Metrics,
	}
	if config.KeepHistory {
		c.history = &history{sink: config.AuditLog}
	}
	c.Dispatcher = base.NewDispatcher(c)
	return c, nil
}

// Call implements base.Caller. Transport failures are reported as
// params.ErrIO errors, non-200 responses as params.ErrHTTP, malformed
// responses and id mismatches as params.ErrProtocol and server errors
// as the API error kind of their code.
func (c *Client) Call(ctx context.Context, function string, args []any, opts ...base.CallOption) (_ any, err error) {
	o := base.NewCallOptions(opts...)
	var (
		req   *rpc.Request
		post  []byte
		resp  rpc.Response
		sent  bool
		start = c.clock.Now()
	)
	defer func() {
		status := "ERR"
		if sent {
			status = fmt.Sprint(resp.Status)
		}
		logged := args
		if req != nil {
			logged = req.Params
		}
		logger.Infof(`"POST %s %v %s" %s %d`, function, logged, c.transport.Protocol(), status, len(post))
		if sent {
			logger.Tracef("%s response: %s", function, resp.Data)
		}
		c.metrics.observeCall(interfaceName(function), err, c.clock.Now().Sub(start))
	}()

	if req, err = rpc.NewRequest(function, args, c.ids.NewID()); err != nil {
		return nil, errors.Trace(err)
	}
	if post, err = req.Marshal(); err != nil {
		return nil, errors.Trace(err)
	}

	resp, err = c.send(ctx, function, post, o.Headers)
	sent = err == nil
	c.record(function, post, resp, sent, start)
	if err != nil {
		return nil, err
	}
	return c.decode(req, resp, o.Converter)
}

func (c *Client) record(function string, post []byte, resp rpc.Response, sent bool, when time.Time) {
	if c.history == nil {
		return
	}
	entry := HistoryEntry{
		URL:      rpc.HistoryURL(c.transport.BaseURL(), post),
		Method:   function,
		Status:   -1,
		Duration: -1,
		When:     when,
	}
	if sent {
		entry.Status = resp.Status
		entry.Duration = resp.Time
	}
	c.history.add(entry)
}

// send posts the request, retrying once after a communication failure
// when allowed.
func (c *Client) send(ctx context.Context, function string, post []byte, headers http.Header) (rpc.Response, error) {
	var resp rpc.Response
	attempt := func() error {
		var err error
		resp, err = c.transport.Call(ctx, post, headers)
		return err
	}
	if !c.retryable(function) {
		if err := attempt(); err != nil {
			return rpc.Response{}, c.transportError(err)
		}
		return resp, nil
	}

	err := retry.Call(retry.CallArgs{
		Func: attempt,
		IsFatalError: func(err error) bool {
			return !errors.Is(err, c.commError)
		},
		NotifyFunc: func(err error, attempt int) {
			if attempt == 1 {
				logger.Errorf("reaktor error %v calling %s, retrying in %v", err, function, c.retryDelay)
				c.metrics.observeRetry(interfaceName(function))
			}
		},
		Attempts: 2,
		Delay:    c.retryDelay,
		Clock:    c.clock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		if retry.IsAttemptsExceeded(err) || retry.IsRetryStopped(err) {
			err = retry.LastError(err)
		}
		return rpc.Response{}, c.transportError(err)
	}
	return resp, nil
}

func (c *Client) transportError(err error) error {
	if !errors.Is(err, c.commError) {
		return errors.Trace(err)
	}
	return params.NewIOError(err)
}

// retryable reports whether a failed attempt to call function may be
// repeated. Functions listed in NoRetry or whose name starts with
// "checkout" or "commit" are never repeated.
func (c *Client) retryable(function string) bool {
	if !c.doRetry || c.noRetry.Contains(function) {
		return false
	}
	name := function
	if _, after, ok := strings.Cut(function, "."); ok {
		name = after
	}
	name = strings.ToLower(name)
	return !strings.HasPrefix(name, "checkout") && !strings.HasPrefix(name, "commit")
}

func (c *Client) decode(req *rpc.Request, resp rpc.Response, convert base.Converter) (any, error) {
	if resp.Status != http.StatusOK {
		return nil, params.NewHTTPError(resp.Status,
			fmt.Sprintf("server returned status %d: %s", resp.Status, resp.Data))
	}
	env, err := rpc.DecodeEnvelope(resp.Data)
	if err != nil {
		return nil, params.NewProtocolError(resp.Status, err.Error())
	}
	if env.HasError() {
		return nil, params.FromPayload(env.Error)
	}
	if id := env.ResponseID(); id != req.ID {
		return nil, params.NewProtocolError(resp.Status,
			fmt.Sprintf("invalid RPC ID response %s != request %s", id, req.ID))
	}
	raw, err := env.DecodeResult()
	if err != nil {
		return nil, params.NewProtocolError(resp.Status, err.Error())
	}
	if convert == nil {
		convert = base.DefaultConverter
	}
	result, err := convert(raw)
	return result, errors.Annotatef(err, "converting %s result", req.Method)
}

// History returns the calls made so far, or nil when the history is
// disabled.
func (c *Client) History() []HistoryEntry {
	if c.history == nil {
		return nil
	}
	return c.history.snapshot()
}

// ClearHistory empties the call history.
func (c *Client) ClearHistory() {
	if c.history != nil {
		c.history.clear()
	}
}

// Clear implements base.Connection. The client keeps no other state
// than its history.
func (c *Client) Clear() {
	c.ClearHistory()
}

// BaseURL returns the endpoint URL of the transport.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL()
}

var apiPathRE = regexp.MustCompile(`/api/(.*)/rpc`)

// APIVersion returns the API version named in an endpoint path of the
// form "/api/<version>/rpc", or the whole path for other endpoints.
func (c *Client) APIVersion() string {
	path := c.transport.BaseURL()
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	return apiPathRE.ReplaceAllString(path, "$1")
}

type remoteVersioner interface {
	RemoteVersion(ctx context.Context) (string, error)
}

// RemoteVersion returns the version reported by the server.
func (c *Client) RemoteVersion(ctx context.Context) (string, error) {
	v, ok := c.transport.(remoteVersioner)
	if !ok {
		return "", errors.NotSupportedf("remote version over %T", c.transport)
	}
	version, err := v.RemoteVersion(ctx)
	return version, errors.Trace(err)
}

func interfaceName(function string) string {
	name, _, _ := strings.Cut(function, ".")
	return name
}
