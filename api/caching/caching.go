// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package caching provides a reaktor connection remembering results.
// Results are kept until Clear is called; there is no expiry.
package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"golang.org/x/sync/singleflight"

	"github.com/txtr/holon/api/base"
	"github.com/txtr/holon/core/object"
	"github.com/txtr/holon/rpc"
	"github.com/txtr/holon/rpc/params"
)

var logger = loggo.GetLogger("holon.api.caching")

// The functions given special treatment.
const (
	GetDocument            = "WSDocMgmt.getDocument"
	GetDocuments           = "WSDocMgmt.getDocuments"
	GetContentPresentation = "WSContentMgmt.getContentPresentation"
)

// Names of the caches, as reported to Metrics.
const (
	callCache         = "calls"
	documentCache     = "documents"
	presentationCache = "presentations"
)

// Backend is the connection whose results are cached.
type Backend interface {
	base.Caller
	ClearHistory()
}

// Metrics records cache lookups. *api.Collector implements it.
type Metrics interface {
	CacheHit(cache string)
	CacheMiss(cache string)
}

// Config holds the settings of a caching Client.
type Config struct {
	// PresentationMethod is the paged function whose complete result
	// is fetched once and paged locally. It defaults to
	// GetContentPresentation.
	PresentationMethod string

	// OffsetIndex and CountIndex locate the paging arguments of
	// PresentationMethod. They default to 2 and 3.
	OffsetIndex int
	CountIndex  int

	// ListField names the member holding the paged list when the
	// presentation result is an object. When empty, array results
	// are paged and anything else is returned whole.
	ListField string

	// Metrics, when set, records every cache lookup.
	Metrics Metrics
}

func (c Config) withDefaults() Config {
	if c.PresentationMethod == "" {
		c.PresentationMethod = GetContentPresentation
	}
	if c.OffsetIndex == 0 && c.CountIndex == 0 {
		c.OffsetIndex, c.CountIndex = 2, 3
	}
	return c
}

// Validate checks the configuration once defaults are applied.
func (c Config) Validate() error {
	if c.OffsetIndex < 0 || c.CountIndex < 0 || c.OffsetIndex == c.CountIndex {
		return errors.NotValidf("paging argument indexes %d and %d", c.OffsetIndex, c.CountIndex)
	}
	return nil
}

// Client is a base.Connection answering repeated calls from memory.
// Only results converted with the default converter are cached; calls
// with another converter go straight to the backend.
type Client struct {
	*base.Dispatcher

	inner   Backend
	config  Config
	flights singleflight.Group

	mu            sync.Mutex
	calls         map[string]object.Value
	docs          map[string]object.Value
	presentations map[string]object.Value
}

var _ base.Connection = (*Client)(nil)

// New returns a Client caching the results of inner.
func New(inner Backend, config Config) (*Client, error) {
	if inner == nil {
		return nil, errors.NotValidf("nil Backend")
	}
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	c := &Client{
		inner:  inner,
		config: config,
	}
	c.reset()
	c.Dispatcher = base.NewDispatcher(c)
	return c, nil
}

func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = make(map[string]object.Value)
	c.docs = make(map[string]object.Value)
	c.presentations = make(map[string]object.Value)
}

// Clear drops every cached result and the history of the backend.
func (c *Client) Clear() {
	c.inner.ClearHistory()
	c.reset()
}

// Call implements base.Caller.
func (c *Client) Call(ctx context.Context, function string, args []any, opts ...base.CallOption) (any, error) {
	if !base.UsesDefaultConverter(opts...) {
		return c.inner.Call(ctx, function, args, opts...)
	}
	switch function {
	case GetDocument:
		if len(args) < 2 {
			break
		}
		id, ok := args[1].(string)
		if !ok {
			return nil, errors.NotValidf("document id %T", args[1])
		}
		docs, err := c.documents(ctx, args[0], []string{id}, opts)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return docs[0], nil
	case GetDocuments:
		if len(args) < 2 {
			break
		}
		ids, err := documentIDs(args[1])
		if err != nil {
			return nil, errors.Trace(err)
		}
		docs, err := c.documents(ctx, args[0], ids, opts)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return object.NewArray(docs), nil
	case c.config.PresentationMethod:
		if len(args) > c.config.OffsetIndex && len(args) > c.config.CountIndex {
			return c.presentation(ctx, function, args, opts)
		}
	}
	return c.call(ctx, function, args, opts)
}

func (c *Client) hit(cache string) {
	if c.config.Metrics != nil {
		c.config.Metrics.CacheHit(cache)
	}
}

func (c *Client) miss(cache string) {
	if c.config.Metrics != nil {
		c.config.Metrics.CacheMiss(cache)
	}
}

// fetch calls the backend once for concurrent misses on the same key.
// The shared call is not canceled with any single caller; each caller
// stops waiting when its own ctx is done.
func (c *Client) fetch(ctx context.Context, key, function string, args []any, opts []base.CallOption) (object.Value, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key, func() (any, error) {
		result, err := c.inner.Call(shared, function, args, opts...)
		if err != nil {
			return nil, err
		}
		value, ok := result.(object.Value)
		if !ok {
			return nil, errors.Errorf("unexpected %T result from %s", result, function)
		}
		return value, nil
	})
	select {
	case <-ctx.Done():
		return object.Value{}, errors.Trace(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return object.Value{}, res.Err
		}
		if res.Shared {
			logger.Tracef("shared result of %s", function)
		}
		return res.Val.(object.Value), nil
	}
}

func (c *Client) call(ctx context.Context, function string, args []any, opts []base.CallOption) (any, error) {
	encoded, err := rpc.EncodeParams(args)
	if err != nil {
		return c.inner.Call(ctx, function, args, opts...)
	}
	key := function + " " + encoded

	c.mu.Lock()
	result, ok := c.calls[key]
	c.mu.Unlock()
	if ok {
		logger.Debugf("got result for %s from cache", function)
		c.hit(callCache)
		return result, nil
	}
	c.miss(callCache)

	result, err = c.fetch(ctx, callCache+" "+key, function, args, opts)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.calls[key] = result
	c.mu.Unlock()
	return result, nil
}

func (c *Client) documents(ctx context.Context, token any, ids []string, opts []base.CallOption) ([]object.Value, error) {
	missing := set.NewStrings()
	var toFetch []string
	c.mu.Lock()
	for _, id := range ids {
		if _, ok := c.docs[id]; !ok && !missing.Contains(id) {
			missing.Add(id)
			toFetch = append(toFetch, id)
		}
	}
	c.mu.Unlock()

	if len(toFetch) == 0 {
		c.hit(documentCache)
	} else {
		c.miss(documentCache)
		result, err := c.fetch(ctx, fmt.Sprintf("%s %v %s", documentCache, token, strings.Join(missing.SortedValues(), ",")),
			GetDocuments, []any{token, toFetch}, opts)
		if err != nil {
			return nil, err
		}
		fetched := make(map[string]object.Value, result.Len())
		for _, doc := range result.Items() {
			idValue, err := doc.Field("documentID")
			if err != nil {
				return nil, errors.Annotate(err, "caching document")
			}
			id, err := idValue.AsString()
			if err != nil {
				return nil, errors.Annotate(err, "caching document")
			}
			fetched[id] = doc
		}
		c.mu.Lock()
		for id, doc := range fetched {
			c.docs[id] = doc
		}
		c.mu.Unlock()
	}

	docs := make([]object.Value, len(ids))
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, id := range ids {
		doc, ok := c.docs[id]
		if !ok {
			return nil, params.NewAPIError(params.CodeUnknownEntityError,
				"document "+id+" missing from "+GetDocuments+" result", "")
		}
		docs[i] = doc
	}
	return docs, nil
}

func documentIDs(arg any) ([]string, error) {
	switch ids := arg.(type) {
	case []string:
		return ids, nil
	case set.Strings:
		return ids.SortedValues(), nil
	case []any:
		out := make([]string, len(ids))
		for i, id := range ids {
			s, ok := id.(string)
			if !ok {
				return nil, errors.NotValidf("document id %T", id)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, errors.NotValidf("document ids %T", arg)
}

// presentation fetches the complete result of the paged function once
// and serves every page from it.
func (c *Client) presentation(ctx context.Context, function string, args []any, opts []base.CallOption) (any, error) {
	offset, err := toInt(args[c.config.OffsetIndex])
	if err != nil {
		return nil, errors.Annotate(err, "paging offset")
	}
	count, err := toInt(args[c.config.CountIndex])
	if err != nil {
		return nil, errors.Annotate(err, "paging count")
	}

	keyArgs := append([]any{}, args...)
	keyArgs[c.config.OffsetIndex] = 0
	keyArgs[c.config.CountIndex] = 0
	last := len(keyArgs) - 1
	if last != c.config.OffsetIndex && last != c.config.CountIndex {
		keyArgs[last] = nil
	}
	encoded, err := rpc.EncodeParams(keyArgs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	key := function + " " + encoded

	c.mu.Lock()
	full, ok := c.presentations[key]
	c.mu.Unlock()
	if ok {
		c.hit(presentationCache)
	} else {
		c.miss(presentationCache)
		fetchArgs := append([]any{}, keyArgs...)
		fetchArgs[c.config.CountIndex] = -1
		full, err = c.fetch(ctx, presentationCache+" "+key, function, fetchArgs, opts)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.presentations[key] = full
		c.mu.Unlock()
	}
	return c.page(full, offset, count)
}

func (c *Client) page(full object.Value, offset int, count int) (object.Value, error) {
	to := -1
	if count >= 0 {
		to = offset + count
	}
	if full.Kind() == object.Array {
		return full.Slice(offset, to)
	}
	if c.config.ListField == "" || full.Kind() != object.Object {
		return full, nil
	}
	list, err := full.Field(c.config.ListField)
	if err != nil || list.Kind() != object.Array {
		return full, nil
	}
	paged, err := list.Slice(offset, to)
	if err != nil {
		return object.Value{}, errors.Trace(err)
	}
	return full.WithField(c.config.ListField, paged)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), errors.Trace(err)
	case nil:
		return 0, nil
	}
	return 0, errors.NotValidf("paging argument %T", v)
}
