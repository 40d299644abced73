// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package base

import (
	"net/http"

	"github.com/txtr/holon/core/object"
)

// Converter turns the decoded result of a call into the value returned
// to the caller. The input is a tree of map[string]any, []any,
// json.Number, string, bool and nil.
type Converter func(raw any) (any, error)

// DefaultConverter converts results into object values.
func DefaultConverter(raw any) (any, error) {
	return object.Convert(raw), nil
}

// CallOptions holds the per-call settings.
type CallOptions struct {
	// Headers are sent in addition to the transport's own.
	Headers http.Header

	// Converter is applied to the result. It defaults to
	// DefaultConverter.
	Converter Converter
}

// CallOption changes a CallOptions.
type CallOption func(*CallOptions)

// WithHeaders sends extra HTTP headers with the call.
func WithHeaders(headers http.Header) CallOption {
	return func(o *CallOptions) {
		o.Headers = headers
	}
}

// WithConverter sets the converter applied to the result.
func WithConverter(convert Converter) CallOption {
	return func(o *CallOptions) {
		o.Converter = convert
	}
}

// NewCallOptions applies opts to the default options.
func NewCallOptions(opts ...CallOption) CallOptions {
	o := CallOptions{Converter: DefaultConverter}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Converter == nil {
		o.Converter = DefaultConverter
	}
	return o
}

// UsesDefaultConverter reports whether opts leave the result
// conversion alone.
func UsesDefaultConverter(opts ...CallOption) bool {
	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o.Converter == nil
}
