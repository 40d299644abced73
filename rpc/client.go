// Copyright 2012, 2013 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rpc

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// Request is the JSON-RPC request envelope posted for every call.
type Request struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     string `json:"id"`
}

// NewRequest returns the request for calling function with args. Set
// arguments are replaced by their sorted values since JSON has no set
// type.
func NewRequest(function string, args []any, id string) (*Request, error) {
	if !strings.Contains(function, ".") {
		return nil, errors.NotValidf("function name %q", function)
	}
	return &Request{
		Method: function,
		Params: NormalizeParams(args),
		ID:     id,
	}, nil
}

// Marshal returns the body to post for the request.
func (r *Request) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Annotatef(err, "encoding %s params", r.Method)
	}
	return data, nil
}

// NormalizeParams returns args with every set replaced by a sorted
// list. A nil slice becomes an empty one so that "params" is always
// encoded as an array.
func NormalizeParams(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		out[i] = normalize(arg)
	}
	return out
}

func normalize(arg any) any {
	switch a := arg.(type) {
	case set.Strings:
		return a.SortedValues()
	case set.Ints:
		return a.SortedValues()
	case []any:
		return NormalizeParams(a)
	case map[string]any:
		out := make(map[string]any, len(a))
		for k, v := range a {
			out[k] = normalize(v)
		}
		return out
	}
	return arg
}

// EncodeParams returns a canonical encoding of args, suitable for use
// as a cache key: map keys are sorted and sets are flattened.
func EncodeParams(args []any) (string, error) {
	data, err := json.Marshal(NormalizeParams(args))
	if err != nil {
		return "", errors.Trace(err)
	}
	return string(data), nil
}

// Envelope is a decoded response body.
type Envelope struct {
	Result json.RawMessage `json:"result"`
	Error  map[string]any  `json:"error"`
	ID     json.RawMessage `json:"id"`
}

// DecodeEnvelope decodes a response body.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, errors.Annotate(err, "decoding response")
	}
	return &env, nil
}

// HasError reports whether the server returned a non-empty error
// member.
func (e *Envelope) HasError() bool {
	return len(e.Error) > 0
}

// ResponseID returns the id echoed by the server. A string id is
// returned unquoted, anything else in its JSON form.
func (e *Envelope) ResponseID() string {
	if len(e.ID) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(e.ID, &id); err == nil {
		return id
	}
	return string(e.ID)
}

// DecodeResult returns the result member as a tree of maps, slices,
// strings, json.Numbers, bools and nils. An absent or null result
// decodes as an empty object.
func (e *Envelope) DecodeResult() (any, error) {
	if len(e.Result) == 0 || bytes.Equal(bytes.TrimSpace(e.Result), []byte("null")) {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(e.Result))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Annotate(err, "decoding result")
	}
	return raw, nil
}
