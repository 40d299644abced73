// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package base

import (
	"context"
	"sync"

	"github.com/juju/errors"

	"github.com/txtr/holon/core/object"
)

// Caller makes calls to a reaktor. Function names have the form
// "Interface.function".
type Caller interface {
	Call(ctx context.Context, function string, args []any, opts ...CallOption) (any, error)
}

// Connection is a Caller offering the interface proxies and a way to
// drop any state kept between calls.
type Connection interface {
	Caller
	Interface(name string) *Interface
	Clear()
}

// Func calls one remote function and returns its converted result.
type Func func(ctx context.Context, args ...any) (object.Value, error)

// Interface is the client side proxy of one remote interface. Nothing
// is checked locally: a misspelled function only fails once called.
type Interface struct {
	name    string
	caller  Caller
	methods sync.Map
}

// NewInterface returns a proxy for the named interface calling through
// caller.
func NewInterface(name string, caller Caller) *Interface {
	return &Interface{name: name, caller: caller}
}

// Name returns the name of the interface.
func (i *Interface) Name() string {
	return i.name
}

// Caller returns the caller the interface sends calls through.
func (i *Interface) Caller() Caller {
	return i.caller
}

// Call calls function on the interface. The options are passed to the
// caller unchanged.
func (i *Interface) Call(ctx context.Context, function string, args []any, opts ...CallOption) (any, error) {
	return i.caller.Call(ctx, i.name+"."+function, args, opts...)
}

// Invoke calls function with the default conversion.
func (i *Interface) Invoke(ctx context.Context, function string, args ...any) (object.Value, error) {
	result, err := i.Call(ctx, function, args)
	if err != nil {
		return object.Value{}, errors.Trace(err)
	}
	v, ok := result.(object.Value)
	if !ok {
		return object.Value{}, errors.Errorf("unexpected %T result from %s.%s", result, i.name, function)
	}
	return v, nil
}

// Method returns a function calling function on the interface. The
// same Func is returned for repeated lookups.
func (i *Interface) Method(function string) Func {
	if f, ok := i.methods.Load(function); ok {
		return f.(Func)
	}
	var f Func = func(ctx context.Context, args ...any) (object.Value, error) {
		return i.Invoke(ctx, function, args...)
	}
	actual, _ := i.methods.LoadOrStore(function, f)
	return actual.(Func)
}

// Dispatcher hands out interface proxies, creating each one on first
// use.
type Dispatcher struct {
	caller     Caller
	interfaces sync.Map
}

// NewDispatcher returns a Dispatcher whose proxies call through caller.
func NewDispatcher(caller Caller) *Dispatcher {
	return &Dispatcher{caller: caller}
}

// Interface returns the proxy of the named interface. Repeated
// lookups return the same proxy.
func (d *Dispatcher) Interface(name string) *Interface {
	if i, ok := d.interfaces.Load(name); ok {
		return i.(*Interface)
	}
	actual, _ := d.interfaces.LoadOrStore(name, NewInterface(name, d.caller))
	return actual.(*Interface)
}
