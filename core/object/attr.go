// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package object

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/juju/errors"
)

const (
	// ErrAttributeNotFound is the type of error returned when an
	// attribute can't be resolved.
	ErrAttributeNotFound = errors.ConstError("attribute not found")

	// ErrReadOnly is the type of error returned by every attempt to
	// change a value.
	ErrReadOnly = errors.ConstError("value is read-only")
)

// Attribute is the result of resolving a name against a value: either
// the value stored under a key, or an accessor returning it.
type Attribute struct {
	value    Value
	accessor bool
}

// IsAccessor reports whether the attribute is a zero argument
// accessor rather than a plain value.
func (a Attribute) IsAccessor() bool {
	return a.accessor
}

// Value returns the value of the attribute; for accessors this is
// what Call returns.
func (a Attribute) Value() Value {
	return a.value
}

// Call invokes an accessor.
func (a Attribute) Call() (Value, error) {
	if !a.accessor {
		return Value{}, errors.NotSupportedf("calling a non-accessor attribute")
	}
	return a.value, nil
}

func notFound(v Value, name string) error {
	return errors.WithType(errors.Errorf("%s has no attribute %q", v.kind, name), ErrAttributeNotFound)
}

// getterKey returns the key addressed by a getter name: "getFooBar"
// addresses "fooBar".
func getterKey(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, "get")
	if !ok || rest == "" {
		return "", false
	}
	r, size := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(r) {
		return "", false
	}
	return string(unicode.ToLower(r)) + rest[size:], true
}

// Attr resolves name against an object:
//
//   - "getX..." is an accessor for key "x..." when that key exists;
//   - "name" is an accessor when the object's only key is "name",
//     which is how the server wraps enums;
//   - any other name is looked up as a key.
//
// A getter name whose key is missing is not looked up as a key.
func (v Value) Attr(name string) (Attribute, error) {
	if v.kind != Object {
		return Attribute{}, notFound(v, name)
	}
	if key, ok := getterKey(name); ok {
		if item, ok := v.obj[key]; ok {
			return Attribute{value: item, accessor: true}, nil
		}
		return Attribute{}, notFound(v, name)
	}
	if name == "name" && len(v.obj) == 1 {
		if item, ok := v.obj["name"]; ok {
			return Attribute{value: item, accessor: true}, nil
		}
	}
	if item, ok := v.obj[name]; ok {
		return Attribute{value: item}, nil
	}
	return Attribute{}, notFound(v, name)
}

// Field returns the value stored under key.
func (v Value) Field(key string) (Value, error) {
	if v.kind != Object {
		return Value{}, notFound(v, key)
	}
	item, ok := v.obj[key]
	if !ok {
		return Value{}, notFound(v, key)
	}
	return item, nil
}

// Getter returns the value addressed by a getter name such as
// "getDocumentID".
func (v Value) Getter(name string) (Value, error) {
	key, ok := getterKey(name)
	if !ok {
		return Value{}, errors.NotValidf("getter name %q", name)
	}
	return v.Field(key)
}

// EnumName returns the value of an enum wrapper, an object whose only
// key is "name".
func (v Value) EnumName() (Value, error) {
	if v.kind != Object || len(v.obj) != 1 {
		return Value{}, notFound(v, "name")
	}
	return v.Field("name")
}

// Set always fails with ErrReadOnly.
func (v Value) Set(name string, _ any) error {
	return errors.WithType(errors.Errorf("cannot set %q on %s", name, v.kind), ErrReadOnly)
}

// Delete always fails with ErrReadOnly.
func (v Value) Delete(name string) error {
	return errors.WithType(errors.Errorf("cannot delete %q from %s", name, v.kind), ErrReadOnly)
}
