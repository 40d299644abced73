// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package object holds the immutable values reaktor results are
// decoded into.
package object

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/juju/errors"
	"github.com/mitchellh/mapstructure"
)

// Kind is the JSON type of a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

var kindNames = map[Kind]string{
	Null:   "null",
	Bool:   "bool",
	Number: "number",
	String: "string",
	Array:  "array",
	Object: "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an immutable JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    json.Number
	s    string
	arr  []Value
	obj  map[string]Value
}

// Convert turns a decoded JSON tree into a Value. Objects keep every
// key; arrays and objects are converted recursively. Values are
// returned unchanged.
func Convert(raw any) Value {
	switch r := raw.(type) {
	case nil:
		return Value{}
	case Value:
		return r
	case *Value:
		if r == nil {
			return Value{}
		}
		return *r
	case bool:
		return Value{kind: Bool, b: r}
	case string:
		return Value{kind: String, s: r}
	case json.Number:
		return Value{kind: Number, n: r}
	case float64:
		return numberFromFloat(r)
	case float32:
		return numberFromFloat(float64(r))
	case int:
		return Value{kind: Number, n: json.Number(strconv.FormatInt(int64(r), 10))}
	case int32:
		return Value{kind: Number, n: json.Number(strconv.FormatInt(int64(r), 10))}
	case int64:
		return Value{kind: Number, n: json.Number(strconv.FormatInt(r, 10))}
	case uint:
		return Value{kind: Number, n: json.Number(strconv.FormatUint(uint64(r), 10))}
	case uint64:
		return Value{kind: Number, n: json.Number(strconv.FormatUint(r, 10))}
	case []any:
		arr := make([]Value, len(r))
		for i, item := range r {
			arr[i] = Convert(item)
		}
		return Value{kind: Array, arr: arr}
	case []Value:
		return NewArray(r)
	case map[string]any:
		obj := make(map[string]Value, len(r))
		for k, item := range r {
			obj[k] = Convert(item)
		}
		return Value{kind: Object, obj: obj}
	case map[string]Value:
		return NewObject(r)
	}
	return convertOther(raw)
}

func numberFromFloat(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{kind: String, s: strconv.FormatFloat(f, 'g', -1, 64)}
	}
	return Value{kind: Number, n: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
}

// convertOther round-trips values of other types, such as structs and
// typed slices, through their JSON form.
func convertOther(raw any) Value {
	if rv := reflect.ValueOf(raw); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return Value{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return Value{kind: String, s: fmt.Sprint(raw)}
	}
	v, err := Parse(data)
	if err != nil {
		return Value{kind: String, s: fmt.Sprint(raw)}
	}
	return v
}

// Parse decodes JSON text into a Value. Numbers keep their textual
// form.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, errors.Annotate(err, "parsing value")
	}
	return Convert(raw), nil
}

// NewArray returns an array value holding a copy of items.
func NewArray(items []Value) Value {
	return Value{kind: Array, arr: append([]Value{}, items...)}
}

// NewObject returns an object value holding a copy of entries.
func NewObject(entries map[string]Value) Value {
	obj := make(map[string]Value, len(entries))
	for k, v := range entries {
		obj[k] = v
	}
	return Value{kind: Object, obj: obj}
}

// Kind returns the JSON type of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == Null
}

func (v Value) wrongKind(want Kind) error {
	return errors.NotValidf("%s value as %s", v.kind, want)
}

// AsBool returns the value of a bool.
func (v Value) AsBool() (bool, error) {
	if v.kind != Bool {
		return false, v.wrongKind(Bool)
	}
	return v.b, nil
}

// AsString returns the value of a string.
func (v Value) AsString() (string, error) {
	if v.kind != String {
		return "", v.wrongKind(String)
	}
	return v.s, nil
}

// AsNumber returns the textual form of a number.
func (v Value) AsNumber() (json.Number, error) {
	if v.kind != Number {
		return "", v.wrongKind(Number)
	}
	return v.n, nil
}

// AsInt returns the value of an integral number.
func (v Value) AsInt() (int64, error) {
	if v.kind != Number {
		return 0, v.wrongKind(Number)
	}
	i, err := v.n.Int64()
	return i, errors.Trace(err)
}

// AsFloat returns the value of a number.
func (v Value) AsFloat() (float64, error) {
	if v.kind != Number {
		return 0, v.wrongKind(Number)
	}
	f, err := v.n.Float64()
	return f, errors.Trace(err)
}

// Len returns the number of elements of an array or entries of an
// object, and zero for anything else.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.obj)
	}
	return 0
}

// Index returns the i'th element of an array.
func (v Value) Index(i int) (Value, error) {
	if v.kind != Array {
		return Value{}, v.wrongKind(Array)
	}
	if i < 0 || i >= len(v.arr) {
		return Value{}, errors.NotFoundf("index %d of %d elements", i, len(v.arr))
	}
	return v.arr[i], nil
}

// Items returns a copy of the elements of an array.
func (v Value) Items() []Value {
	if v.kind != Array {
		return nil
	}
	return append([]Value{}, v.arr...)
}

// Slice returns a new array of the elements [from, to) of an array.
// Bounds are clamped to the array; a negative to means the end.
func (v Value) Slice(from, to int) (Value, error) {
	if v.kind != Array {
		return Value{}, v.wrongKind(Array)
	}
	n := len(v.arr)
	if to < 0 || to > n {
		to = n
	}
	if from < 0 {
		from = 0
	}
	if from > to {
		from = to
	}
	return NewArray(v.arr[from:to]), nil
}

// Keys returns the sorted keys of an object.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether an object has the key.
func (v Value) Has(key string) bool {
	_, ok := v.obj[key]
	return ok
}

// WithField returns a copy of an object with key set to value. The
// receiver is left unchanged.
func (v Value) WithField(key string, value Value) (Value, error) {
	if v.kind != Object {
		return Value{}, v.wrongKind(Object)
	}
	out := NewObject(v.obj)
	out.obj[key] = value
	return out, nil
}

// Interface returns a deep copy of the value as plain Go values: nil,
// bool, json.Number, string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return v.n
	case String:
		return v.s
	case Array:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// MarshalYAML implements yaml.Marshaler. Numbers are written as
// integers when they have no fraction.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case Number:
		if i, err := v.n.Int64(); err == nil {
			return i, nil
		}
		f, err := v.n.Float64()
		if err != nil {
			return nil, errors.Trace(err)
		}
		return f, nil
	case Array:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			y, err := item.MarshalYAML()
			if err != nil {
				return nil, errors.Trace(err)
			}
			out[i] = y
		}
		return out, nil
	case Object:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			y, err := item.MarshalYAML()
			if err != nil {
				return nil, errors.Trace(err)
			}
			out[k] = y
		}
		return out, nil
	}
	return v.Interface(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return errors.Trace(err)
	}
	*v = parsed
	return nil
}

// String returns the JSON form of the value.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(data)
}

// Decode stores the value in the struct, map or slice pointed to by
// target, matching object keys against json struct tags.
func (v Value) Decode(target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Annotatef(dec.Decode(v.Interface()), "decoding %s", v.kind)
}
