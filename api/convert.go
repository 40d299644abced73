// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package api

import (
	"reflect"

	"github.com/juju/errors"

	"github.com/txtr/holon/api/base"
	"github.com/txtr/holon/core/object"
)

// DecodeInto returns a converter decoding results into new values of
// the type pointed to by prototype:
//
//	result, err := c.Call(ctx, "WSDocMgmt.getDocument", args,
//		base.WithConverter(api.DecodeInto((*Document)(nil))))
//	doc := result.(*Document)
func DecodeInto(prototype any) base.Converter {
	t := reflect.TypeOf(prototype)
	return func(raw any) (any, error) {
		if t == nil || t.Kind() != reflect.Ptr {
			return nil, errors.NotValidf("non-pointer prototype %T", prototype)
		}
		target := reflect.New(t.Elem()).Interface()
		if err := object.Convert(raw).Decode(target); err != nil {
			return nil, errors.Trace(err)
		}
		return target, nil
	}
}
