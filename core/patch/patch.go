// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package patch gives the attribute ids found in document results
// descriptive names.
package patch

import (
	"github.com/txtr/holon/core/object"
)

// Name returns the descriptive name of an attribute id.
func Name(id string) (string, bool) {
	name, ok := attributeNames[id]
	return name, ok
}

// Patch returns a copy of v in which every object key that is a known
// attribute id is replaced by its descriptive name, at any depth. When
// keepIDs is true the value is also kept under the id.
func Patch(v object.Value, keepIDs bool) object.Value {
	switch v.Kind() {
	case object.Array:
		items := v.Items()
		for i, item := range items {
			items[i] = Patch(item, keepIDs)
		}
		return object.NewArray(items)
	case object.Object:
		entries := make(map[string]object.Value, v.Len())
		renamed := make(map[string]object.Value)
		for _, key := range v.Keys() {
			item, _ := v.Field(key)
			item = Patch(item, keepIDs)
			name, ok := attributeNames[key]
			if !ok {
				entries[key] = item
				continue
			}
			renamed[name] = item
			if keepIDs {
				entries[key] = item
			}
		}
		for name, item := range renamed {
			entries[name] = item
		}
		return object.NewObject(entries)
	}
	return v
}
