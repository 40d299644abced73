// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package object_test

import (
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/txtr/holon/core/object"
)

type attrSuite struct{}

var _ = gc.Suite(&attrSuite{})

func (*attrSuite) TestGetterAccessor(c *gc.C) {
	v := object.Convert(map[string]any{"something": 42})
	attr, err := v.Attr("getSomething")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(attr.IsAccessor(), jc.IsTrue)
	result, err := attr.Call()
	c.Assert(err, jc.ErrorIsNil)
	n, err := result.AsInt()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(n, gc.Equals, int64(42))
}

func (*attrSuite) TestGetterKeepsRestOfName(c *gc.C) {
	v := object.Convert(map[string]any{"documentID": "d1"})
	got, err := v.Getter("getDocumentID")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(got.String(), gc.Equals, `"d1"`)

	_, err = v.Getter("documentID")
	c.Check(err, gc.ErrorMatches, `getter name "documentID" not valid`)
}

func (*attrSuite) TestEnumAccessor(c *gc.C) {
	v := object.Convert(map[string]any{"name": []any{"e1", "e2", "e3"}})
	attr, err := v.Attr("name")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(attr.IsAccessor(), jc.IsTrue)
	result, err := attr.Call()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Interface(), jc.DeepEquals, []any{"e1", "e2", "e3"})

	enum, err := v.EnumName()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(enum, jc.DeepEquals, result)
}

func (*attrSuite) TestNameWithOtherKeysIsPlain(c *gc.C) {
	v := object.Convert(map[string]any{"name": "Moby Dick", "author": "Melville"})
	attr, err := v.Attr("name")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(attr.IsAccessor(), jc.IsFalse)
	c.Check(attr.Value().String(), gc.Equals, `"Moby Dick"`)
	_, err = attr.Call()
	c.Check(err, gc.NotNil)

	_, err = v.EnumName()
	c.Check(err, jc.ErrorIs, object.ErrAttributeNotFound)
}

func (*attrSuite) TestDirectLookup(c *gc.C) {
	v := object.Convert(map[string]any{"title": "t"})
	attr, err := v.Attr("title")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(attr.IsAccessor(), jc.IsFalse)
	c.Check(attr.Value().String(), gc.Equals, `"t"`)
}

func (*attrSuite) TestAttributeNotFound(c *gc.C) {
	v := object.Convert(map[string]any{"title": "t", "getOther": 1})
	for _, name := range []string{"missing", "getMissing", "getOther", "name"} {
		_, err := v.Attr(name)
		c.Check(err, jc.ErrorIs, object.ErrAttributeNotFound, gc.Commentf("attribute %q", name))
	}
	_, err := v.Attr("missing")
	c.Check(err, gc.ErrorMatches, `object has no attribute "missing"`)

	_, err = object.Convert([]any{1}).Attr("getLength")
	c.Check(err, jc.ErrorIs, object.ErrAttributeNotFound)

	got, err := v.Field("getOther")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(got.String(), gc.Equals, "1")
}

func (*attrSuite) TestLowercaseGetIsPlain(c *gc.C) {
	v := object.Convert(map[string]any{"getaway": "car"})
	attr, err := v.Attr("getaway")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(attr.IsAccessor(), jc.IsFalse)
}

func (*attrSuite) TestReadOnly(c *gc.C) {
	values := []object.Value{
		object.Convert(map[string]any{"a": 1}),
		object.Convert(map[string]any{}),
		object.Convert([]any{1, 2}),
		object.Convert("s"),
		{},
	}
	for _, v := range values {
		c.Check(v.Set("a", 2), jc.ErrorIs, object.ErrReadOnly)
		c.Check(v.Set("new", 2), jc.ErrorIs, object.ErrReadOnly)
		c.Check(v.Delete("a"), jc.ErrorIs, object.ErrReadOnly)
	}
	v := values[0]
	_ = v.Set("a", 2)
	_ = v.Delete("a")
	c.Check(v.String(), gc.Equals, `{"a":1}`)
}
