// Copyright 2012, 2013 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rpc_test

import (
	"encoding/json"
	"regexp"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/txtr/holon/rpc"
)

type suite struct{}

var _ = gc.Suite(&suite{})

func (*suite) TestRequestEnvelope(c *gc.C) {
	req, err := rpc.NewRequest("WSAuth.authenticateAnonymousUser", []any{"realm", 42}, "abcd1234")
	c.Assert(err, jc.ErrorIsNil)
	data, err := req.Marshal()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, `{"method":"WSAuth.authenticateAnonymousUser","params":["realm",42],"id":"abcd1234"}`)
}

func (*suite) TestRequestNoArgs(c *gc.C) {
	req, err := rpc.NewRequest("WSAuth.ping", nil, "x")
	c.Assert(err, jc.ErrorIsNil)
	data, err := req.Marshal()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, `{"method":"WSAuth.ping","params":[],"id":"x"}`)
}

func (*suite) TestRequestRejectsBareName(c *gc.C) {
	_, err := rpc.NewRequest("ping", nil, "x")
	c.Assert(err, gc.ErrorMatches, `function name "ping" not valid`)
}

func (*suite) TestSetsEncodeAsSortedLists(c *gc.C) {
	args := []any{
		set.NewStrings("c", "a", "b"),
		set.NewInts(3, 1, 2),
		[]any{set.NewStrings("z", "y")},
		map[string]any{"ids": set.NewStrings("2", "1")},
	}
	req, err := rpc.NewRequest("WSDocMgmt.getDocuments", args, "x")
	c.Assert(err, jc.ErrorIsNil)
	data, err := req.Marshal()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals,
		`{"method":"WSDocMgmt.getDocuments","params":[["a","b","c"],[1,2,3],[["y","z"]],{"ids":["1","2"]}],"id":"x"}`)
}

func (*suite) TestEncodeParamsIsCanonical(c *gc.C) {
	a, err := rpc.EncodeParams([]any{map[string]any{"b": 1, "a": 2}, set.NewStrings("y", "x")})
	c.Assert(err, jc.ErrorIsNil)
	b, err := rpc.EncodeParams([]any{map[string]any{"a": 2, "b": 1}, set.NewStrings("x", "y")})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(a, gc.Equals, b)
}

func (*suite) TestDecodeEnvelope(c *gc.C) {
	env, err := rpc.DecodeEnvelope([]byte(`{"result":{"n":1.5},"id":"abc"}`))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(env.HasError(), jc.IsFalse)
	c.Check(env.ResponseID(), gc.Equals, "abc")
	raw, err := env.DecodeResult()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(raw, jc.DeepEquals, map[string]any{"n": json.Number("1.5")})
}

func (*suite) TestDecodeEnvelopeDefaults(c *gc.C) {
	env, err := rpc.DecodeEnvelope([]byte(`{"error":{},"id":7}`))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(env.HasError(), jc.IsFalse)
	c.Check(env.ResponseID(), gc.Equals, "7")
	raw, err := env.DecodeResult()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(raw, jc.DeepEquals, map[string]any{})

	env, err = rpc.DecodeEnvelope([]byte(`{"result":null}`))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(env.ResponseID(), gc.Equals, "")
	raw, err = env.DecodeResult()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(raw, jc.DeepEquals, map[string]any{})
}

func (*suite) TestDecodeEnvelopeError(c *gc.C) {
	env, err := rpc.DecodeEnvelope([]byte(`{"error":{"reaktorErrorCode":"ILLEGAL_CALL"},"id":"a"}`))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(env.HasError(), jc.IsTrue)
	c.Check(env.Error["reaktorErrorCode"], gc.Equals, "ILLEGAL_CALL")

	_, err = rpc.DecodeEnvelope([]byte(`<html>`))
	c.Assert(err, gc.ErrorMatches, "decoding response: .*")
}

func (*suite) TestHistoryURL(c *gc.C) {
	post := []byte(`{"method":"A.b","params":[],"id":"x"}`)
	c.Check(rpc.HistoryURL("https://txtr.com:443/json/rpc", post), gc.Equals,
		`https://txtr.com:443/json/rpc?json={"method":"A.b","params":[],"id":"x"}`)
	c.Check(rpc.HistoryURL("https://txtr.com:443/json/rpc?v=1", post), gc.Equals,
		`https://txtr.com:443/json/rpc?v=1&json={"method":"A.b","params":[],"id":"x"}`)
}

var idPattern = regexp.MustCompile(`^[a-z0-9]+$`)

func (*suite) TestRandomIDs(c *gc.C) {
	gen := rpc.RandomIDs(rpc.DefaultIDLength)
	seen := set.NewStrings()
	for i := 0; i < 100; i++ {
		id := gen.NewID()
		c.Assert(id, gc.HasLen, 8)
		c.Assert(idPattern.MatchString(id), jc.IsTrue, gc.Commentf("id %q", id))
		seen.Add(id)
	}
	c.Check(seen.Size() > 90, jc.IsTrue)
}

func (*suite) TestULIDs(c *gc.C) {
	gen := rpc.ULIDs()
	prev := ""
	for i := 0; i < 20; i++ {
		id := gen.NewID()
		c.Assert(id, gc.HasLen, 26)
		c.Assert(idPattern.MatchString(id), jc.IsTrue, gc.Commentf("id %q", id))
		c.Assert(id > prev, jc.IsTrue)
		prev = id
	}
}

func (*suite) TestNewIDGenerator(c *gc.C) {
	for kind, pattern := range map[string]string{
		"":       `^[a-z0-9]{8}$`,
		"random": `^[a-z0-9]{8}$`,
		"ulid":   `^[0-9a-z]{26}$`,
		"xid":    `^[0-9a-v]{20}$`,
		"uuid":   `^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`,
	} {
		gen, err := rpc.NewIDGenerator(kind)
		c.Assert(err, jc.ErrorIsNil)
		c.Check(gen.NewID(), gc.Matches, pattern, gc.Commentf("kind %q", kind))
		c.Check(gen.NewID(), gc.Not(gc.Equals), gen.NewID())
	}
	_, err := rpc.NewIDGenerator("serial")
	c.Check(err, jc.ErrorIs, errors.NotValid)
}

func (*suite) TestHashPassword(c *gc.C) {
	c.Check(rpc.HashPassword("secret"), gc.Equals, "e5e9fa1ba31ecd1ae84f75caaa474f3a663f05f4")
}
