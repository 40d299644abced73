// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rpc

import (
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/utils/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/xid"
)

// IDGenerator supplies the ids sent with each request.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

// NewID implements IDGenerator.
func (f IDGeneratorFunc) NewID() string {
	return f()
}

// DefaultIDLength is the length of ids produced by RandomIDs with the
// length the reaktor service has always been sent.
const DefaultIDLength = 8

var idRunes = append(append([]rune{}, utils.LowerAlpha...), utils.Digits...)

// RandomIDs returns a generator of random ids of n characters drawn
// from lowercase letters and digits.
func RandomIDs(n int) IDGenerator {
	if n <= 0 {
		n = DefaultIDLength
	}
	return IDGeneratorFunc(func() string {
		return utils.RandomString(n, idRunes)
	})
}

type ulidGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// ULIDs returns a generator of lowercased, monotonically increasing
// ULIDs.
func ULIDs() IDGenerator {
	return &ulidGenerator{
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
	}
}

// NewID implements IDGenerator.
func (g *ulidGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String())
}

// XIDs returns a generator of 20 character ids that sort by creation
// time.
func XIDs() IDGenerator {
	return IDGeneratorFunc(func() string {
		return xid.New().String()
	})
}

// UUIDs returns a generator of random version 4 UUIDs.
func UUIDs() IDGenerator {
	return IDGeneratorFunc(uuid.NewString)
}

// The names accepted by NewIDGenerator.
const (
	RandomIDKind = "random"
	ULIDKind     = "ulid"
	XIDKind      = "xid"
	UUIDKind     = "uuid"
)

// NewIDGenerator returns the generator of the given kind. The empty
// kind is RandomIDKind.
func NewIDGenerator(kind string) (IDGenerator, error) {
	switch kind {
	case "", RandomIDKind:
		return RandomIDs(DefaultIDLength), nil
	case ULIDKind:
		return ULIDs(), nil
	case XIDKind:
		return XIDs(), nil
	case UUIDKind:
		return UUIDs(), nil
	}
	return nil, errors.NotValidf("id generator %q", kind)
}
