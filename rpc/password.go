// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rpc

import (
	"crypto/sha1"
	"encoding/hex"
)

// HashPassword returns the hex SHA-1 digest of password, the form in
// which the authentication calls of the reaktor expect it.
func HashPassword(password string) string {
	sum := sha1.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}
