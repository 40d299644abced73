// Copyright 2012, 2013 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package version holds the version of the client library.
package version

import (
	"fmt"
	"runtime"
	"strings"

	semversion "github.com/juju/version/v2"
)

// version is the release number; it must parse as a version number.
const version = "1.2.0"

// Current gives the current version of the client library.
var Current = semversion.MustParse(version)

// UserAgent returns the User-Agent sent to the reaktor when none is
// configured.
func UserAgent() string {
	return fmt.Sprintf("holon/%s/%s (go%s;%s)",
		Current, runtime.GOOS, strings.TrimPrefix(runtime.Version(), "go"), runtime.GOARCH)
}
