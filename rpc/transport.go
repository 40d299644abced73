// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rpc

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Response is the raw outcome of posting a request.
type Response struct {
	Status int
	Data   []byte

	// Time is how long the exchange took.
	Time time.Duration
}

// Transport posts request bodies to a reaktor endpoint. An error is
// returned only when no HTTP response was obtained at all.
type Transport interface {
	// Call posts body with the given extra headers and returns the
	// status and payload of the response.
	Call(ctx context.Context, body []byte, headers http.Header) (Response, error)

	// BaseURL returns the endpoint URL.
	BaseURL() string

	// Protocol returns the protocol name used in log lines.
	Protocol() string
}

// HistoryURL returns the URL recorded in the call history for a post:
// the base URL with the body appended as the "json" query parameter.
func HistoryURL(baseURL string, post []byte) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + "json=" + string(post)
}
