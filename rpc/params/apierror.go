// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package params

import (
	"fmt"
	"net"
	"strconv"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("holon.rpc.params")

// The error kinds raised by a reaktor client. Every kind satisfies
// errors.Is(err, ErrReaktor); the specific API kinds also satisfy
// errors.Is(err, ErrAPI).
const (
	ErrReaktor     = errors.ConstError("reaktor error")
	ErrIO          = errors.ConstError("reaktor io error")
	ErrHTTP        = errors.ConstError("reaktor http error")
	ErrProtocol    = errors.ConstError("reaktor json-rpc error")
	ErrAPI         = errors.ConstError("reaktor api error")
	ErrAuth        = errors.ConstError("reaktor authentication error")
	ErrAccess      = errors.ConstError("reaktor access error")
	ErrArgument    = errors.ConstError("reaktor argument error")
	ErrEntity      = errors.ConstError("reaktor entity error")
	ErrIllegalCall = errors.ConstError("reaktor illegal call error")
)

// The server error codes with a dedicated error kind.
const (
	CodeAuthenticationInvalid       = "AUTHENTICATION_INVALID"
	CodeDiscoveryServiceAccessError = "DISCOVERY_SERVICE_ACCESS_ERROR"
	CodeIllegalArgumentError        = "ILLEGAL_ARGUMENT_ERROR"
	CodeUnknownEntityError          = "UNKNOWN_ENTITY_ERROR"
	CodeIllegalCall                 = "ILLEGAL_CALL"

	// CodeUnknown is used when the server reports an error without
	// any code at all.
	CodeUnknown = "error code unknown"
)

// Well known messages sent by the server along with a generic API error.
const (
	RequestedFeatureNotFound = "Requested feature not found."
	DocumentIsRemoved        = "Document is removed"
)

var codeKinds = map[string]errors.ConstError{
	CodeAuthenticationInvalid:       ErrAuth,
	CodeDiscoveryServiceAccessError: ErrAccess,
	CodeIllegalArgumentError:        ErrArgument,
	CodeUnknownEntityError:          ErrEntity,
	CodeIllegalCall:                 ErrIllegalCall,
}

var parentKinds = map[errors.ConstError]errors.ConstError{
	ErrIO:          ErrReaktor,
	ErrHTTP:        ErrReaktor,
	ErrProtocol:    ErrReaktor,
	ErrAPI:         ErrReaktor,
	ErrAuth:        ErrAPI,
	ErrAccess:      ErrAPI,
	ErrArgument:    ErrAPI,
	ErrEntity:      ErrAPI,
	ErrIllegalCall: ErrAPI,
}

// Error is the error returned for every failed reaktor call. The
// meaning of Code depends on the kind: a transport error code for
// ErrIO, the HTTP status for ErrHTTP and ErrProtocol, the server
// error code for API errors.
type Error struct {
	Kind    errors.ConstError
	Code    string
	Message string

	// CallID is the correlation id supplied by the server with API
	// errors, for support and debugging.
	CallID string

	err error
}

// Error implements error.
func (e *Error) Error() string {
	if e.CallID == "" {
		return fmt.Sprintf("%s | %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s | callId: %s | %s", e.Code, e.CallID, e.Message)
}

// Is reports whether the error is of kind target or one of the
// parents of its kind.
func (e *Error) Is(target error) bool {
	kind, ok := target.(errors.ConstError)
	if !ok {
		return false
	}
	for k := e.Kind; k != ""; k = parentKinds[k] {
		if k == kind {
			return true
		}
	}
	return false
}

// Unwrap returns the underlying transport failure of an ErrIO error.
func (e *Error) Unwrap() error {
	return e.err
}

// ErrorCode returns the code associated with the error.
func (e *Error) ErrorCode() string {
	return e.Code
}

func newError(kind errors.ConstError, code, message, callID string, cause error) *Error {
	err := &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		CallID:  callID,
		err:     cause,
	}
	logger.Errorf("reaktor error: %s", err)
	return err
}

// NewIOError returns an ErrIO error for a failed transport attempt.
func NewIOError(cause error) *Error {
	code := "IO"
	var netErr net.Error
	if errors.As(cause, &netErr) && netErr.Timeout() {
		code = "TIMEOUT"
	}
	return newError(ErrIO, code, cause.Error(), "", cause)
}

// NewHTTPError returns an ErrHTTP error for a non-200 response.
func NewHTTPError(status int, message string) *Error {
	return newError(ErrHTTP, strconv.Itoa(status), message, "", nil)
}

// NewProtocolError returns an ErrProtocol error for a malformed
// envelope or an RPC id mismatch.
func NewProtocolError(status int, message string) *Error {
	return newError(ErrProtocol, strconv.Itoa(status), message, "", nil)
}

// NewAPIError returns the API error of the kind registered for code,
// falling back to a generic ErrAPI error carrying the code.
func NewAPIError(code, message, callID string) *Error {
	kind, ok := codeKinds[code]
	if !ok {
		kind = ErrAPI
	}
	return newError(kind, code, message, callID, nil)
}

// FromPayload translates the "error" member of a response into an
// API error. The code is read from "reaktorErrorCode", then "code".
func FromPayload(payload map[string]any) *Error {
	code := CodeUnknown
	if v, ok := payload["reaktorErrorCode"]; ok && v != nil {
		code = stringify(v)
	} else if v, ok := payload["code"]; ok && v != nil {
		code = stringify(v)
	}
	message := code
	if v, ok := payload["msg"]; ok && v != nil {
		message = stringify(v)
	}
	var callID string
	if v, ok := payload["callId"]; ok && v != nil {
		callID = stringify(v)
	}
	return NewAPIError(code, message, callID)
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ErrCode returns the code of a reaktor error, or "" if err is not
// one.
func ErrCode(err error) string {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Code
	}
	return ""
}

// CallID returns the server correlation id of a reaktor error, or ""
// if there is none.
func CallID(err error) string {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.CallID
	}
	return ""
}

// Kind returns the kind of a reaktor error, or "" if err is not one.
func Kind(err error) errors.ConstError {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return ""
}
