package apiclient

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindValidation         Kind = "validation"
	KindServerError        Kind = "server_error"
	KindNetworkUnavailable Kind = "network_unavailable"
	KindUnexpected         Kind = "unexpected"
)

// Error is returned for every failed call: transport failures (Status 0) and non-2xx responses.
// Error() keeps the status and the raw body in the message.
type Error struct {
	Method   string
	Endpoint string
	Status   int
	Kind     Kind
	Body     string
	Err      error // transport error, if any
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: network unavailable: %v", e.Method, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Endpoint, e.Status, e.Body)
}

func (e *Error) Unwrap() error { return e.Err }

// KindForStatus maps an HTTP status code to an error Kind.
func KindForStatus(status int) Kind {
	switch {
	case status == 0:
		return KindNetworkUnavailable
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= http.StatusInternalServerError:
		return KindServerError
	}
	return KindUnexpected
}

// AsError extracts an *Error from err's cause chain.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	if e, ok := errors.Cause(err).(*Error); ok {
		return e, true
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}
