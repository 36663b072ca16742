package domain

import (
	"errors"
	"fmt"
)

// DecodeError reports a CSV row that could not be mapped onto a record.
type DecodeError struct {
	Row    int    // 1-based data row; 0 means the header
	Line   int    // 1-based line in the payload, 0 if unknown
	Column string // header name; empty for malformed CSV
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("decode row %d (line %d): %s", e.Row, e.Line, e.Reason)
	}
	return fmt.Sprintf("decode row %d (line %d) column %q: %s", e.Row, e.Line, e.Column, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FetchErrorKind classifies why a fetch failed.
type FetchErrorKind string

const (
	// FetchTransport means the request never produced a response
	// (DNS, connection refused, timeout, truncated body).
	FetchTransport FetchErrorKind = "transport"
	// FetchStatus means the server answered with a non-2xx status.
	FetchStatus FetchErrorKind = "status"
	// FetchDecode means the body was received but a row failed to decode.
	FetchDecode FetchErrorKind = "decode"
)

// FetchError is the single error type returned by a fetch. Decode failures
// wrap a *DecodeError, reachable with errors.As.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int // set for FetchStatus
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchErrorKindOf returns the kind of the first FetchError in err's chain,
// or "unknown" when there is none.
func FetchErrorKindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return "unknown"
}
