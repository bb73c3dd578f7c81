package fetch

import (
	"errors"
	"fmt"
)

// ErrResolutionMiss is returned by ResolveCategories when a slug matches no
// category. Fetch treats it as "no category constraint".
var ErrResolutionMiss = errors.New("category did not resolve")

// TransportError reports a network failure or a non-2xx response.
// StatusCode is 0 when no response was received.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a payload that does not have the expected shape.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
