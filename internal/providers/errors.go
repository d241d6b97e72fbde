package providers

import "fmt"

// UpstreamError means the provider was unreachable or answered non-2xx.
// The message lands verbatim on the execution record, so keep it readable.
type UpstreamError struct {
	URL        string
	StatusCode int // 0 on transport failure
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider returned HTTP %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("provider unreachable at %s: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ParseError means the provider answered 2xx but the payload could not be
// decoded into list items.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
