package statsapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Per-attempt failure kinds. Every one of them is retried.
var (
	ErrTimeout           = errors.New("request timed out")
	ErrTransport         = errors.New("transport error")
	ErrMalformedJSON     = errors.New("response is not valid JSON")
	ErrMissingResultSets = errors.New("response is missing result sets")
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string // first 512 bytes
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
}

// Blocked reports a 403, which the stats API returns to clients it refuses
// to serve (commonly cloud CI address ranges).
func (e *StatusError) Blocked() bool { return e.Code == http.StatusForbidden }

// RateLimited reports a 429.
func (e *StatusError) RateLimited() bool { return e.Code == http.StatusTooManyRequests }

// IsRateLimited reports whether err carries a 429 response.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.RateLimited()
}
