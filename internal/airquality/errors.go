package airquality

import (
	"errors"
	"fmt"
)

// The lookup chain fails in exactly one of three ways: the city did not
// resolve, the resolved location has no reading, or a dependent API call
// failed. Callers match with errors.Is / errors.As and map each kind to a
// fixed user-facing message.
var (
	ErrCityNotFound = errors.New("city not found")
	ErrNoReading    = errors.New("no air quality reading available")
)

// UpstreamError wraps a failed or malformed call to a dependent API.
// Op names the stage that failed (forward geocode, reverse geocode,
// air pollution fetch).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err is an UpstreamError at any wrap depth.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
