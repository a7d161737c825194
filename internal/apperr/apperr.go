// Package apperr holds the error taxonomy shared by the upstream clients and
// the communication config service.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by upstream clients when the requested record
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingDependency signals a fetched record that lacks the data
	// needed to correlate it with another source.
	ErrMissingDependency = errors.New("missing dependency")
)

// UpstreamError is returned when an upstream answers with a status other
// than success or not-found.
type UpstreamError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Upstream, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Upstream, e.StatusCode, e.Body)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
