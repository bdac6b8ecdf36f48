// FILE: haystackauth/src/internal/probe/errors.go
package probe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"haystackauth/src/internal/handshake"
)

// Input errors, returned before any request is sent
var (
	ErrNoCandidates    = errors.New("no candidate endpoints")
	ErrInvalidEndpoint = errors.New("invalid endpoint")
)

// AttemptRecord describes the outcome of one candidate. Kind is empty on
// success.
type AttemptRecord struct {
	Endpoint   string
	Kind       handshake.Kind
	Step       handshake.Step
	StatusCode int
	Err        error
	Duration   time.Duration
}

// Succeeded reports whether this candidate produced a validated token.
func (r AttemptRecord) Succeeded() bool {
	return r.Err == nil
}

// NoWorkingEndpointError lists the failure of every candidate, in the order
// they were tried.
type NoWorkingEndpointError struct {
	Attempts []AttemptRecord
}

func (e *NoWorkingEndpointError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s at %s", a.Endpoint, a.Kind, a.Step))
	}
	return fmt.Sprintf("no working endpoint among %d candidates (%s)", len(e.Attempts), strings.Join(parts, "; "))
}

// Kind is always NoWorkingEndpoint
func (e *NoWorkingEndpointError) Kind() handshake.Kind {
	return handshake.KindNoWorkingEndpoint
}

// FailureKind lets handshake.KindOf classify the aggregate.
func (e *NoWorkingEndpointError) FailureKind() handshake.Kind {
	return e.Kind()
}
