// FILE: haystackauth/src/internal/handshake/errors.go
package handshake

import (
	"errors"
	"fmt"
)

// Kind classifies a failed attempt so callers can tell "no server running"
// from "wrong password".
type Kind string

const (
	// KindTransport is a connection, timeout or cancellation failure.
	KindTransport Kind = "TransportError"
	// KindProtocol is a malformed or missing field in a response.
	KindProtocol Kind = "ProtocolError"
	// KindServerRejected is an unexpected HTTP status.
	KindServerRejected Kind = "ServerRejected"
	// KindAuthFailed means the server did not accept the proof.
	KindAuthFailed Kind = "AuthenticationFailed"
	// KindLengthMismatch is an internal derivation bug; never retried.
	KindLengthMismatch Kind = "LengthMismatch"
	// KindNoWorkingEndpoint aggregates the failures of every candidate.
	KindNoWorkingEndpoint Kind = "NoWorkingEndpoint"
)

// Step names the exchange that failed
type Step string

const (
	StepHello       Step = "hello"
	StepClientFirst Step = "client-first"
	StepClientFinal Step = "client-final"
	StepValidate    Step = "validate"
)

// ErrSessionUsed is returned when Run is called on a session that already ran.
var ErrSessionUsed = errors.New("handshake session already used")

// Error is a classified handshake failure for one endpoint.
type Error struct {
	Kind       Kind
	Endpoint   string
	Step       Step
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s at %s", e.Endpoint, e.Kind, e.Step)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain, "" when unclassified.
func KindOf(err error) Kind {
	var k interface{ FailureKind() Kind }
	if errors.As(err, &k) {
		return k.FailureKind()
	}
	return ""
}

// FailureKind implements the kind lookup used by KindOf.
func (e *Error) FailureKind() Kind {
	return e.Kind
}
