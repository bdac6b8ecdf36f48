// FILE: haystackauth/src/internal/report/reporter.go

// Package report renders probe results for operators. The probe packages
// return structured values only; all narration happens here.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"haystackauth/src/internal/handshake"
	"haystackauth/src/internal/probe"
)

// Reporter writes human-readable probe outcomes
type Reporter struct {
	w io.Writer
}

// New creates a reporter writing to w
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Attempts writes one line per tried candidate.
func (r *Reporter) Attempts(records []probe.AttemptRecord) {
	for i, rec := range records {
		r.attempt(i+1, rec)
	}
}

func (r *Reporter) attempt(n int, rec probe.AttemptRecord) {
	if rec.Succeeded() {
		fmt.Fprintf(r.w, "[%d] %-40s ok (%s)\n", n, rec.Endpoint, rec.Duration.Round(time.Millisecond))
		return
	}

	detail := string(rec.Kind)
	if rec.Step != "" {
		detail += " at " + string(rec.Step)
	}
	if rec.StatusCode != 0 {
		detail += fmt.Sprintf(", status %d", rec.StatusCode)
	}
	fmt.Fprintf(r.w, "[%d] %-40s %s (%s)\n", n, rec.Endpoint, detail, rec.Duration.Round(time.Millisecond))
	if rec.Err != nil {
		fmt.Fprintf(r.w, "    %s\n", rootCause(rec.Err))
	}
}

// Success writes the attempt lines and the working endpoint. The token is
// described, never printed.
func (r *Reporter) Success(res *probe.Result) {
	r.Attempts(res.Attempts)
	fmt.Fprintf(r.w, "Authenticated against %s\n", res.Endpoint)
	fmt.Fprintf(r.w, "Token: %s\n", DescribeToken(res.Token))
}

// Failure writes the enumeration of a failed probe, or the error itself
// when it is not an aggregate.
func (r *Reporter) Failure(err error) {
	var nwe *probe.NoWorkingEndpointError
	if errors.As(err, &nwe) {
		r.Attempts(nwe.Attempts)
		fmt.Fprintf(r.w, "No working endpoint: %d candidate(s) failed\n", len(nwe.Attempts))
		for _, kc := range summarize(nwe.Attempts) {
			fmt.Fprintf(r.w, "  %-22s %d\n", kc.kind, kc.count)
		}
		return
	}

	if kind := handshake.KindOf(err); kind != "" {
		fmt.Fprintf(r.w, "Probe aborted: %s: %v\n", kind, err)
		return
	}
	fmt.Fprintf(r.w, "Probe aborted: %v\n", err)
}

// summarize counts failures per kind in a fixed kind order
func summarize(records []probe.AttemptRecord) []kindCount {
	counts := make(map[handshake.Kind]int)
	for _, rec := range records {
		counts[rec.Kind]++
	}

	out := make([]kindCount, 0, len(counts))
	for _, kind := range kindOrder {
		if c := counts[kind]; c > 0 {
			out = append(out, kindCount{kind: kind, count: c})
		}
	}
	return out
}

var kindOrder = []handshake.Kind{
	handshake.KindTransport,
	handshake.KindProtocol,
	handshake.KindServerRejected,
	handshake.KindAuthFailed,
	handshake.KindLengthMismatch,
}

type kindCount struct {
	kind  handshake.Kind
	count int
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
