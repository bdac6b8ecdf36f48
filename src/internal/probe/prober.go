// FILE: haystackauth/src/internal/probe/prober.go
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"haystackauth/src/internal/core"
	"haystackauth/src/internal/handshake"

	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"
)

// Options configure a Prober
type Options struct {
	AuthPath     string
	ValidatePath string // "" skips token validation

	// StepTimeout bounds each request; 0 leaves it to the transport
	StepTimeout time.Duration

	// AttemptInterval is the minimum spacing between candidate attempts
	AttemptInterval time.Duration

	// NonceSource replaces the random client nonce generator
	NonceSource func() (string, error)
}

// Result is the first working endpoint and the token it issued, along with
// the record of every candidate tried up to it.
type Result struct {
	Endpoint string
	Token    string
	Attempts []AttemptRecord
}

// Prober tries candidate endpoints one after another until one
// authenticates and accepts its token.
type Prober struct {
	transport handshake.Transport
	logger    *log.Logger
	opts      Options
	limiter   *rate.Limiter

	runHandshake func(ctx context.Context, attempt handshake.Attempt) (string, error)
}

// New creates a prober
func New(t handshake.Transport, logger *log.Logger, opts Options) *Prober {
	if opts.AuthPath == "" {
		opts.AuthPath = core.DefaultAuthPath
	}

	p := &Prober{
		transport: t,
		logger:    logger,
		opts:      opts,
	}
	if opts.AttemptInterval > 0 {
		p.limiter = rate.NewLimiter(rate.Every(opts.AttemptInterval), 1)
	}
	p.runHandshake = p.handshake
	return p
}

// Probe runs the handshake against each candidate in order. It returns the
// first endpoint whose token validates, a *NoWorkingEndpointError when all
// fail, or immediately on cancellation and internal derivation faults.
func (p *Prober) Probe(ctx context.Context, candidates []string, creds core.Credentials) (*Result, error) {
	endpoints, err := normalizeCandidates(candidates)
	if err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		return nil, ErrNoCandidates
	}

	p.logger.Info("msg", "Probing endpoints",
		"component", "probe",
		"candidates", len(endpoints),
		"credentials", creds.Redacted())

	records := make([]AttemptRecord, 0, len(endpoints))
	for i, ep := range endpoints {
		if err := p.pace(ctx); err != nil {
			return nil, fmt.Errorf("probe cancelled before %s: %w", ep, err)
		}

		start := time.Now()
		attempt := handshake.NewAttempt(ep, creds, p.opts.AuthPath, p.opts.StepTimeout)

		token, err := p.runHandshake(ctx, attempt)
		if err == nil && p.opts.ValidatePath != "" {
			err = p.validate(ctx, ep, token)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("probe cancelled at %s: %w", ep, ctxErr)
		}

		record := newRecord(ep, err, time.Since(start))
		records = append(records, record)

		if err == nil {
			p.logger.Info("msg", "Endpoint authenticated",
				"component", "probe",
				"endpoint", ep,
				"attempt", i+1,
				"duration", record.Duration)
			return &Result{Endpoint: ep, Token: token, Attempts: records}, nil
		}

		// Derivation faults and unclassified errors are local, another
		// candidate would hit them again
		if record.Kind == handshake.KindLengthMismatch || record.Kind == "" {
			p.logger.Error("msg", "Local handshake fault, aborting probe",
				"component", "probe",
				"endpoint", ep,
				"error", err)
			return nil, err
		}

		p.logger.Warn("msg", "Endpoint attempt failed",
			"component", "probe",
			"endpoint", ep,
			"attempt", i+1,
			"kind", string(record.Kind),
			"step", string(record.Step),
			"status_code", record.StatusCode,
			"error", err)
	}

	return nil, &NoWorkingEndpointError{Attempts: records}
}

// pace waits for the attempt limiter and checks for cancellation
func (p *Prober) pace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

func (p *Prober) handshake(ctx context.Context, attempt handshake.Attempt) (string, error) {
	var opts []handshake.Option
	if p.opts.NonceSource != nil {
		opts = append(opts, handshake.WithNonceSource(p.opts.NonceSource))
	}

	session, err := handshake.NewSession(attempt, p.transport, p.logger, opts...)
	if err != nil {
		return "", err
	}
	return session.Run(ctx)
}

// validate issues one authenticated request with the bearer token
func (p *Prober) validate(ctx context.Context, endpoint, token string) error {
	if p.opts.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.StepTimeout)
		defer cancel()
	}

	resp, err := p.transport.Get(ctx, endpoint+p.opts.ValidatePath, map[string]string{
		core.HeaderAuthorization: core.SchemeBearer + " " + token,
	})
	if err != nil {
		return &handshake.Error{
			Kind:     handshake.KindTransport,
			Endpoint: endpoint,
			Step:     handshake.StepValidate,
			Err:      err,
		}
	}
	if !resp.IsSuccess() {
		return &handshake.Error{
			Kind:       handshake.KindServerRejected,
			Endpoint:   endpoint,
			Step:       handshake.StepValidate,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("token rejected by %s", p.opts.ValidatePath),
		}
	}
	return nil
}

func newRecord(endpoint string, err error, elapsed time.Duration) AttemptRecord {
	record := AttemptRecord{Endpoint: endpoint, Err: err, Duration: elapsed}
	if err == nil {
		return record
	}

	record.Kind = handshake.KindOf(err)
	var herr *handshake.Error
	if errors.As(err, &herr) {
		record.Step = herr.Step
		record.StatusCode = herr.StatusCode
	}
	return record
}
