// FILE: haystackauth/src/internal/handshake/session.go
package handshake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"haystackauth/src/internal/core"
	"haystackauth/src/internal/scram"
	"haystackauth/src/internal/transport"
	"haystackauth/src/internal/wire"

	"github.com/lixenwraith/log"
)

// State of a handshake session
type State int

const (
	StateInit State = iota
	StateHandshakeSent
	StateClientFirstSent
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateHandshakeSent:
		return "HANDSHAKE_SENT"
	case StateClientFirstSent:
		return "CLIENT_FIRST_SENT"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Transport sends one GET request and returns the detached response.
type Transport interface {
	Get(ctx context.Context, url string, headers map[string]string) (*transport.Response, error)
}

// Attempt is the immutable input of one handshake against one endpoint.
// A new value is built for every candidate.
type Attempt struct {
	Endpoint    string
	Username    string
	Password    string
	AuthPath    string
	StepTimeout time.Duration // 0 leaves the bound to the transport
}

// NewAttempt binds credentials to an endpoint.
func NewAttempt(endpoint string, creds core.Credentials, authPath string, stepTimeout time.Duration) Attempt {
	if authPath == "" {
		authPath = core.DefaultAuthPath
	}
	return Attempt{
		Endpoint:    endpoint,
		Username:    creds.Username,
		Password:    creds.Password,
		AuthPath:    authPath,
		StepTimeout: stepTimeout,
	}
}

// Option customizes a Session
type Option func(*sessionOptions)

type sessionOptions struct {
	nonce func() (string, error)
}

// WithNonceSource replaces the random client nonce generator.
func WithNonceSource(fn func() (string, error)) Option {
	return func(o *sessionOptions) {
		o.nonce = fn
	}
}

// Session drives the three-message exchange against one endpoint. It is
// single-use: after AUTHENTICATED or FAILED it accepts no further calls.
type Session struct {
	attempt   Attempt
	transport Transport
	logger    *log.Logger

	state          State
	handshakeToken string
	conversation   *scram.Client
	serverFirst    *scram.ServerFirst
	clientFinal    *scram.ClientFinal
}

// NewSession creates a session with a fresh client nonce.
func NewSession(attempt Attempt, t Transport, logger *log.Logger, opts ...Option) (*Session, error) {
	o := sessionOptions{nonce: scram.ClientNonce}
	for _, opt := range opts {
		opt(&o)
	}

	nonce, err := o.nonce()
	if err != nil {
		return nil, err
	}

	return &Session{
		attempt:      attempt,
		transport:    t,
		logger:       logger,
		state:        StateInit,
		conversation: scram.NewClient(attempt.Username, attempt.Password, nonce),
	}, nil
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Endpoint returns the base URL this session targets.
func (s *Session) Endpoint() string {
	return s.attempt.Endpoint
}

// ClientNonce returns the nonce generated for this session.
func (s *Session) ClientNonce() string {
	return s.conversation.ClientNonce()
}

// ServerChallenge returns the parsed server-first message, nil before step 2.
func (s *Session) ServerChallenge() *scram.ServerFirst {
	return s.serverFirst
}

// Run performs hello, client-first and client-final in order and returns
// the bearer token. Failures are returned as *Error.
func (s *Session) Run(ctx context.Context) (string, error) {
	if s.state != StateInit {
		return "", ErrSessionUsed
	}
	defer s.close()

	start := time.Now()
	s.logger.Debug("msg", "Handshake started",
		"component", "handshake",
		"endpoint", s.attempt.Endpoint,
		"username", s.attempt.Username)

	if err := s.hello(ctx); err != nil {
		return "", s.fail(err)
	}
	if err := s.checkContext(ctx, StepClientFirst); err != nil {
		return "", s.fail(err)
	}
	if err := s.sendClientFirst(ctx); err != nil {
		return "", s.fail(err)
	}
	if err := s.checkContext(ctx, StepClientFinal); err != nil {
		return "", s.fail(err)
	}
	token, err := s.sendClientFinal(ctx)
	if err != nil {
		return "", s.fail(err)
	}
	// The token must not outlive a cancelled run
	if err := s.checkContext(ctx, StepClientFinal); err != nil {
		return "", s.fail(err)
	}

	s.state = StateAuthenticated
	s.logger.Debug("msg", "Handshake completed",
		"component", "handshake",
		"endpoint", s.attempt.Endpoint,
		"token_length", len(token),
		"elapsed", time.Since(start))
	return token, nil
}

// hello moves INIT -> HANDSHAKE_SENT
func (s *Session) hello(ctx context.Context) error {
	header := wire.EncodeAuthHeader(core.SchemeHello,
		wire.F("username", wire.EncodeData([]byte(s.attempt.Username))))

	resp, err := s.get(ctx, StepHello, header)
	if err != nil {
		return err
	}
	if !isChallengeStatus(resp.StatusCode) {
		return s.newError(KindServerRejected, StepHello, resp.StatusCode, fmt.Errorf("unexpected status"))
	}

	text := responseText(resp, core.HeaderWWWAuthenticate)
	token := strings.TrimSpace(wire.DecodeField(text, "handshakeToken=", ","))
	if token == "" {
		return s.newError(KindProtocol, StepHello, resp.StatusCode, fmt.Errorf("no handshake token in response"))
	}
	if hash := strings.TrimSpace(wire.DecodeField(text, "hash=", ",")); hash != "" && !strings.EqualFold(hash, core.ScramHashName) {
		return s.newError(KindProtocol, StepHello, resp.StatusCode, fmt.Errorf("unsupported hash: %s", hash))
	}

	s.handshakeToken = token
	s.transition(StateHandshakeSent)
	return nil
}

// sendClientFirst moves HANDSHAKE_SENT -> CLIENT_FIRST_SENT
func (s *Session) sendClientFirst(ctx context.Context) error {
	// This step carries the hash hint from WWW-Authenticate, the final step does not
	header := wire.EncodeAuthHeader(core.SchemeScram,
		wire.F("handshakeToken", s.handshakeToken),
		wire.F("hash", core.ScramHashName),
		wire.F("data", wire.EncodeData([]byte(s.conversation.ClientFirstMessage()))))

	resp, err := s.get(ctx, StepClientFirst, header)
	if err != nil {
		return err
	}
	if !isChallengeStatus(resp.StatusCode) {
		return s.newError(KindServerRejected, StepClientFirst, resp.StatusCode, fmt.Errorf("unexpected status"))
	}

	text := responseText(resp, core.HeaderWWWAuthenticate)
	data := strings.TrimSpace(wire.DecodeField(text, "data=", ","))
	if data == "" {
		return s.newError(KindProtocol, StepClientFirst, resp.StatusCode, fmt.Errorf("no server-first data in response"))
	}
	raw, err := wire.DecodeData(data)
	if err != nil {
		return s.newError(KindProtocol, StepClientFirst, resp.StatusCode, err)
	}

	sf, final, err := s.conversation.ProcessServerFirst(string(raw))
	if err != nil {
		kind := KindProtocol
		if errors.Is(err, scram.ErrLengthMismatch) {
			kind = KindLengthMismatch
		}
		return s.newError(kind, StepClientFirst, resp.StatusCode, err)
	}

	s.serverFirst = sf
	s.clientFinal = final
	s.transition(StateClientFirstSent)
	s.logger.Debug("msg", "Server challenge accepted",
		"component", "handshake",
		"endpoint", s.attempt.Endpoint,
		"iterations", sf.Iterations,
		"salt_length", len(sf.Salt))
	return nil
}

// sendClientFinal sends the proof and extracts the bearer token
func (s *Session) sendClientFinal(ctx context.Context) (string, error) {
	header := wire.EncodeAuthHeader(core.SchemeScram,
		wire.F("handshakeToken", s.handshakeToken),
		wire.F("data", wire.EncodeData([]byte(s.clientFinal.String()))))

	resp, err := s.get(ctx, StepClientFinal, header)
	if err != nil {
		return "", err
	}

	switch {
	case resp.IsSuccess():
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return "", s.newError(KindAuthFailed, StepClientFinal, resp.StatusCode, fmt.Errorf("proof rejected"))
	default:
		return "", s.newError(KindServerRejected, StepClientFinal, resp.StatusCode, fmt.Errorf("unexpected status"))
	}

	text := responseText(resp, core.HeaderAuthInfo)
	token := strings.TrimSpace(wire.DecodeField(text, "authToken=", ","))
	if token == "" {
		return "", s.newError(KindAuthFailed, StepClientFinal, resp.StatusCode, fmt.Errorf("no authToken in response"))
	}

	// Servers that send a server-final message get their signature checked
	if data := strings.TrimSpace(wire.DecodeField(text, "data=", ",")); data != "" {
		raw, err := wire.DecodeData(data)
		if err != nil {
			return "", s.newError(KindProtocol, StepClientFinal, resp.StatusCode, err)
		}
		if err := s.conversation.VerifyServerFinal(string(raw)); err != nil {
			kind := KindProtocol
			if errors.Is(err, scram.ErrServerSignature) || errors.Is(err, scram.ErrServerFinalMessage) {
				kind = KindAuthFailed
			}
			return "", s.newError(kind, StepClientFinal, resp.StatusCode, err)
		}
	}

	return token, nil
}

func (s *Session) get(ctx context.Context, step Step, authHeader string) (*transport.Response, error) {
	if s.attempt.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.attempt.StepTimeout)
		defer cancel()
	}

	url := s.attempt.Endpoint + s.attempt.AuthPath
	resp, err := s.transport.Get(ctx, url, map[string]string{
		core.HeaderAuthorization: authHeader,
	})
	if err != nil {
		return nil, s.newError(KindTransport, step, 0, err)
	}
	return resp, nil
}

func (s *Session) checkContext(ctx context.Context, step Step) error {
	if err := ctx.Err(); err != nil {
		return s.newError(KindTransport, step, 0, err)
	}
	return nil
}

func (s *Session) transition(next State) {
	s.logger.Debug("msg", "Handshake state changed",
		"component", "handshake",
		"endpoint", s.attempt.Endpoint,
		"from", s.state.String(),
		"to", next.String())
	s.state = next
}

func (s *Session) fail(err error) error {
	s.logger.Debug("msg", "Handshake failed",
		"component", "handshake",
		"endpoint", s.attempt.Endpoint,
		"state", s.state.String(),
		"kind", string(KindOf(err)))
	s.state = StateFailed
	return err
}

// close drops secrets; the session cannot be resumed afterwards
func (s *Session) close() {
	s.conversation.Wipe()
	s.clientFinal = nil
	s.handshakeToken = ""
	s.attempt.Password = ""
}

func (s *Session) newError(kind Kind, step Step, status int, err error) *Error {
	return &Error{
		Kind:       kind,
		Endpoint:   s.attempt.Endpoint,
		Step:       step,
		StatusCode: status,
		Err:        err,
	}
}

// isChallengeStatus accepts the 401 challenge as well as plain success
func isChallengeStatus(code int) bool {
	return code == 401 || (code >= 200 && code < 300)
}

// responseText prefers the named header and falls back to the body
func responseText(resp *transport.Response, header string) string {
	if h := resp.Header(header); h != "" {
		return h
	}
	return string(resp.Body)
}
