// FILE: haystackauth/src/internal/scramtest/server.go

// Package scramtest provides an in-memory automation server speaking the
// HELLO/SCRAM handshake, for tests of the client side.
package scramtest

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"haystackauth/src/internal/core"
	"haystackauth/src/internal/scram"
	"haystackauth/src/internal/wire"

	"github.com/valyala/fasthttp"
)

// Credential stores the server side of a SCRAM user
type Credential struct {
	Username   string
	Salt       []byte
	Iterations int
	StoredKey  []byte
	ServerKey  []byte
}

// DeriveCredential creates a credential from a password
func DeriveCredential(username, password string, salt []byte, iterations int) *Credential {
	salted := scram.SaltedPassword(password, salt, iterations)
	clientKey := scram.ClientKey(salted)
	return &Credential{
		Username:   username,
		Salt:       salt,
		Iterations: iterations,
		StoredKey:  scram.StoredKey(clientKey),
		ServerKey:  scram.ServerKey(salted),
	}
}

// Behavior bends the server away from the happy path.
type Behavior struct {
	// ServerFirst replaces the generated server-first message verbatim
	ServerFirst string

	OmitHandshakeToken   bool
	OmitAuthToken        bool
	OmitServerFinal      bool
	ForgeServerSignature bool
	RejectBearer         bool

	// Hash is announced in WWW-Authenticate; "" means SHA-256
	Hash string

	// Status codes override the normal reply of a step when non-zero
	HelloStatus       int
	ClientFirstStatus int
	ClientFinalStatus int
	ValidateStatus    int

	// Delay is applied before answering any request
	Delay time.Duration
}

type handshakeState struct {
	username        string
	clientFirstBare string
	serverFirst     string
	createdAt       time.Time
}

// Server handles SCRAM authentication over HTTP headers
type Server struct {
	AuthPath     string
	ValidatePath string
	Behavior     Behavior

	mu           sync.Mutex
	credentials  map[string]*Credential
	handshakes   map[string]*handshakeState
	tokens       map[string]string
	clientNonces []string
}

// NewServer creates a server with one registered user.
func NewServer(username, password string) *Server {
	s := &Server{
		AuthPath:     core.DefaultAuthPath,
		ValidatePath: core.DefaultValidatePath,
		credentials:  make(map[string]*Credential),
		handshakes:   make(map[string]*handshakeState),
		tokens:       make(map[string]string),
	}
	s.AddCredential(DeriveCredential(username, password, randomBytes(16), 4096))
	return s
}

// AddCredential registers user credential
func (s *Server) AddCredential(cred *Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[cred.Username] = cred
}

// ClientNonces returns every client nonce received, in order.
func (s *Server) ClientNonces() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clientNonces...)
}

// IssuedTokens returns the number of bearer tokens handed out.
func (s *Server) IssuedTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// Handler returns the fasthttp request handler
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if s.Behavior.Delay > 0 {
			time.Sleep(s.Behavior.Delay)
		}

		authz := string(ctx.Request.Header.Peek(core.HeaderAuthorization))
		path := string(ctx.Path())
		scheme, _, _ := strings.Cut(authz, " ")

		switch {
		case path == s.ValidatePath && strings.EqualFold(scheme, core.SchemeBearer):
			s.handleBearer(ctx, strings.TrimSpace(strings.TrimPrefix(authz, scheme)))
		case path != s.AuthPath:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		case scheme == core.SchemeHello:
			s.handleHello(ctx, authz)
		case scheme == core.SchemeScram:
			s.handleScram(ctx, authz)
		default:
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			ctx.Response.Header.Set(core.HeaderWWWAuthenticate, "HELLO")
		}
	}
}

func (s *Server) handleHello(ctx *fasthttp.RequestCtx, authz string) {
	if s.Behavior.HelloStatus != 0 {
		ctx.SetStatusCode(s.Behavior.HelloStatus)
		return
	}

	username, err := base64.RawURLEncoding.DecodeString(wire.DecodeField(authz, "username=", ","))
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return
	}

	token := randomHex(12)
	s.mu.Lock()
	s.handshakes[token] = &handshakeState{username: string(username), createdAt: time.Now()}
	s.cleanupHandshakes()
	s.mu.Unlock()

	hash := s.Behavior.Hash
	if hash == "" {
		hash = core.ScramHashName
	}

	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	if s.Behavior.OmitHandshakeToken {
		ctx.Response.Header.Set(core.HeaderWWWAuthenticate, "SCRAM hash="+hash)
		return
	}
	ctx.Response.Header.Set(core.HeaderWWWAuthenticate,
		wire.EncodeAuthHeader(core.SchemeScram, wire.F("handshakeToken", token), wire.F("hash", hash)))
}

func (s *Server) handleScram(ctx *fasthttp.RequestCtx, authz string) {
	token := wire.DecodeField(authz, "handshakeToken=", ",")
	data, err := base64.RawURLEncoding.DecodeString(wire.DecodeField(authz, "data=", ","))
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.handshakes[token]
	if !ok {
		ctx.SetStatusCode(fasthttp.StatusForbidden)
		return
	}

	if state.serverFirst == "" {
		s.handleClientFirst(ctx, token, state, string(data))
		return
	}

	// Handshake tokens are single use after the final message
	delete(s.handshakes, token)
	s.handleClientFinal(ctx, state, string(data))
}

// handleClientFirst must be called with s.mu held
func (s *Server) handleClientFirst(ctx *fasthttp.RequestCtx, token string, state *handshakeState, msg string) {
	bare, ok := strings.CutPrefix(msg, core.GS2Header)
	if !ok {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return
	}
	username := wire.DecodeField(bare, "n=", ",")
	clientNonce := wire.DecodeField(bare, ",r=", ",")
	s.clientNonces = append(s.clientNonces, clientNonce)

	if s.Behavior.ClientFirstStatus != 0 {
		ctx.SetStatusCode(s.Behavior.ClientFirstStatus)
		return
	}

	cred, exists := s.credentials[username]
	if !exists || username != state.username {
		// Unknown users still get a challenge to prevent enumeration
		cred = DeriveCredential(username, randomHex(8), randomBytes(16), 4096)
	}

	state.clientFirstBare = bare
	state.serverFirst = s.Behavior.ServerFirst
	if state.serverFirst == "" {
		state.serverFirst = fmt.Sprintf("r=%s%s,s=%s,i=%d",
			clientNonce, randomHex(8), base64.StdEncoding.EncodeToString(cred.Salt), cred.Iterations)
	}

	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.Response.Header.Set(core.HeaderWWWAuthenticate, wire.EncodeAuthHeader(core.SchemeScram,
		wire.F("handshakeToken", token),
		wire.F("hash", core.ScramHashName),
		wire.F("data", base64.StdEncoding.EncodeToString([]byte(state.serverFirst)))))
}

// handleClientFinal must be called with s.mu held
func (s *Server) handleClientFinal(ctx *fasthttp.RequestCtx, state *handshakeState, msg string) {
	if s.Behavior.ClientFinalStatus != 0 {
		ctx.SetStatusCode(s.Behavior.ClientFinalStatus)
		return
	}

	idx := strings.LastIndex(msg, ",p=")
	if idx < 0 {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return
	}
	withoutProof := msg[:idx]
	proof, err := base64.StdEncoding.DecodeString(msg[idx+len(",p="):])
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return
	}

	cred, exists := s.credentials[state.username]
	if !exists {
		ctx.SetStatusCode(fasthttp.StatusForbidden)
		return
	}

	authMessage := scram.AuthMessage(state.clientFirstBare, state.serverFirst, withoutProof)
	clientSignature := scram.ClientSignature(cred.StoredKey, authMessage)
	if len(proof) != len(clientSignature) {
		ctx.SetStatusCode(fasthttp.StatusForbidden)
		return
	}
	clientKey := make([]byte, len(proof))
	for i := range proof {
		clientKey[i] = proof[i] ^ clientSignature[i]
	}
	computed := sha256.Sum256(clientKey)
	if subtle.ConstantTimeCompare(computed[:], cred.StoredKey) != 1 {
		ctx.SetStatusCode(fasthttp.StatusForbidden)
		return
	}

	if s.Behavior.OmitAuthToken {
		ctx.SetStatusCode(fasthttp.StatusOK)
		return
	}

	bearer := randomHex(24)
	s.tokens[bearer] = state.username

	serverSignature := scram.ServerSignature(cred.ServerKey, authMessage)
	if s.Behavior.ForgeServerSignature {
		serverSignature = randomBytes(len(serverSignature))
	}

	info := "authToken=" + bearer
	if !s.Behavior.OmitServerFinal {
		serverFinal := "v=" + base64.StdEncoding.EncodeToString(serverSignature)
		info += ", data=" + base64.StdEncoding.EncodeToString([]byte(serverFinal))
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.Response.Header.Set(core.HeaderAuthInfo, info)
}

func (s *Server) handleBearer(ctx *fasthttp.RequestCtx, token string) {
	if s.Behavior.ValidateStatus != 0 {
		ctx.SetStatusCode(s.Behavior.ValidateStatus)
		return
	}

	s.mu.Lock()
	_, ok := s.tokens[token]
	s.mu.Unlock()

	if !ok || s.Behavior.RejectBearer {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"productName":"scramtest","serverName":"scramtest"}`)
}

func (s *Server) cleanupHandshakes() {
	cutoff := time.Now().Add(-60 * time.Second)
	for token, state := range s.handshakes {
		if state.createdAt.Before(cutoff) {
			delete(s.handshakes, token)
		}
	}
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

func randomHex(n int) string {
	return hex.EncodeToString(randomBytes(n))
}
