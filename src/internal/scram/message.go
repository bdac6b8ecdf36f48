// FILE: haystackauth/src/internal/scram/message.go
package scram

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"haystackauth/src/internal/core"
	"haystackauth/src/internal/wire"
)

// ServerFirst contains the server challenge
type ServerFirst struct {
	Nonce      string // client_nonce + server_nonce
	Salt       []byte
	Iterations int

	// Raw is the message exactly as received; it enters the auth message verbatim.
	Raw string
}

// ClientFinal contains the client proof
type ClientFinal struct {
	ChannelBinding string
	Nonce          string
	Proof          []byte
}

// ServerFinal carries the server verifier or an error attribute
type ServerFinal struct {
	Verifier []byte
	Error    string
}

// ClientFirstBare builds "n=<user>,r=<nonce>".
func ClientFirstBare(username, nonce string) string {
	return "n=" + username + ",r=" + nonce
}

// ParseServerFirst extracts r=, s= and i= from a server-first message.
func ParseServerFirst(raw string) (*ServerFirst, error) {
	if !strings.HasPrefix(raw, "r=") {
		return nil, fmt.Errorf("server-first message does not start with nonce: %q", raw)
	}

	nonce := wire.DecodeField(raw, "r=", ",")
	if nonce == "" {
		return nil, fmt.Errorf("server-first message missing nonce")
	}

	saltB64 := wire.DecodeField(raw, ",s=", ",")
	if saltB64 == "" {
		return nil, fmt.Errorf("server-first message missing salt")
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("invalid salt encoding: %w", err)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("server-first message has empty salt")
	}

	iterStr := wire.DecodeField(raw, ",i=", ",")
	if iterStr == "" {
		return nil, fmt.Errorf("server-first message missing iteration count")
	}
	iterations, err := strconv.Atoi(iterStr)
	if err != nil {
		return nil, fmt.Errorf("invalid iteration count %q: %w", iterStr, err)
	}
	if iterations <= 0 {
		return nil, fmt.Errorf("iteration count must be positive: %d", iterations)
	}

	return &ServerFirst{
		Nonce:      nonce,
		Salt:       salt,
		Iterations: iterations,
		Raw:        raw,
	}, nil
}

// WithoutProof renders "c=<cbind>,r=<nonce>", the part covered by the proof.
func (cf *ClientFinal) WithoutProof() string {
	return "c=" + cf.ChannelBinding + ",r=" + cf.Nonce
}

// String renders the full client-final message with the proof attached.
func (cf *ClientFinal) String() string {
	return cf.WithoutProof() + ",p=" + base64.StdEncoding.EncodeToString(cf.Proof)
}

func newClientFinal(serverNonce string) *ClientFinal {
	return &ClientFinal{
		ChannelBinding: core.ChannelBindingB64,
		Nonce:          serverNonce,
	}
}

// ParseServerFinal reads "v=<signature>" or "e=<error>".
func ParseServerFinal(raw string) (*ServerFinal, error) {
	if strings.HasPrefix(raw, "e=") {
		return &ServerFinal{Error: wire.DecodeField(raw, "e=", ",")}, nil
	}
	if !strings.HasPrefix(raw, "v=") {
		return nil, fmt.Errorf("server-final message has no verifier: %q", raw)
	}
	sig, err := base64.StdEncoding.DecodeString(wire.DecodeField(raw, "v=", ","))
	if err != nil {
		return nil, fmt.Errorf("invalid signature encoding: %w", err)
	}
	return &ServerFinal{Verifier: sig}, nil
}
