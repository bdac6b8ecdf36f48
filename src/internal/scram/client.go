// FILE: haystackauth/src/internal/scram/client.go
package scram

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"haystackauth/src/internal/core"
)

// Error values returned by Client; callers map them onto failure kinds.
var (
	ErrInvalidState       = errors.New("invalid handshake state")
	ErrNonceMismatch      = errors.New("server nonce does not extend client nonce")
	ErrServerSignature    = errors.New("server signature mismatch")
	ErrServerFinalMessage = errors.New("server reported authentication error")
)

// Client handles the SCRAM client side for exactly one conversation.
// It does no I/O.
type Client struct {
	username string
	password string

	// Handshake state
	clientNonce     string
	clientFirstBare string
	serverFirst     *ServerFirst
	authMessage     string
	serverKey       []byte
}

// NewClient creates a conversation bound to one client nonce.
func NewClient(username, password, clientNonce string) *Client {
	return &Client{
		username:        username,
		password:        password,
		clientNonce:     clientNonce,
		clientFirstBare: ClientFirstBare(username, clientNonce),
	}
}

// ClientNonce returns the nonce this conversation was created with.
func (c *Client) ClientNonce() string {
	return c.clientNonce
}

// ClientFirstBare returns "n=<user>,r=<nonce>".
func (c *Client) ClientFirstBare() string {
	return c.clientFirstBare
}

// ClientFirstMessage is the bare message prefixed with the GS2 header.
func (c *Client) ClientFirstMessage() string {
	return core.GS2Header + c.clientFirstBare
}

// ProcessServerFirst parses the server challenge and computes the proof.
func (c *Client) ProcessServerFirst(raw string) (*ServerFirst, *ClientFinal, error) {
	if c.serverFirst != nil {
		return nil, nil, ErrInvalidState
	}

	sf, err := ParseServerFirst(raw)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasPrefix(sf.Nonce, c.clientNonce) || len(sf.Nonce) == len(c.clientNonce) {
		return nil, nil, ErrNonceMismatch
	}
	c.serverFirst = sf

	saltedPassword := SaltedPassword(c.password, sf.Salt, sf.Iterations)
	defer clear(saltedPassword)

	clientKey := ClientKey(saltedPassword)
	defer clear(clientKey)
	storedKey := StoredKey(clientKey)
	defer clear(storedKey)

	final := newClientFinal(sf.Nonce)
	c.authMessage = AuthMessage(c.clientFirstBare, sf.Raw, final.WithoutProof())

	clientSignature := ClientSignature(storedKey, c.authMessage)
	defer clear(clientSignature)

	proof, err := ClientProof(clientKey, clientSignature)
	if err != nil {
		return nil, nil, err
	}
	final.Proof = proof

	// Kept for server signature verification
	c.serverKey = ServerKey(saltedPassword)

	return sf, final, nil
}

// VerifyServerFinal checks the server signature of a server-final message.
func (c *Client) VerifyServerFinal(raw string) error {
	if c.authMessage == "" || c.serverKey == nil {
		return ErrInvalidState
	}

	msg, err := ParseServerFinal(raw)
	if err != nil {
		return err
	}
	if msg.Error != "" {
		return fmt.Errorf("%w: %s", ErrServerFinalMessage, msg.Error)
	}

	expected := ServerSignature(c.serverKey, c.authMessage)
	if subtle.ConstantTimeCompare(expected, msg.Verifier) != 1 {
		return ErrServerSignature
	}
	return nil
}

// Wipe drops derived key material and the password.
func (c *Client) Wipe() {
	clear(c.serverKey)
	c.serverKey = nil
	c.password = ""
	c.authMessage = ""
}
