// FILE: haystackauth/src/internal/scram/credential.go
package scram

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"haystackauth/src/internal/core"

	"golang.org/x/crypto/pbkdf2"
)

// ErrLengthMismatch reports XOR operands of different sizes. It can only
// happen through a bug in key derivation.
var ErrLengthMismatch = errors.New("xor length mismatch")

var (
	clientKeyLabel = []byte("Client Key")
	serverKeyLabel = []byte("Server Key")
)

// ClientNonce returns 16 random bytes, hex-encoded.
func ClientNonce() (string, error) {
	return clientNonceFrom(rand.Reader)
}

func clientNonceFrom(r io.Reader) (string, error) {
	b := make([]byte, core.ClientNonceLen)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SaltedPassword derives the 32-byte salted password with PBKDF2-HMAC-SHA-256.
func SaltedPassword(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, core.ScramKeyLen, sha256.New)
}

// ClientKey is HMAC(saltedPassword, "Client Key")
func ClientKey(saltedPassword []byte) []byte {
	return computeHMAC(saltedPassword, clientKeyLabel)
}

// ServerKey is HMAC(saltedPassword, "Server Key")
func ServerKey(saltedPassword []byte) []byte {
	return computeHMAC(saltedPassword, serverKeyLabel)
}

// StoredKey is SHA-256(clientKey)
func StoredKey(clientKey []byte) []byte {
	sum := sha256.Sum256(clientKey)
	return sum[:]
}

// AuthMessage joins the three transcript messages in protocol order.
func AuthMessage(clientFirstBare, serverFirst, clientFinalWithoutProof string) string {
	return clientFirstBare + "," + serverFirst + "," + clientFinalWithoutProof
}

// ClientSignature is HMAC(storedKey, authMessage)
func ClientSignature(storedKey []byte, authMessage string) []byte {
	return computeHMAC(storedKey, []byte(authMessage))
}

// ServerSignature is HMAC(serverKey, authMessage)
func ServerSignature(serverKey []byte, authMessage string) []byte {
	return computeHMAC(serverKey, []byte(authMessage))
}

// ClientProof is clientKey XOR clientSignature.
func ClientProof(clientKey, clientSignature []byte) ([]byte, error) {
	return xorBytes(clientKey, clientSignature)
}

func computeHMAC(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

func xorBytes(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(a), len(b))
	}
	result := make([]byte, len(a))
	for i := range a {
		result[i] = a[i] ^ b[i]
	}
	return result, nil
}
