// FILE: haystackauth/src/internal/report/report_test.go
package report

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"haystackauth/src/internal/handshake"
	"haystackauth/src/internal/probe"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeToken(t *testing.T) {
	t.Run("Opaque", func(t *testing.T) {
		info := DescribeToken("web-4f2a9c")
		assert.False(t, info.JWT)
		assert.Equal(t, 10, info.Length)
		assert.Equal(t, "opaque token, 10 bytes", info.String())
	})

	t.Run("JWT", func(t *testing.T) {
		exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "operator",
			"iss": "skyspark",
			"exp": exp.Unix(),
		}).SignedString([]byte("server-key"))
		require.NoError(t, err)

		info := DescribeToken(signed)
		assert.True(t, info.JWT)
		assert.Equal(t, "HS256", info.Algorithm)
		assert.Equal(t, "operator", info.Subject)
		assert.Equal(t, "skyspark", info.Issuer)
		assert.True(t, exp.Equal(info.ExpiresAt))

		s := info.String()
		assert.Contains(t, s, "JWT HS256")
		assert.Contains(t, s, "subject operator")
		assert.Contains(t, s, "expires 2030-01-02T03:04:05Z")
		assert.NotContains(t, s, signed)
	})
}

func TestReporterSuccess(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Success(&probe.Result{
		Endpoint: "http://c.test:8080",
		Token:    "tok-SECRET-123",
		Attempts: []probe.AttemptRecord{
			{
				Endpoint: "http://a.test:8080",
				Kind:     handshake.KindTransport,
				Step:     handshake.StepHello,
				Err:      &handshake.Error{Kind: handshake.KindTransport, Err: errors.New("connection refused")},
				Duration: 3 * time.Millisecond,
			},
			{Endpoint: "http://c.test:8080", Duration: 40 * time.Millisecond},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "[1] http://a.test:8080")
	assert.Contains(t, out, "TransportError at hello")
	assert.Contains(t, out, "    connection refused")
	assert.Contains(t, out, "[2] http://c.test:8080")
	assert.Contains(t, out, "ok (40ms)")
	assert.Contains(t, out, "Authenticated against http://c.test:8080")
	assert.Contains(t, out, "opaque token, 14 bytes")
	assert.NotContains(t, out, "SECRET")
}

func TestReporterFailure(t *testing.T) {
	t.Run("Aggregate", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf).Failure(fmt.Errorf("probe: %w", &probe.NoWorkingEndpointError{Attempts: []probe.AttemptRecord{
			{Endpoint: "http://a.test", Kind: handshake.KindTransport, Step: handshake.StepHello, Err: errors.New("refused")},
			{Endpoint: "http://b.test", Kind: handshake.KindAuthFailed, Step: handshake.StepClientFinal, StatusCode: 403, Err: errors.New("proof rejected")},
			{Endpoint: "http://c.test", Kind: handshake.KindTransport, Step: handshake.StepHello, Err: errors.New("timeout")},
		}}))

		out := buf.String()
		assert.Contains(t, out, "AuthenticationFailed at client-final, status 403")
		assert.Contains(t, out, "No working endpoint: 3 candidate(s) failed")
		assert.Contains(t, out, "TransportError         2")
		assert.Contains(t, out, "AuthenticationFailed   1")
		assert.Less(t, bytes.Index(buf.Bytes(), []byte("TransportError   ")), bytes.Index(buf.Bytes(), []byte("AuthenticationFailed   ")))
	})

	t.Run("Classified", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf).Failure(&handshake.Error{
			Kind:     handshake.KindLengthMismatch,
			Endpoint: "http://a.test",
			Step:     handshake.StepClientFirst,
			Err:      errors.New("length mismatch"),
		})
		assert.Contains(t, buf.String(), "Probe aborted: LengthMismatch:")
	})

	t.Run("Plain", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf).Failure(probe.ErrNoCandidates)
		assert.Equal(t, "Probe aborted: no candidate endpoints\n", buf.String())
	})
}
