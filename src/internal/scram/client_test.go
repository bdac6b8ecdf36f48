// FILE: haystackauth/src/internal/scram/client_test.go
package scram

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerFirst(t *testing.T) {
	t.Run("Scenario", func(t *testing.T) {
		sf, err := ParseServerFirst("r=ABC123,s=c2FsdA==,i=4096")
		require.NoError(t, err)
		assert.Equal(t, "ABC123", sf.Nonce)
		assert.Equal(t, []byte("salt"), sf.Salt)
		assert.Equal(t, 4096, sf.Iterations)
		assert.Equal(t, "r=ABC123,s=c2FsdA==,i=4096", sf.Raw)
	})

	t.Run("ExtensionsIgnored", func(t *testing.T) {
		sf, err := ParseServerFirst("r=ABC123,s=c2FsdA==,i=10,x=ext")
		require.NoError(t, err)
		assert.Equal(t, 10, sf.Iterations)
	})

	errorCases := []struct {
		name string
		raw  string
	}{
		{"Empty", ""},
		{"NoNoncePrefix", "s=c2FsdA==,i=4096"},
		{"EmptyNonce", "r=,s=c2FsdA==,i=4096"},
		{"MissingSalt", "r=ABC123,i=4096"},
		{"BadSalt", "r=ABC123,s=***,i=4096"},
		{"EmptySalt", "r=ABC123,s=,i=4096"},
		{"MissingIterations", "r=ABC123,s=c2FsdA=="},
		{"NonNumericIterations", "r=ABC123,s=c2FsdA==,i=many"},
		{"ZeroIterations", "r=ABC123,s=c2FsdA==,i=0"},
		{"NegativeIterations", "r=ABC123,s=c2FsdA==,i=-5"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			sf, err := ParseServerFirst(tc.raw)
			assert.Error(t, err)
			assert.Nil(t, sf)
		})
	}
}

func TestClientConversation(t *testing.T) {
	c := NewClient(rfcUser, rfcPass, rfcClientNonce)
	assert.Equal(t, "n=user,r=rOprNGfwEbeRWgbNEkqO", c.ClientFirstBare())
	assert.Equal(t, "n,,n=user,r=rOprNGfwEbeRWgbNEkqO", c.ClientFirstMessage())

	sf, final, err := c.ProcessServerFirst(rfcServerFirst)
	require.NoError(t, err)
	assert.Equal(t, 4096, sf.Iterations)
	assert.Equal(t, rfcFinalBare, final.WithoutProof())
	assert.Equal(t, rfcFinalBare+",p="+rfcProof, final.String())

	require.NoError(t, c.VerifyServerFinal(rfcServerFinal))

	t.Run("SecondServerFirstRejected", func(t *testing.T) {
		_, _, err := c.ProcessServerFirst(rfcServerFirst)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("WipeClearsState", func(t *testing.T) {
		c.Wipe()
		assert.ErrorIs(t, c.VerifyServerFinal(rfcServerFinal), ErrInvalidState)
	})
}

func TestClientNonceMismatch(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"Foreign", "r=zzzz1234,s=c2FsdA==,i=4096"},
		{"NoServerPart", "r=abcd,s=c2FsdA==,i=4096"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClient("user", "pw", "abcd")
			_, _, err := c.ProcessServerFirst(tc.raw)
			assert.True(t, errors.Is(err, ErrNonceMismatch))
		})
	}
}

func TestVerifyServerFinal(t *testing.T) {
	newClient := func(t *testing.T) *Client {
		c := NewClient(rfcUser, rfcPass, rfcClientNonce)
		_, _, err := c.ProcessServerFirst(rfcServerFirst)
		require.NoError(t, err)
		return c
	}

	t.Run("BeforeServerFirst", func(t *testing.T) {
		c := NewClient(rfcUser, rfcPass, rfcClientNonce)
		assert.ErrorIs(t, c.VerifyServerFinal(rfcServerFinal), ErrInvalidState)
	})

	t.Run("WrongSignature", func(t *testing.T) {
		bad := "v=" + base64.StdEncoding.EncodeToString(make([]byte, 32))
		assert.ErrorIs(t, newClient(t).VerifyServerFinal(bad), ErrServerSignature)
	})

	t.Run("ServerError", func(t *testing.T) {
		err := newClient(t).VerifyServerFinal("e=invalid-proof")
		assert.ErrorIs(t, err, ErrServerFinalMessage)
		assert.Contains(t, err.Error(), "invalid-proof")
	})

	t.Run("Garbage", func(t *testing.T) {
		assert.Error(t, newClient(t).VerifyServerFinal("nothing"))
	})
}
