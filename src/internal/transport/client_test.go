// FILE: haystackauth/src/internal/transport/client_test.go
package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"haystackauth/src/internal/scramtest"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func newTestClient(t *testing.T, timeout time.Duration, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	network := scramtest.NewNetwork()
	network.Serve("svc.test:80", handler)
	t.Cleanup(network.Close)
	return NewClient(Options{Timeout: timeout, Dial: network.Dial}, newTestLogger())
}

func TestClientGet(t *testing.T) {
	var seenAuth, seenMethod, seenAgent string
	c := newTestClient(t, time.Second, func(ctx *fasthttp.RequestCtx) {
		seenAuth = string(ctx.Request.Header.Peek("Authorization"))
		seenMethod = string(ctx.Method())
		seenAgent = string(ctx.UserAgent())
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		ctx.Response.Header.Set("WWW-Authenticate", "SCRAM handshakeToken=abc, hash=SHA-256")
		ctx.Response.Header.Set("X-Ignored", "1")
		ctx.SetBodyString("challenge")
	})

	resp, err := c.Get(context.Background(), "http://svc.test/ui", map[string]string{
		"Authorization": "HELLO username=dXNlcg",
	})
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.False(t, resp.IsSuccess())
	assert.Equal(t, []byte("challenge"), resp.Body)
	assert.Equal(t, "SCRAM handshakeToken=abc, hash=SHA-256", resp.Header("www-authenticate"))
	assert.Empty(t, resp.Header("X-Ignored"))

	assert.Equal(t, "HELLO username=dXNlcg", seenAuth)
	assert.Equal(t, "GET", seenMethod)
	assert.Contains(t, seenAgent, "haystackauth/")
}

func TestClientConnectionRefused(t *testing.T) {
	c := newTestClient(t, time.Second, func(ctx *fasthttp.RequestCtx) {})

	resp, err := c.Get(context.Background(), "http://other.test/ui", nil)
	assert.Nil(t, resp)
	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "http://other.test/ui", terr.URL)
	assert.False(t, terr.IsTimeout())
}

func TestClientTimeout(t *testing.T) {
	c := newTestClient(t, 50*time.Millisecond, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
	})
	assert.Equal(t, 50*time.Millisecond, c.Timeout())

	_, err := c.Get(context.Background(), "http://svc.test/ui", nil)
	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.True(t, terr.IsTimeout())
}

func TestClientContextDeadline(t *testing.T) {
	c := newTestClient(t, 5*time.Second, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Get(ctx, "http://svc.test/ui", nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientDeadlineAfterDial(t *testing.T) {
	c := newTestClient(t, 5*time.Second, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
	})

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		_, err := c.Get(ctx, "http://svc.test/ui", nil)
		cancel()

		var terr *Error
		require.True(t, errors.As(err, &terr), "run %d", i)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "run %d", i)
		assert.True(t, terr.IsTimeout(), "run %d", i)
	}
}

func TestClientCancelMidRequest(t *testing.T) {
	c := newTestClient(t, 5*time.Second, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(time.Second)
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	resp, err := c.Get(ctx, "http://svc.test/ui", nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.False(t, terr.IsTimeout())
}

func TestClientCancelledContext(t *testing.T) {
	called := false
	c := newTestClient(t, time.Second, func(ctx *fasthttp.RequestCtx) {
		called = true
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "http://svc.test/ui", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestDefaultTimeout(t *testing.T) {
	c := NewClient(Options{}, newTestLogger())
	assert.Equal(t, 5*time.Second, c.Timeout())
}

func TestNewResponse(t *testing.T) {
	r := NewResponse(204, nil, map[string]string{"authentication-info": "authToken=x"})
	assert.True(t, r.IsSuccess())
	assert.Equal(t, "authToken=x", r.Header("Authentication-Info"))
	assert.Empty(t, r.Header("WWW-Authenticate"))
}
