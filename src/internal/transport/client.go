// FILE: haystackauth/src/internal/transport/client.go
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/textproto"
	"strings"
	"time"

	"haystackauth/src/internal/core"
	"haystackauth/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
)

// Error is a network-level failure: dial error, timeout, reset or
// cancellation. The request never produced a status code.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the failure was a deadline expiry.
func (e *Error) IsTimeout() bool {
	return errors.Is(e.Err, fasthttp.ErrTimeout) ||
		errors.Is(e.Err, fasthttp.ErrDialTimeout) ||
		errors.Is(e.Err, context.DeadlineExceeded)
}

// Response is a detached copy of a fasthttp response.
type Response struct {
	StatusCode int
	Body       []byte
	headers    map[string]string
}

// NewResponse builds a detached response, mainly for transport fakes.
func NewResponse(status int, body []byte, headers map[string]string) *Response {
	r := &Response{StatusCode: status, Body: body, headers: make(map[string]string, len(headers))}
	for k, v := range headers {
		r.headers[textproto.CanonicalMIMEHeaderKey(k)] = v
	}
	return r
}

// Header returns a response header by canonical name, "" when absent.
func (r *Response) Header(name string) string {
	return r.headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Options configure a Client
type Options struct {
	Timeout   time.Duration
	TLSConfig *tls.Config

	// Dial replaces the network dialer; used by tests to route to in-memory listeners.
	Dial fasthttp.DialFunc
}

// Client issues plain GET requests with a bounded wait per request.
type Client struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *log.Logger
}

// NewClient creates a fasthttp-backed client.
func NewClient(opts Options, logger *log.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = core.DefaultTimeoutMS * time.Millisecond
	}

	c := &Client{
		client: &fasthttp.Client{
			Name:                core.UserAgentName + "/" + version.Short(),
			MaxConnsPerHost:     4,
			MaxIdleConnDuration: 10 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: core.MaxResponseBytes,
			TLSConfig:           opts.TLSConfig,

			// Retries belong to the prober, across endpoints
			MaxIdemponentCallAttempts: 1,
		},
		timeout: timeout,
		logger:  logger,
	}
	if opts.Dial != nil {
		c.client.Dial = opts.Dial
	}
	return c
}

// Timeout returns the per-request bound.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Get sends one GET request. The wait is bounded by the client timeout and
// by the context deadline, whichever is earlier. Cancelling ctx abandons
// the request without waiting for the server.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{URL: url, Err: err}
	}

	timeout := c.timeout
	ctxBound := false
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
			ctxBound = true
		}
	}
	if timeout <= 0 {
		return nil, &Error{URL: url, Err: context.DeadlineExceeded}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	release := func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- c.client.DoTimeout(req, resp, timeout)
	}()

	var err error
	select {
	case err = <-done:
		defer release()
	case <-ctx.Done():
		// req and resp belong to the in-flight call until it returns
		go func() {
			<-done
			release()
		}()
		err = ctx.Err()
	}

	if err != nil {
		switch {
		case ctx.Err() != nil:
			// A cancelled run reports the cancellation, not the symptom
			err = ctx.Err()
		case ctxBound && (errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout)):
			// The timer fired on the context deadline before ctx noticed
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		c.logger.Debug("msg", "HTTP request failed",
			"component", "transport",
			"url", url,
			"elapsed", time.Since(start),
			"error", err)
		return nil, &Error{URL: url, Err: err}
	}

	out := &Response{
		StatusCode: resp.StatusCode(),
		headers:    make(map[string]string),
	}
	if body := resp.Body(); len(body) > 0 {
		out.Body = make([]byte, len(body))
		copy(out.Body, body)
	}
	for _, key := range []string{core.HeaderWWWAuthenticate, core.HeaderAuthInfo, "Content-Type"} {
		if v := resp.Header.Peek(key); len(v) > 0 {
			out.headers[textproto.CanonicalMIMEHeaderKey(key)] = strings.TrimSpace(string(v))
		}
	}

	c.logger.Debug("msg", "HTTP request completed",
		"component", "transport",
		"url", url,
		"status_code", out.StatusCode,
		"elapsed", time.Since(start))
	return out, nil
}

// CloseIdleConnections releases pooled keep-alive connections.
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}
