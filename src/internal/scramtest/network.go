// FILE: haystackauth/src/internal/scramtest/network.go
package scramtest

import (
	"net"
	"sync"
	"syscall"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

// Network routes dials by "host:port" to in-memory fasthttp servers.
// Unknown addresses fail like a refused TCP connection.
type Network struct {
	mu        sync.Mutex
	listeners map[string]*fasthttputil.InmemoryListener
	dials     map[string]int
}

// NewNetwork creates an empty network
func NewNetwork() *Network {
	return &Network{
		listeners: make(map[string]*fasthttputil.InmemoryListener),
		dials:     make(map[string]int),
	}
}

// Serve starts handler on addr until Close.
func (n *Network) Serve(addr string, handler fasthttp.RequestHandler) {
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}

	n.mu.Lock()
	n.listeners[addr] = ln
	n.mu.Unlock()

	go func() {
		_ = srv.Serve(ln)
	}()
}

// Dial implements fasthttp.DialFunc
func (n *Network) Dial(addr string) (net.Conn, error) {
	n.mu.Lock()
	n.dials[addr]++
	ln, ok := n.listeners[addr]
	n.mu.Unlock()

	if !ok {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	}
	return ln.Dial()
}

// Dials returns how many times addr was dialed.
func (n *Network) Dials(addr string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dials[addr]
}

// Close stops every server.
func (n *Network) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for addr, ln := range n.listeners {
		_ = ln.Close()
		delete(n.listeners, addr)
	}
}
