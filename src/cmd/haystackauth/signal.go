// FILE: haystackauth/src/cmd/haystackauth/signal.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Cancels the run context on termination signals
type SignalHandler struct {
	cancel  context.CancelFunc
	sigChan chan os.Signal
}

// Creates a signal handler
func NewSignalHandler(cancel context.CancelFunc) *SignalHandler {
	sh := &SignalHandler{
		cancel:  cancel,
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(sh.sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sh
}

// Waits for a signal or for ctx to end
func (sh *SignalHandler) Handle(ctx context.Context) os.Signal {
	select {
	case sig := <-sh.sigChan:
		sh.cancel()
		return sig
	case <-ctx.Done():
		return nil
	}
}

// Cleans up signal handling
func (sh *SignalHandler) Stop() {
	signal.Stop(sh.sigChan)
}
