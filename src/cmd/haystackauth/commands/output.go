// FILE: haystackauth/src/cmd/haystackauth/commands/output.go
package commands

import (
	"fmt"
	"io"
	"sync"
)

// Manages command output respecting quiet mode. Result lines always go to
// stdout; narration goes to stderr unless quiet.
type OutputHandler struct {
	quiet  bool
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

func newOutputHandler(stdout, stderr io.Writer, quiet bool) *OutputHandler {
	return &OutputHandler{
		quiet:  quiet,
		stdout: stdout,
		stderr: stderr,
	}
}

// Writes a result line to stdout, even in quiet mode
func (o *OutputHandler) Result(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.stdout, format, args...)
}

// Returns the narration writer; io.Discard in quiet mode
func (o *OutputHandler) Narration() io.Writer {
	if o.quiet {
		return io.Discard
	}
	return o.stderr
}
