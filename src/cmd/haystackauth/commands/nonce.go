// FILE: haystackauth/src/cmd/haystackauth/commands/nonce.go
package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"haystackauth/src/internal/scram"
)

// NonceCommand prints fresh client nonces, as a handshake would generate them
type NonceCommand struct {
	output io.Writer
	errOut io.Writer
}

func NewNonceCommand() *NonceCommand {
	return &NonceCommand{
		output: os.Stdout,
		errOut: os.Stderr,
	}
}

func (c *NonceCommand) Execute(ctx context.Context, args []string) error {
	cmd := flag.NewFlagSet("nonce", flag.ContinueOnError)
	cmd.SetOutput(c.errOut)

	var count int
	cmd.IntVar(&count, "n", 1, "Number of nonces")
	cmd.IntVar(&count, "count", 1, "Number of nonces")

	if err := cmd.Parse(args); err != nil {
		return usageError(err)
	}
	if count < 1 {
		return usageError(fmt.Errorf("count must be positive: %d", count))
	}

	for range count {
		nonce, err := scram.ClientNonce()
		if err != nil {
			return failure(fmt.Errorf("failed to generate nonce: %w", err))
		}
		fmt.Fprintln(c.output, nonce)
	}
	return nil
}

func (c *NonceCommand) Description() string {
	return "Print fresh client nonces"
}

func (c *NonceCommand) Help() string {
	return `Nonce Command - Print client nonces

Usage:
  haystackauth nonce [-n count]

Each line is a nonce in the format sent in the client-first message.
`
}
