// FILE: haystackauth/src/cmd/haystackauth/commands/version.go
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"haystackauth/src/internal/version"
)

// VersionCommand handles version display
type VersionCommand struct {
	output io.Writer
}

// NewVersionCommand creates a new version command
func NewVersionCommand() *VersionCommand {
	return &VersionCommand{output: os.Stdout}
}

func (c *VersionCommand) Execute(ctx context.Context, args []string) error {
	fmt.Fprintln(c.output, version.String())
	return nil
}

func (c *VersionCommand) Description() string {
	return "Show version information"
}

func (c *VersionCommand) Help() string {
	return `Version Command - Show haystackauth version information

Usage:
  haystackauth version

Output includes:
  - Version number
  - Build date
  - Git commit hash (if available)
  - Go version used for compilation
`
}
