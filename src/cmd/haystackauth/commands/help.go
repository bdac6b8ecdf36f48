// FILE: haystackauth/src/cmd/haystackauth/commands/help.go
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// generalHelpTemplate is the default help message shown when no specific command is requested.
const generalHelpTemplate = `haystackauth: SCRAM-SHA-256 login probe for Haystack automation servers.

Usage:
  haystackauth [command] [options]
  haystackauth [options]              (runs probe)

Commands:
%s

Probe Options:
  -c, --config <path>       Path to configuration file
  -s, --server <url>        Candidate base URL, repeatable or comma-separated
  -u, --user <name>         Username
  -p, --password <secret>   Password (prompted when omitted on a terminal)
      --auth-path <path>    Handshake path (default: /ui)
      --validate-path <p>   Token check path, "" disables (default: /api/about)
      --timeout-ms <n>      Per-request timeout in milliseconds (default: 5000)
      --log-level <level>   debug, info, warn, error
      --log-output <mode>   file, stdout, stderr, split, all, none
  -q, --quiet               Only print the result lines
      --print-token         Print the bearer token on stdout

For command-specific help:
  haystackauth help <command>
  haystackauth <command> --help

Configuration Sources (Precedence: CLI > Env > File > Defaults):
  - CLI flags override all other settings
  - HAYSTACK_* environment variables override file settings
  - HAYSTACK_SERVERS takes a comma-separated list
  - TOML file from HAYSTACK_CONFIG_FILE, HAYSTACK_CONFIG_DIR or ~/.config/haystackauth.toml

Exit Codes:
  0  authenticated
  1  no working endpoint or probe aborted
  2  usage or configuration error

Examples:
  # Try two servers, prompting for the password
  haystackauth -s http://sky1:8080 -s http://sky2:8080 -u operator

  # Use a config file and print the token for scripting
  haystackauth -c /etc/haystackauth.toml -q --print-token
`

// HelpCommand handles the display of general or command-specific help messages.
type HelpCommand struct {
	router *CommandRouter
	output io.Writer
}

// NewHelpCommand creates a new help command handler.
func NewHelpCommand(router *CommandRouter) *HelpCommand {
	return &HelpCommand{router: router, output: os.Stdout}
}

// Execute displays the appropriate help message based on the provided arguments.
func (c *HelpCommand) Execute(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] != "" {
		cmdName := args[0]

		if handler, exists := c.router.GetCommand(cmdName); exists {
			fmt.Fprint(c.output, handler.Help())
			return nil
		}

		return usageError(fmt.Errorf("unknown command: %s", cmdName))
	}

	fmt.Fprintf(c.output, generalHelpTemplate, c.formatCommandList())
	return nil
}

// Description returns a brief one-line description of the command.
func (c *HelpCommand) Description() string {
	return "Display help information"
}

// Help returns the detailed help text for the 'help' command itself.
func (c *HelpCommand) Help() string {
	return `Help Command - Display help information

Usage:
  haystackauth help              Show general help
  haystackauth help <command>    Show help for a specific command
`
}

// formatCommandList creates a formatted and aligned list of all available commands.
func (c *HelpCommand) formatCommandList() string {
	commands := c.router.GetCommands()

	names := make([]string, 0, len(commands))
	maxLen := 0
	for name := range commands {
		names = append(names, name)
		if len(name) > maxLen {
			maxLen = len(name)
		}
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		handler := commands[name]
		padding := strings.Repeat(" ", maxLen-len(name)+2)
		lines = append(lines, fmt.Sprintf("  %s%s%s", name, padding, handler.Description()))
	}

	return strings.Join(lines, "\n")
}
