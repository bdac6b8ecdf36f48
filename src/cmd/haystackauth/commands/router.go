// FILE: haystackauth/src/cmd/haystackauth/commands/router.go
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Handler defines the interface required for all subcommands.
type Handler interface {
	Execute(ctx context.Context, args []string) error
	Description() string
	Help() string
}

// defaultCommand runs when no subcommand is named
const defaultCommand = "probe"

// CommandRouter handles the routing of CLI arguments to the appropriate subcommand handler.
type CommandRouter struct {
	commands map[string]Handler
	output   io.Writer
}

// NewCommandRouter creates and initializes the command router with all available commands.
func NewCommandRouter() *CommandRouter {
	router := &CommandRouter{
		commands: make(map[string]Handler),
		output:   os.Stdout,
	}

	router.commands["probe"] = NewProbeCommand()
	router.commands["nonce"] = NewNonceCommand()
	router.commands["version"] = NewVersionCommand()
	router.commands["help"] = NewHelpCommand(router)

	return router
}

// Route executes the subcommand named by args[0], or the probe command when
// args is empty or starts with a flag.
func (r *CommandRouter) Route(ctx context.Context, args []string) error {
	cmdName := defaultCommand
	rest := args
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmdName = args[0]
		rest = args[1:]
	}

	handler, exists := r.commands[cmdName]
	if !exists {
		return usageError(fmt.Errorf("unknown command: %s\n\nRun 'haystackauth help' for usage", cmdName))
	}

	// Help flag at any position shows help for the selected command
	for _, arg := range rest {
		if arg == "-h" || arg == "--help" {
			if cmdName == defaultCommand && len(args) > 0 && args[0] != cmdName {
				return r.commands["help"].Execute(ctx, nil)
			}
			fmt.Fprint(r.output, handler.Help())
			return nil
		}
	}

	return handler.Execute(ctx, rest)
}

// GetCommand returns a specific command handler by its name.
func (r *CommandRouter) GetCommand(name string) (Handler, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommands returns a map of all registered commands.
func (r *CommandRouter) GetCommands() map[string]Handler {
	return r.commands
}
