// FILE: haystackauth/src/cmd/haystackauth/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"haystackauth/src/cmd/haystackauth/commands"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SIGINT/SIGTERM cancel the probe; the in-flight handshake is abandoned
	sh := NewSignalHandler(cancel)
	defer sh.Stop()
	go sh.Handle(ctx)

	router := commands.NewCommandRouter()
	err := router.Route(ctx, os.Args[1:])
	if err == nil {
		return
	}

	var exitErr *commands.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil && !exitErr.Silent {
			fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.Err)
		}
		cancel()
		os.Exit(exitErr.Code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	cancel()
	os.Exit(commands.ExitFailure)
}
