// FILE: haystackauth/src/cmd/haystackauth/commands/logger.go
package commands

import (
	"fmt"
	"os"
	"time"

	"haystackauth/src/internal/config"

	"github.com/lixenwraith/log"
)

// initializeLogger configures and starts the logger from configuration
func initializeLogger(cfg *config.LogConfig, quiet bool) (*log.Logger, error) {
	var configArgs []string

	if quiet {
		// In quiet mode, disable ALL logging output
		configArgs = []string{
			"disable_file=true",
			"enable_console=false",
			"directory=" + os.TempDir(),
			"level=255",
		}
	} else {
		args, err := cfg.LoggerArgs(os.TempDir())
		if err != nil {
			return nil, err
		}
		configArgs = args
	}

	logger := log.NewLogger()
	if err := logger.ApplyConfigString(configArgs...); err != nil {
		return nil, fmt.Errorf("failed to configure logger: %w", err)
	}
	if err := logger.Start(); err != nil {
		return nil, fmt.Errorf("failed to start logger: %w", err)
	}
	return logger, nil
}

func shutdownLogger(logger *log.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Shutdown(2 * time.Second)
}
