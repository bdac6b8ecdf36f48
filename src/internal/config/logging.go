// FILE: haystackauth/src/internal/config/logging.go
package config

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/log"
)

// LogConfig controls diagnostic logging. The attempt report and result
// lines are written by the command and never pass through the logger.
type LogConfig struct {
	// "file", "stdout", "stderr", "split", "all" or "none"
	Output string `toml:"output"`

	// "debug", "info", "warn" or "error"
	Level string `toml:"level"`

	File    *LogFileConfig    `toml:"file"`
	Console *LogConsoleConfig `toml:"console"`
}

type LogFileConfig struct {
	Directory      string  `toml:"directory"`
	Name           string  `toml:"name"`
	MaxSizeMB      int64   `toml:"max_size_mb"`
	MaxTotalSizeMB int64   `toml:"max_total_size_mb"`
	RetentionHours float64 `toml:"retention_hours"`
}

type LogConsoleConfig struct {
	// "stdout", "stderr" or "split" (debug/info to stdout, warn/error to stderr)
	Target string `toml:"target"`

	// "txt" or "json"
	Format string `toml:"format"`
}

var logLevels = map[string]int64{
	"debug":   log.LevelDebug,
	"info":    log.LevelInfo,
	"warn":    log.LevelWarn,
	"warning": log.LevelWarn,
	"error":   log.LevelError,
}

// DefaultLogConfig logs warnings to stderr so stdout stays clean for results
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Output: "stderr",
		Level:  "warn",
		File: &LogFileConfig{
			Directory:      "./log",
			Name:           "haystackauth",
			MaxSizeMB:      10,
			MaxTotalSizeMB: 100,
			RetentionHours: 168,
		},
		Console: &LogConsoleConfig{
			Target: "stderr",
			Format: "txt",
		},
	}
}

// LevelValue maps a level name to the logger's numeric level.
func LevelValue(name string) (int64, error) {
	v, ok := logLevels[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown log level: %s", name)
	}
	return v, nil
}

// LoggerArgs renders the settings as key=value overrides for the logger.
// The logger creates its directory even when file output is off, so
// scratchDir stands in for it in console-only modes.
func (c *LogConfig) LoggerArgs(scratchDir string) ([]string, error) {
	level, err := LevelValue(c.Level)
	if err != nil {
		return nil, err
	}
	args := []string{fmt.Sprintf("level=%d", level)}

	var toFile, toConsole bool
	target := "stderr"
	if c.Console != nil && c.Console.Target != "" {
		target = c.Console.Target
	}

	switch c.Output {
	case "none":
	case "stdout", "stderr", "split":
		toConsole = true
		target = c.Output
	case "file":
		toFile = true
	case "all":
		toFile, toConsole = true, true
	default:
		return nil, fmt.Errorf("invalid log output mode: %s", c.Output)
	}

	args = append(args,
		fmt.Sprintf("disable_file=%t", !toFile),
		fmt.Sprintf("enable_console=%t", toConsole))
	if toConsole {
		args = append(args, "console_target="+target)
	}

	if toFile && c.File != nil {
		args = append(args,
			"directory="+c.File.Directory,
			"name="+c.File.Name,
			fmt.Sprintf("max_size_mb=%d", c.File.MaxSizeMB),
			fmt.Sprintf("max_total_size_mb=%d", c.File.MaxTotalSizeMB))
		if c.File.RetentionHours > 0 {
			args = append(args, fmt.Sprintf("retention_period_hrs=%.1f", c.File.RetentionHours))
		}
	} else if !toFile {
		args = append(args, "directory="+scratchDir)
	}

	if c.Console != nil && c.Console.Format != "" {
		args = append(args, "format="+c.Console.Format)
	}
	return args, nil
}

func validateLogConfig(cfg *LogConfig) error {
	switch cfg.Output {
	case "file", "stdout", "stderr", "split", "all", "none":
	default:
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	if _, err := LevelValue(cfg.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	if c := cfg.Console; c != nil {
		switch c.Target {
		case "stdout", "stderr", "split":
		default:
			return fmt.Errorf("invalid console target: %s", c.Target)
		}
		if c.Format != "" && c.Format != "txt" && c.Format != "json" {
			return fmt.Errorf("invalid console format: %s", c.Format)
		}
	}

	if (cfg.Output == "file" || cfg.Output == "all") && cfg.File == nil {
		return fmt.Errorf("log output %q requires a [logging.file] section", cfg.Output)
	}
	return nil
}
