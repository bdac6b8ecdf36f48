// FILE: haystackauth/src/internal/config/saver.go
package config

import (
	"errors"
	"fmt"

	lconfig "github.com/lixenwraith/config"
)

// SaveToFile writes the configuration as TOML. The password is never
// persisted.
func (c *Config) SaveToFile(path string) error {
	if path == "" {
		return fmt.Errorf("cannot save config: path is empty")
	}

	redacted := *c
	redacted.Password = ""

	// Temporary lconfig instance just for saving
	lcfg, err := lconfig.NewBuilder().
		WithFile(path).
		WithTarget(&redacted).
		WithFileFormat("toml").
		Build()
	// A target that does not exist yet is created by Save
	if err != nil && !errors.Is(err, lconfig.ErrConfigNotFound) {
		return fmt.Errorf("failed to create config builder: %w", err)
	}

	// lconfig's Save handles atomic writes
	if err := lcfg.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}
