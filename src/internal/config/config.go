// FILE: haystackauth/src/internal/config/config.go
package config

import (
	"time"

	"haystackauth/src/internal/core"
)

// Config is the full runtime configuration of a probe run
type Config struct {
	// Candidate base URLs, tried in order
	Servers []string `toml:"servers"`

	Username string `toml:"username"`
	// Never written back to disk by SaveToFile
	Password string `toml:"password"`

	AuthPath string `toml:"auth_path"`
	// Authenticated GET issued after a handshake; empty disables validation
	ValidatePath string `toml:"validate_path"`

	TimeoutMS         int64 `toml:"timeout_ms"`
	AttemptIntervalMS int64 `toml:"attempt_interval_ms"`

	Logging *LogConfig       `toml:"logging"`
	TLS     *TLSClientConfig `toml:"tls"`
}

// Timeout returns the per-request bound
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// AttemptInterval returns the minimum spacing between candidates
func (c *Config) AttemptInterval() time.Duration {
	return time.Duration(c.AttemptIntervalMS) * time.Millisecond
}

// Credentials returns the username and password pair
func (c *Config) Credentials() core.Credentials {
	return core.Credentials{Username: c.Username, Password: c.Password}
}

func defaults() *Config {
	return &Config{
		Servers:           []string{},
		AuthPath:          core.DefaultAuthPath,
		ValidatePath:      core.DefaultValidatePath,
		TimeoutMS:         core.DefaultTimeoutMS,
		AttemptIntervalMS: 0,
		Logging:           DefaultLogConfig(),
		TLS:               &TLSClientConfig{},
	}
}
