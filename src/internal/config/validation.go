// FILE: haystackauth/src/internal/config/validation.go
package config

import (
	"fmt"
	"net/url"
	"strings"

	"haystackauth/src/internal/core"
)

// validateConfig is the centralized validator for the entire configuration
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if len(cfg.Servers) == 0 {
		return fmt.Errorf("no servers configured")
	}
	for i, server := range cfg.Servers {
		if err := validateServer(server); err != nil {
			return fmt.Errorf("servers[%d]: %w", i, err)
		}
	}

	if strings.TrimSpace(cfg.Username) == "" {
		return fmt.Errorf("username is required")
	}

	if err := validatePath("auth_path", cfg.AuthPath, true); err != nil {
		return err
	}
	if err := validatePath("validate_path", cfg.ValidatePath, false); err != nil {
		return err
	}

	if cfg.TimeoutMS < core.MinTimeoutMS {
		return fmt.Errorf("timeout_ms must be at least %d: %d", core.MinTimeoutMS, cfg.TimeoutMS)
	}
	if cfg.AttemptIntervalMS < 0 {
		return fmt.Errorf("attempt_interval_ms cannot be negative: %d", cfg.AttemptIntervalMS)
	}

	if err := validateLogConfig(cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := validateTLSClient(cfg.TLS); err != nil {
		return err
	}

	return nil
}

func validateServer(server string) error {
	u, err := url.Parse(strings.TrimSpace(server))
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", server, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", server)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", server)
	}
	return nil
}

func validatePath(name, path string, required bool) error {
	if path == "" {
		if required {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%s must start with '/': %s", name, path)
	}
	if strings.ContainsAny(path, "?#") {
		return fmt.Errorf("%s cannot contain a query or fragment: %s", name, path)
	}
	return nil
}
