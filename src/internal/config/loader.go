// FILE: haystackauth/src/internal/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

const envPrefix = "HAYSTACK_"

// Overrides carries command-line values; nil fields leave lower sources in place.
type Overrides struct {
	// ConfigFile takes precedence over HAYSTACK_CONFIG_FILE discovery
	ConfigFile string

	Servers      []string
	Username     *string
	Password     *string
	AuthPath     *string
	ValidatePath *string
	TimeoutMS    *int64
	LogLevel     *string
	LogOutput    *string
}

// Load reads defaults, the config file and HAYSTACK_* environment
// variables, then applies command-line overrides on top.
func Load(overrides *Overrides) (*Config, error) {
	configPath := overrides.ConfigPath()

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix(envPrefix).
		WithFile(configPath).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		// A missing config file is fine, everything can come from env and flags
		if !errors.Is(err, lconfig.ErrConfigNotFound) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	applyServersEnv(finalConfig)
	normalize(finalConfig)
	overrides.apply(finalConfig)

	return finalConfig, validateConfig(finalConfig)
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = envPrefix + env
	return env
}

// GetConfigPath resolves the config file from HAYSTACK_CONFIG_FILE,
// HAYSTACK_CONFIG_DIR or the user config directory.
func GetConfigPath() string {
	if configFile := os.Getenv("HAYSTACK_CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv("HAYSTACK_CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv("HAYSTACK_CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "haystackauth.toml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "haystackauth.toml")
	}

	return "haystackauth.toml"
}

// applyServersEnv reads HAYSTACK_SERVERS as a comma-separated list
func applyServersEnv(cfg *Config) {
	if raw := os.Getenv(envPrefix + "SERVERS"); raw != "" {
		cfg.Servers = splitList(raw)
	}
}

// ConfigPath returns the explicit config file or the discovered one.
func (o *Overrides) ConfigPath() string {
	if o != nil && o.ConfigFile != "" {
		return o.ConfigFile
	}
	return GetConfigPath()
}

func (o *Overrides) apply(cfg *Config) {
	if o == nil {
		return
	}
	if len(o.Servers) > 0 {
		var servers []string
		for _, s := range o.Servers {
			servers = append(servers, splitList(s)...)
		}
		cfg.Servers = servers
	}
	if o.Username != nil {
		cfg.Username = *o.Username
	}
	if o.Password != nil {
		cfg.Password = *o.Password
	}
	if o.AuthPath != nil {
		cfg.AuthPath = *o.AuthPath
	}
	if o.ValidatePath != nil {
		cfg.ValidatePath = *o.ValidatePath
	}
	if o.TimeoutMS != nil {
		cfg.TimeoutMS = *o.TimeoutMS
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = strings.ToLower(*o.LogLevel)
	}
	if o.LogOutput != nil {
		cfg.Logging.Output = *o.LogOutput
	}
}

// normalize fills sections a sparse file may leave nil
func normalize(cfg *Config) {
	if cfg.Logging == nil {
		cfg.Logging = DefaultLogConfig()
	}
	if cfg.TLS == nil {
		cfg.TLS = &TLSClientConfig{}
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
