// FILE: haystackauth/src/internal/config/tls.go
package config

import (
	"fmt"
	"os"
)

// TLSClientConfig applies to https:// candidate endpoints only
type TLSClientConfig struct {
	// CA bundle used to verify the automation server certificate
	ServerCAFile string `toml:"server_ca_file"`

	// Client certificate for servers that require mTLS
	ClientCertFile string `toml:"client_cert_file"`
	ClientKeyFile  string `toml:"client_key_file"`

	// Overrides SNI / verification host name
	ServerName string `toml:"server_name"`

	// Accept any server certificate; lab setups only
	InsecureSkipVerify bool `toml:"insecure_skip_verify"`

	// TLS version constraints: "TLS1.2", "TLS1.3"
	MinVersion string `toml:"min_version"`
	MaxVersion string `toml:"max_version"`
}

func validateTLSClient(cfg *TLSClientConfig) error {
	if cfg == nil {
		return nil
	}

	if (cfg.ClientCertFile == "") != (cfg.ClientKeyFile == "") {
		return fmt.Errorf("tls: both client_cert_file and client_key_file must be set")
	}

	for name, path := range map[string]string{
		"server_ca_file":   cfg.ServerCAFile,
		"client_cert_file": cfg.ClientCertFile,
		"client_key_file":  cfg.ClientKeyFile,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("tls: %s is not accessible: %w", name, err)
		}
	}

	validVersions := map[string]bool{"": true, "TLS1.2": true, "TLS1.3": true}
	if !validVersions[cfg.MinVersion] {
		return fmt.Errorf("tls: invalid min_version: %s", cfg.MinVersion)
	}
	if !validVersions[cfg.MaxVersion] {
		return fmt.Errorf("tls: invalid max_version: %s", cfg.MaxVersion)
	}

	return nil
}
