// FILE: haystackauth/src/internal/tls/client_test.go
package tls

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"haystackauth/src/internal/config"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func TestClientManagerDefaults(t *testing.T) {
	m, err := NewClientManager(nil, newTestLogger())
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MaxVersion)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Nil(t, cfg.RootCAs)
	assert.Empty(t, cfg.Certificates)

	// Callers get a copy
	cfg.ServerName = "mutated"
	assert.Empty(t, m.GetConfig().ServerName)
}

func TestClientManagerSettings(t *testing.T) {
	m, err := NewClientManager(&config.TLSClientConfig{
		ServerName:         "sky.local",
		InsecureSkipVerify: true,
		MinVersion:         "TLS1.3",
	}, newTestLogger())
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, "sky.local", cfg.ServerName)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)

	stats := m.GetStats()
	assert.Equal(t, true, stats["enabled"])
	assert.Equal(t, "TLS1.3", stats["min_version"])
	assert.Equal(t, true, stats["insecure_skip_verify"])
}

func TestClientManagerErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a certificate"), 0o600))

	tests := []struct {
		name   string
		cfg    *config.TLSClientConfig
		errMsg string
	}{
		{"MissingCA", &config.TLSClientConfig{ServerCAFile: filepath.Join(dir, "missing.pem")}, "failed to read server CA file"},
		{"InvalidCA", &config.TLSClientConfig{ServerCAFile: garbage}, "failed to parse server CA certificate"},
		{"HalfKeyPair", &config.TLSClientConfig{ClientCertFile: garbage}, "both client_cert_file and client_key_file"},
		{"BadKeyPair", &config.TLSClientConfig{ClientCertFile: garbage, ClientKeyFile: garbage}, "failed to load client cert/key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewClientManager(tt.cfg, newTestLogger())
			assert.Nil(t, m)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNilClientManager(t *testing.T) {
	var m *ClientManager
	assert.Nil(t, m.GetConfig())
	assert.Equal(t, false, m.GetStats()["enabled"])
}

func TestParseTLSVersion(t *testing.T) {
	assert.Equal(t, uint16(tls.VersionTLS12), parseTLSVersion("tls1.2", 0))
	assert.Equal(t, uint16(tls.VersionTLS13), parseTLSVersion("TLS13", 0))
	assert.Equal(t, uint16(tls.VersionTLS12), parseTLSVersion("", tls.VersionTLS12))
	assert.Equal(t, "TLS1.3", tlsVersionString(tls.VersionTLS13))
	assert.Equal(t, "0x0301", tlsVersionString(tls.VersionTLS10))
}
