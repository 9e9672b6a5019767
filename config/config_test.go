package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Gateway.Addr)
	assert.False(t, cfg.NATS.Enabled)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"gateway": {"addr": ":9999", "max_request_size": 2048, "rate_burst": 16,
			"read_timeout": 15, "write_timeout": 30},
		"registry": {"base_url": "http://registry:7000", "timeout": 3, "retry_count": 1},
		"log": {"level": "debug", "format": "text"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Gateway.Addr)
	assert.Equal(t, "http://registry:7000", cfg.Registry.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
gateway:
  addr: ":9999"
  max_request_size: 2048
  rate_burst: 16
  read_timeout: 15
  write_timeout: 30
registry:
  base_url: http://registry:7000
  timeout: 3
  retry_count: 1
nats:
  enabled: true
  bucket: subs
  url: nats://nats:4222
  name: test
  timeout: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Gateway.Addr)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "subs", cfg.NATS.Bucket)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeConfig(t, "config.toml", `x = 1`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidSection(t *testing.T) {
	path := writeConfig(t, "config.json", `{"gateway": {"addr": ""}}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPrefix+"_GATEWAY_ADDR", ":7070")
	t.Setenv(EnvPrefix+"_REGISTRY_URL", "http://other:1234")
	t.Setenv(EnvPrefix+"_NATS_URL", "nats://elsewhere:4222")
	t.Setenv(EnvPrefix+"_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Gateway.Addr)
	assert.Equal(t, "http://other:1234", cfg.Registry.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "nats://elsewhere:4222", cfg.NATS.URL)
}

func TestValidateLogSettings(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateNATSBucketRequired(t *testing.T) {
	cfg := Default()
	cfg.NATS.Enabled = true
	cfg.NATS.Bucket = ""
	assert.Error(t, cfg.Validate())
}
