package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsMatchDefault(t *testing.T) {
	// shells commonly export these two
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "8000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KERNEL_SUDO_TIMEOUT", "5m")
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("STORAGE_PATH", "/var/lib/kernel/snapshot")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Kernel.SudoTimeout.Std())
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "kernel.yaml", `
server:
  port: "7000"
kernel:
  hostname: testbox
  sudo_timeout: 30s
storage:
  backend: badger
  path: /tmp/db
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "testbox", cfg.Kernel.Hostname)
	assert.Equal(t, 30*time.Second, cfg.Kernel.SudoTimeout.Std())
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, "Guest", cfg.Kernel.DefaultUser, "keys absent from the file keep their defaults")
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, "kernel.toml", `
[kernel]
default_user = "alice"
max_vfs_size = 4096

[rate_limit]
enabled = false
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.Kernel.DefaultUser)
	assert.Equal(t, int64(4096), cfg.Kernel.MaxVFSSize)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(writeFile(t, "kernel.ini", "x=1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadFile(writeFile(t, "bad.toml", "[kernel\n"))
	assert.ErrorContains(t, err, "failed to parse")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad backend", func(c *Config) { c.Storage.Backend = "tape" }, "Backend"},
		{"s3 needs bucket", func(c *Config) { c.Storage.Backend = "s3"; c.Storage.Region = "us-east-1" }, "Bucket"},
		{"file needs path", func(c *Config) { c.Storage.Backend = "file" }, "Path"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "Level"},
		{"non numeric port", func(c *Config) { c.Server.Port = "http" }, "Port"},
		{"empty default user", func(c *Config) { c.Kernel.DefaultUser = "" }, "DefaultUser"},
		{"weak hashing", func(c *Config) { c.Kernel.PasswordIterations = 10 }, "PasswordIterations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "0.0.0.0:8000", Default().Server.Addr())
}
