package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Kernel    KernelConfig    `yaml:"kernel" toml:"kernel"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8000" yaml:"port" toml:"port" validate:"required,numeric"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
	ShutdownTimeout Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	MaxBodyBytes    int64    `envconfig:"MAX_BODY_BYTES" default:"1048576" yaml:"max_body_bytes" toml:"max_body_bytes" validate:"min=1"`
}

// KernelConfig holds the kernel knobs.
type KernelConfig struct {
	Hostname           string   `envconfig:"KERNEL_HOSTNAME" default:"OopisOs" yaml:"hostname" toml:"hostname" validate:"required"`
	DefaultUser        string   `envconfig:"KERNEL_DEFAULT_USER" default:"Guest" yaml:"default_user" toml:"default_user" validate:"required"`
	HistorySize        int      `envconfig:"KERNEL_HISTORY_SIZE" default:"50" yaml:"history_size" toml:"history_size" validate:"min=1"`
	SudoTimeout        Duration `envconfig:"KERNEL_SUDO_TIMEOUT" default:"15m" yaml:"sudo_timeout" toml:"sudo_timeout"`
	PasswordIterations int      `envconfig:"KERNEL_PASSWORD_ITERATIONS" default:"100000" yaml:"password_iterations" toml:"password_iterations" validate:"min=1000"`
	MaxVFSSize         int64    `envconfig:"KERNEL_MAX_VFS_SIZE" default:"0" yaml:"max_vfs_size" toml:"max_vfs_size" validate:"min=0"`
}

// StorageConfig selects where snapshots are persisted.
type StorageConfig struct {
	Backend         string `envconfig:"STORAGE_BACKEND" default:"memory" yaml:"backend" toml:"backend" validate:"oneof=memory file badger s3"`
	Path            string `envconfig:"STORAGE_PATH" yaml:"path" toml:"path" validate:"required_if=Backend file"`
	Bucket          string `envconfig:"STORAGE_BUCKET" yaml:"bucket" toml:"bucket" validate:"required_if=Backend s3"`
	Key             string `envconfig:"STORAGE_KEY" yaml:"key" toml:"key"`
	Region          string `envconfig:"STORAGE_REGION" yaml:"region" toml:"region" validate:"required_if=Backend s3"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" yaml:"endpoint" toml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY_ID" yaml:"access_key_id" toml:"access_key_id"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_ACCESS_KEY" yaml:"secret_access_key" toml:"secret_access_key"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second" toml:"requests_per_second" validate:"min=1"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst" validate:"min=1"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// Duration is a time.Duration written as "15m" in every source.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

var validate = validator.New()

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads the environment configuration and overlays the YAML or
// TOML file at path, chosen by extension. Keys present in the file win.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: Duration(10 * time.Second),
			MaxBodyBytes:    1 << 20,
		},
		Kernel: KernelConfig{
			Hostname:           "OopisOs",
			DefaultUser:        "Guest",
			HistorySize:        50,
			SudoTimeout:        Duration(15 * time.Minute),
			PasswordIterations: 100000,
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.Kernel.SudoTimeout < 0 {
		return fmt.Errorf("Config.Kernel.SudoTimeout: must not be negative")
	}
	return nil
}

// formatValidationError reports the first failed rule.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return fmt.Errorf("validation failed: %w", err)
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}
