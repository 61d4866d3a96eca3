package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/radiant/pkg/api"
	"github.com/NicolasHaas/radiant/pkg/kv"
	"github.com/NicolasHaas/radiant/pkg/logging"
)

// Config is the client configuration, persisted as YAML next to the binary.
type Config struct {
	BackendURL     string        `yaml:"backend_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Storage        kv.Options    `yaml:"storage"`
	Log            LogConfig     `yaml:"log"`
}

// LogConfig mirrors logging.Options for the YAML file.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns default settings.
func DefaultConfig() *Config {
	return &Config{
		BackendURL:     api.DefaultBaseURL,
		RequestTimeout: 30 * time.Second,
		Storage:        kv.Options{Driver: kv.DriverSQLite},
		Log:            LogConfig{Level: "info", Format: "text"},
	}
}

// ConfigPath returns radiant.yaml next to the executable.
func ConfigPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "radiant.yaml"
	}
	return filepath.Join(filepath.Dir(exe), "radiant.yaml")
}

// LoadConfig reads path over the defaults. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("client: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("client: parse config %s: %w", path, err)
	}
	return c, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ApplyEnv overrides fields from RADIANT_* variables. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	set("RADIANT_BACKEND_URL", &c.BackendURL)
	set("RADIANT_STORAGE_DRIVER", &c.Storage.Driver)
	set("RADIANT_STORAGE_PATH", &c.Storage.Path)
	set("RADIANT_REDIS_ADDR", &c.Storage.RedisAddr)
	set("RADIANT_REDIS_PREFIX", &c.Storage.RedisPrefix)
	set("RADIANT_PASSPHRASE", &c.Storage.Passphrase)
	set("RADIANT_LOG_LEVEL", &c.Log.Level)
	set("RADIANT_LOG_FORMAT", &c.Log.Format)

	if v := getenv("RADIANT_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("client: RADIANT_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	return nil
}

// Validate reports configuration errors before anything is opened.
func (c *Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		errs = append(errs, fmt.Errorf("backend_url %q must be an http(s) URL", c.BackendURL))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must not be negative"))
	}
	driver := kv.NormalizeDriver(c.Storage.Driver)
	switch driver {
	case kv.DriverMemory, kv.DriverSQLite, kv.DriverYAML, kv.DriverRedis:
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q unknown (valid: %s)", c.Storage.Driver, kv.Drivers()))
	}
	if driver == kv.DriverRedis && c.Storage.RedisAddr == "" {
		errs = append(errs, fmt.Errorf("storage.redis_addr is required for the redis driver"))
	}
	if err := logging.Validate(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoggingOptions converts the log section for logging.Setup.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format}
}
