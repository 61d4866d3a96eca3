package kv

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Storage drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverYAML   = "yaml"
	DriverRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path,omitempty"`         // sqlite database or yaml file
	RedisAddr   string `yaml:"redis_addr,omitempty"`   // host:port
	RedisPrefix string `yaml:"redis_prefix,omitempty"` // default DefaultRedisPrefix
	Passphrase  string `yaml:"passphrase,omitempty"`   // non-empty enables Sealed
}

// Drivers returns the valid driver names, useful for --help text.
func Drivers() string {
	return strings.Join([]string{DriverMemory, DriverSQLite, DriverYAML, DriverRedis}, ", ")
}

// NormalizeDriver folds case and surrounding space out of a driver name.
func NormalizeDriver(driver string) string {
	return strings.ToLower(strings.TrimSpace(driver))
}

// Open builds the Store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		st  Store
		err error
	)
	switch NormalizeDriver(opts.Driver) {
	case DriverMemory:
		st = NewMemory()
	case DriverSQLite, "":
		path := opts.Path
		if path == "" {
			path = filepath.Join(filepath.Dir(DefaultYAMLPath()), "radiant.db")
		}
		st, err = OpenSQLite(path)
	case DriverYAML:
		path := opts.Path
		if path == "" {
			path = DefaultYAMLPath()
		}
		st, err = OpenYAMLFile(path)
	case DriverRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("kv: redis driver requires an address")
		}
		prefix := opts.RedisPrefix
		if prefix == "" {
			prefix = DefaultRedisPrefix
		}
		st, err = OpenRedis(ctx, opts.RedisAddr, prefix)
	default:
		return nil, fmt.Errorf("kv: unknown driver %q (valid: %s)", opts.Driver, Drivers())
	}
	if err != nil {
		return nil, err
	}

	if opts.Passphrase == "" {
		return st, nil
	}
	sealed, err := NewSealed(st, opts.Passphrase)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return sealed, nil
}
