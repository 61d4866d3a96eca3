package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/NicolasHaas/radiant/pkg/api"
	"github.com/NicolasHaas/radiant/pkg/kv"
)

func TestLoadConfigMissingFileGivesDefaults(t *testing.T) {
	got, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radiant.yaml")
	data := `
backend_url: http://localhost:5000
request_timeout: 5s
storage:
  driver: yaml
  path: /tmp/radiant-storage.yaml
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := &Config{
		BackendURL:     "http://localhost:5000",
		RequestTimeout: 5 * time.Second,
		Storage:        kv.Options{Driver: "yaml", Path: "/tmp/radiant-storage.yaml"},
		Log:            LogConfig{Level: "debug", Format: "text"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radiant.yaml")
	_ = os.WriteFile(path, []byte("backend_url: [oops"), 0600)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radiant.yaml")
	cfg := DefaultConfig()
	cfg.Storage = kv.Options{Driver: kv.DriverRedis, RedisAddr: "localhost:6379", RedisPrefix: "r:"}
	cfg.RequestTimeout = 90 * time.Second

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"RADIANT_BACKEND_URL":     "http://127.0.0.1:8080",
		"RADIANT_STORAGE_DRIVER":  "memory",
		"RADIANT_PASSPHRASE":      "pw",
		"RADIANT_LOG_LEVEL":       "warn",
		"RADIANT_REQUEST_TIMEOUT": "2s",
	}
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	want := DefaultConfig()
	want.BackendURL = "http://127.0.0.1:8080"
	want.Storage.Driver = "memory"
	want.Storage.Passphrase = "pw"
	want.Log.Level = "warn"
	want.RequestTimeout = 2 * time.Second
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	bad := DefaultConfig()
	if err := bad.ApplyEnv(func(k string) string {
		if k == "RADIANT_REQUEST_TIMEOUT" {
			return "soon"
		}
		return ""
	}); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"not a url", func(c *Config) { c.BackendURL = "radiant.example" }, true},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, true},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "etcd" }, true},
		{"redis without addr", func(c *Config) { c.Storage.Driver = kv.DriverRedis }, true},
		{"redis with addr", func(c *Config) {
			c.Storage.Driver = kv.DriverRedis
			c.Storage.RedisAddr = "localhost:6379"
		}, false},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, true},
		{"driver case and space", func(c *Config) { c.Storage.Driver = " SQLite " }, false},
		{"padded redis without addr", func(c *Config) { c.Storage.Driver = " Redis" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("Validate: expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate: unexpected error: %v", err)
			}
		})
	}
}

func TestOpenWithMemoryStorage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Driver = kv.DriverMemory
	cfg.BackendURL = "http://localhost:1"

	e, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close(context.Background())

	st := e.Start(context.Background())
	if st.Loading || st.User != nil {
		t.Errorf("Start state = %+v, want empty and not loading", st)
	}
	if got := e.backend.(*api.Client).BaseURL(); got != "http://localhost:1" {
		t.Errorf("backend URL = %q", got)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Driver = "etcd"
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("Open: expected error")
	}
}
