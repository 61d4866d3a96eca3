package kv_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/NicolasHaas/radiant/pkg/kv"
)

// withStores runs fn against every backend.
func withStores(t *testing.T, fn func(t *testing.T, st kv.Store)) {
	t.Helper()

	backends := map[string]func(t *testing.T) kv.Store{
		"memory": func(t *testing.T) kv.Store {
			return kv.NewMemory()
		},
		"sqlite": func(t *testing.T) kv.Store {
			st, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			return st
		},
		"yaml": func(t *testing.T) kv.Store {
			st, err := kv.OpenYAMLFile(filepath.Join(t.TempDir(), "storage.yaml"))
			if err != nil {
				t.Fatalf("OpenYAMLFile: %v", err)
			}
			return st
		},
		"redis": func(t *testing.T) kv.Store {
			mr := miniredis.RunT(t)
			return kv.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), kv.DefaultRedisPrefix)
		},
		"sealed": func(t *testing.T) kv.Store {
			st, err := kv.NewSealed(kv.NewMemory(), "passphrase")
			if err != nil {
				t.Fatalf("NewSealed: %v", err)
			}
			return st
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			st := open(t)
			t.Cleanup(func() { _ = st.Close() })
			fn(t, st)
		})
	}
}

func TestGetMissing(t *testing.T) {
	withStores(t, func(t *testing.T, st kv.Store) {
		v, ok, err := st.Get(context.Background(), "userInfo")
		if err != nil {
			t.Fatalf("Get: unexpected error: %v", err)
		}
		if ok || v != "" {
			t.Fatalf("Get: expected absent, got %q ok=%v", v, ok)
		}
	})
}

func TestSetGetReplaceRemove(t *testing.T) {
	withStores(t, func(t *testing.T, st kv.Store) {
		ctx := context.Background()

		if err := st.Set(ctx, "userInfo", `{"username":"annabel"}`); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := st.Set(ctx, "userInfo", `{"username":"bobbybob"}`); err != nil {
			t.Fatalf("Set (replace): %v", err)
		}

		v, ok, err := st.Get(ctx, "userInfo")
		if err != nil || !ok {
			t.Fatalf("Get: ok=%v err=%v", ok, err)
		}
		if v != `{"username":"bobbybob"}` {
			t.Fatalf("Get = %q, want last written value", v)
		}

		if err := st.Remove(ctx, "userInfo"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if _, ok, _ := st.Get(ctx, "userInfo"); ok {
			t.Fatal("Get after Remove: key still present")
		}
	})
}

func TestRemoveMissingIsNotAnError(t *testing.T) {
	withStores(t, func(t *testing.T, st kv.Store) {
		if err := st.Remove(context.Background(), "never-set"); err != nil {
			t.Fatalf("Remove: unexpected error: %v", err)
		}
	})
}

func TestKeysAreIndependent(t *testing.T) {
	withStores(t, func(t *testing.T, st kv.Store) {
		ctx := context.Background()
		_ = st.Set(ctx, "userInfo", "a")
		_ = st.Set(ctx, "username", "b")
		_ = st.Remove(ctx, "userInfo")

		v, ok, err := st.Get(ctx, "username")
		if err != nil || !ok || v != "b" {
			t.Fatalf("Get(username) = %q ok=%v err=%v", v, ok, err)
		}
	})
}

func TestMemoryClosed(t *testing.T) {
	st := kv.NewMemory()
	_ = st.Close()
	if err := st.Set(context.Background(), "k", "v"); !errors.Is(err, kv.ErrClosed) {
		t.Fatalf("Set after Close: err = %v, want ErrClosed", err)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	st, err := kv.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := st.Set(ctx, "userInfo", "persisted"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_ = st.Close()

	st, err = kv.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	v, ok, err := st.Get(ctx, "userInfo")
	if err != nil || !ok || v != "persisted" {
		t.Fatalf("Get after reopen = %q ok=%v err=%v", v, ok, err)
	}
}

func TestYAMLFilePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.yaml")
	ctx := context.Background()

	st, err := kv.OpenYAMLFile(path)
	if err != nil {
		t.Fatalf("OpenYAMLFile: %v", err)
	}
	if err := st.Set(ctx, "userInfo", `{"id":1,"name":"Ann"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	reopened, err := kv.OpenYAMLFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok, err := reopened.Get(ctx, "userInfo")
	if err != nil || !ok || v != `{"id":1,"name":"Ann"}` {
		t.Fatalf("Get after reopen = %q ok=%v err=%v", v, ok, err)
	}
}

func TestYAMLFileRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.yaml")
	if err := os.WriteFile(path, []byte("userInfo: [unterminated"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := kv.OpenYAMLFile(path); err == nil {
		t.Fatal("OpenYAMLFile: expected parse error")
	}
}

func TestRedisUsesPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	st := kv.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	defer st.Close()

	if err := st.Set(context.Background(), "userInfo", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := mr.Get("test:userInfo")
	if err != nil || got != "v" {
		t.Fatalf("raw redis value = %q err=%v", got, err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	st := kv.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "")
	defer st.Close()
	mr.Close()

	if _, _, err := st.Get(context.Background(), "userInfo"); err == nil {
		t.Fatal("Get against stopped redis: expected error")
	}
}

func TestSealedStoresCiphertext(t *testing.T) {
	inner := kv.NewMemory()
	st, err := kv.NewSealed(inner, "passphrase")
	if err != nil {
		t.Fatalf("NewSealed: %v", err)
	}
	ctx := context.Background()

	if err := st.Set(ctx, "userInfo", `{"token":"secret"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, ok, _ := inner.Get(ctx, "userInfo")
	if !ok {
		t.Fatal("inner store missing key")
	}
	if strings.Contains(raw, "secret") {
		t.Fatalf("inner value leaks plaintext: %q", raw)
	}
}

func TestSealedGetRejectsPlaintext(t *testing.T) {
	inner := kv.NewMemory()
	_ = inner.Set(context.Background(), "userInfo", `{"username":"annabel"}`)
	st, _ := kv.NewSealed(inner, "passphrase")

	if _, ok, err := st.Get(context.Background(), "userInfo"); err == nil || ok {
		t.Fatalf("Get of unsealed value: ok=%v err=%v, want error", ok, err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		opts    kv.Options
		wantErr bool
	}{
		{"memory", kv.Options{Driver: "memory"}, false},
		{"sqlite", kv.Options{Driver: "sqlite", Path: filepath.Join(dir, "a.db")}, false},
		{"yaml", kv.Options{Driver: "YAML", Path: filepath.Join(dir, "a.yaml")}, false},
		{"redis", kv.Options{Driver: "redis", RedisAddr: mr.Addr()}, false},
		{"redis without addr", kv.Options{Driver: "redis"}, true},
		{"sealed memory", kv.Options{Driver: "memory", Passphrase: "pw"}, false},
		{"unknown", kv.Options{Driver: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := kv.Open(ctx, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Open: expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: unexpected error: %v", err)
			}
			defer st.Close()
			if err := st.Set(ctx, "userInfo", "v"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if v, ok, err := st.Get(ctx, "userInfo"); err != nil || !ok || v != "v" {
				t.Fatalf("Get = %q ok=%v err=%v", v, ok, err)
			}
		})
	}

	st, err := kv.Open(ctx, kv.Options{Driver: "memory", Passphrase: "pw"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := st.(*kv.Sealed); !ok {
		t.Errorf("Open with passphrase returned %T, want *kv.Sealed", st)
	}
}
