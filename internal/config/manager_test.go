package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestManagerLoad(t *testing.T) {
	t.Run("missing file writes defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		m := NewManager(path)
		if err := m.Load(); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(Default(), m.Get()); diff != "" {
			t.Fatal(diff)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatal("defaults were not written back:", err)
		}
	})

	t.Run("partial file keeps defaults for omitted keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("workers: 4\ntimeout_ms: 500\n"), 0644); err != nil {
			t.Fatal(err)
		}

		m := NewManager(path)
		if err := m.Load(); err != nil {
			t.Fatal(err)
		}
		cfg := m.Get()
		if cfg.Workers != 4 || cfg.TimeoutMS != 500 {
			t.Fatalf("overrides not applied: %+v", cfg)
		}
		if cfg.QueryName != Default().QueryName {
			t.Fatal("omitted key lost its default:", cfg.QueryName)
		}
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("workers: [not a number\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := NewManager(path).Load(); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("timeout_ms: -1\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := NewManager(path).Load(); err == nil {
			t.Fatal("expected validation error")
		}
	})
}

func TestManagerUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m := NewManager(path)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Workers = 25
	if err := m.Update(cfg); err != nil {
		t.Fatal(err)
	}

	// A fresh manager must see the persisted change.
	other := NewManager(path)
	if err := other.Load(); err != nil {
		t.Fatal(err)
	}
	if got := other.Get().Workers; got != 25 {
		t.Fatal("persisted workers =", got)
	}

	bad := Default()
	bad.Attempts = 0
	if err := m.Update(bad); err == nil {
		t.Fatal("expected validation error")
	}
	if got := m.Get().Workers; got != 25 {
		t.Fatal("rejected update must not replace config, workers =", got)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal("defaults must validate:", err)
	}

	mutations := map[string]func(*Config){
		"empty query name":  func(c *Config) { c.QueryName = "" },
		"zero timeout":      func(c *Config) { c.TimeoutMS = 0 },
		"zero workers":      func(c *Config) { c.Workers = 0 },
		"negative epsilon":  func(c *Config) { c.EpsilonMS = -1 },
		"zero interval":     func(c *Config) { c.BenchmarkInterval = 0 },
		"negative attempts": func(c *Config) { c.Attempts = -2 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
