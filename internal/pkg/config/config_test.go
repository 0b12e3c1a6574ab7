package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.MaxCommunities != 8 {
		t.Errorf("expected 8 communities, got %d", cfg.MaxCommunities)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("expected 60s sweep, got %v", cfg.SweepInterval)
	}
	if cfg.AccessDebounce != 5*time.Second {
		t.Errorf("expected 5s debounce, got %v", cfg.AccessDebounce)
	}
	if cfg.RateLimit.Requests != 100 || cfg.RateLimit.Window != 15*time.Minute {
		t.Errorf("unexpected rate limit: %+v", cfg.RateLimit)
	}
	if !cfg.Session.Secure {
		t.Errorf("cookies must default to secure")
	}
	if cfg.Store.Backend != BackendFile {
		t.Errorf("expected file backend, got %q", cfg.Store.Backend)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORE_BACKEND": "mongo",
		"COOKIE_SECURE": "false",
		"REDIS_ENABLED": "true",
		"SESSION_TTL":   "2h",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != BackendMongo || cfg.Session.Secure || !cfg.Redis.Enabled || cfg.Session.TTL != 2*time.Hour {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadWith_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":           {"STORE_BACKEND": "sqlite"},
		"production without secret": {"ENV": "production"},
		"short secret":              {"SESSION_SECRET": "short"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadWith(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadWith_ProductionSecret(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":            "production",
		"SESSION_SECRET": strings.Repeat("k", 32),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
