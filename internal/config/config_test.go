package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, err := LoadFrom(path, map[string]string{})
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Cache.SessionTTL.Duration != 10*time.Minute {
		t.Errorf("SessionTTL = %v, want 10m", cfg.Cache.SessionTTL)
	}
	if cfg.Navigation.MaxWait.Duration != 10*time.Second {
		t.Errorf("MaxWait = %v, want 10s", cfg.Navigation.MaxWait)
	}
	if strings.HasPrefix(cfg.DBPath, "~") {
		t.Errorf("DBPath = %q, want ~ expanded", cfg.DBPath)
	}
}

func TestLoadFrom_File(t *testing.T) {
	path := writeConfig(t, `
db = ":memory:"
user = "reader-1"

[cache]
discard_superseded = true
session_ttl = "30m"
session_codec = "msgpack"

[cache.policies.homepage]
fresh = "10s"
expiry = "2m"

[prefetch]
idle_delay = "500ms"
max_concurrent = 2
likely_next = ["/rankings"]

[navigation]
max_wait = "5s"
settle_delay = "150ms"
`)

	cfg, err := LoadFrom(path, map[string]string{})
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.DBPath != ":memory:" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.User != "reader-1" {
		t.Errorf("User = %q", cfg.User)
	}
	if !cfg.Cache.DiscardSuperseded {
		t.Error("DiscardSuperseded = false, want true")
	}
	if cfg.Cache.SessionTTL.Duration != 30*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.Cache.SessionTTL)
	}
	if cfg.Cache.SessionCodec != "msgpack" {
		t.Errorf("SessionCodec = %q", cfg.Cache.SessionCodec)
	}
	home, ok := cfg.Cache.Policies["homepage"]
	if !ok {
		t.Fatal("homepage policy missing")
	}
	if home.FreshWindow.Duration != 10*time.Second || home.HardExpiry.Duration != 2*time.Minute {
		t.Errorf("homepage policy = %+v", home)
	}
	if cfg.Prefetch.IdleDelay.Duration != 500*time.Millisecond || cfg.Prefetch.MaxConcurrent != 2 {
		t.Errorf("prefetch = %+v", cfg.Prefetch)
	}
	if len(cfg.Prefetch.LikelyNext) != 1 || cfg.Prefetch.LikelyNext[0] != "/rankings" {
		t.Errorf("LikelyNext = %v", cfg.Prefetch.LikelyNext)
	}
	if cfg.Navigation.SettleDelay.Duration != 150*time.Millisecond {
		t.Errorf("SettleDelay = %v", cfg.Navigation.SettleDelay)
	}
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
user = "reader-1"

[navigation]
max_wait = "5s"
`)

	cfg, err := LoadFrom(path, map[string]string{
		"MANGAREADER_USER":                "reader-2",
		"MANGAREADER_NAV_MAX_WAIT":        "3s",
		"MANGAREADER_PREFETCH_SAVE_DATA":  "true",
		"MANGAREADER_CACHE_SESSION_CODEC": "json",
		"MANGAREADER_OTLP_ENDPOINT":       "localhost:4318",
	})
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.User != "reader-2" {
		t.Errorf("User = %q, want reader-2", cfg.User)
	}
	if cfg.Navigation.MaxWait.Duration != 3*time.Second {
		t.Errorf("MaxWait = %v, want 3s", cfg.Navigation.MaxWait)
	}
	if !cfg.Prefetch.SaveData {
		t.Error("SaveData = false, want true")
	}
	if cfg.OTLPEndpoint != "localhost:4318" {
		t.Errorf("OTLPEndpoint = %q", cfg.OTLPEndpoint)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "bad toml", content: "db = "},
		{name: "bad duration", content: "[navigation]\nmax_wait = \"soon\""},
		{name: "unknown codec", content: "[cache]\nsession_codec = \"xml\""},
		{name: "negative concurrency", content: "[prefetch]\nmax_concurrent = -1"},
		{name: "expiry before fresh", content: "[cache.policies.manga]\nfresh = \"1m\"\nexpiry = \"10s\""},
		{name: "bad env duration", content: "", env: map[string]string{"MANGAREADER_NAV_MAX_WAIT": "later"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := tt.env
			if env == nil {
				env = map[string]string{}
			}
			if _, err := LoadFrom(writeConfig(t, tt.content), env); err == nil {
				t.Error("LoadFrom() error = nil, want error")
			}
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte(" 1m30s ")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("Duration = %v, want 1m30s", d.Duration)
	}

	if err := d.UnmarshalText(nil); err != nil || d.Duration != 0 {
		t.Errorf("UnmarshalText(nil) = %v, %v", d.Duration, err)
	}

	out, _ := Duration{2 * time.Second}.MarshalText()
	if string(out) != "2s" {
		t.Errorf("MarshalText() = %q, want 2s", out)
	}
}
