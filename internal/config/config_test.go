package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "MAX_INPUT_BYTES", "RENDER_TIMEOUT_MS", "RENDER_WORKERS",
		"RENDER_ENGINE", "RENDER_COMMAND", "RENDER_ENGINE_URL",
		"RENDER_HTTP_MAX_RETRIES", "CACHE_CAPACITY", "CACHE_TTL_SECONDS",
		"RATE_LIMIT_MAX_REQUESTS", "RATE_LIMIT_WINDOW_SECONDS",
		"ENABLE_RATE_LIMIT", "RATE_LIMIT_GLOBAL", "RATE_LIMIT_GLOBAL_BURST",
		"HISTORY_MAX", "SAMPLE_INTERVAL_MS", "SWEEP_INTERVAL",
		"RECLAIM_INTERVAL", "BREAKER_FAILURES", "BREAKER_TIMEOUT_MS",
		"CONFIG_FILE", "LOG_LEVEL", "ENV",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	ResetForTest()
	t.Cleanup(ResetForTest)
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}
	if cfg.MaxInputBytes != 2*1024*1024 {
		t.Errorf("MaxInputBytes = %d, want 2 MiB", cfg.MaxInputBytes)
	}
	if cfg.RenderTimeout != 30*time.Second {
		t.Errorf("RenderTimeout = %v, want 30s", cfg.RenderTimeout)
	}
	if cfg.RenderWorkers != 4 {
		t.Errorf("RenderWorkers = %d, want 4", cfg.RenderWorkers)
	}
	if cfg.RenderEngine != "command" || cfg.RenderCommand != "weasyprint - -" {
		t.Errorf("engine = %q command = %q", cfg.RenderEngine, cfg.RenderCommand)
	}
	if cfg.CacheCapacity != 100 || cfg.CacheTTL != time.Hour {
		t.Errorf("cache = %d/%v", cfg.CacheCapacity, cfg.CacheTTL)
	}
	if cfg.RateLimitMaxRequests != 60 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("rate limit = %d/%v", cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	}
	if !cfg.EnableRateLimit {
		t.Error("rate limiting should default to enabled")
	}
	if cfg.MaxHistory != 100 {
		t.Errorf("MaxHistory = %d, want 100", cfg.MaxHistory)
	}
	if cfg.SampleInterval != 2*time.Second {
		t.Errorf("SampleInterval = %v, want 2s", cfg.SampleInterval)
	}
	if cfg.SweepSchedule != "@every 1m" || cfg.ReclaimSchedule != "@every 5m" {
		t.Errorf("schedules = %q/%q", cfg.SweepSchedule, cfg.ReclaimSchedule)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("RENDER_WORKERS", "8")
	t.Setenv("RENDER_ENGINE", "http")
	t.Setenv("RENDER_ENGINE_URL", "http://renderer:5000/convert")
	t.Setenv("CACHE_CAPACITY", "5")
	t.Setenv("ENABLE_RATE_LIMIT", "false")
	ResetForTest()

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.RenderWorkers != 8 {
		t.Errorf("RenderWorkers = %d, want 8", cfg.RenderWorkers)
	}
	if cfg.RenderEngine != "http" || cfg.RenderURL != "http://renderer:5000/convert" {
		t.Errorf("engine = %q url = %q", cfg.RenderEngine, cfg.RenderURL)
	}
	if cfg.CacheCapacity != 5 {
		t.Errorf("CacheCapacity = %d, want 5", cfg.CacheCapacity)
	}
	if cfg.EnableRateLimit {
		t.Error("ENABLE_RATE_LIMIT=false not honored")
	}
}

func TestYAMLFileUnderEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yml")
	data := []byte(`
server:
  port: 7001
conversion:
  workers: 2
cache:
  capacity: 42
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", path)
	// Env still wins over the file.
	t.Setenv("PORT", "7002")
	ResetForTest()

	cfg := Load()

	if cfg.Port != 7002 {
		t.Errorf("Port = %d, env should override file", cfg.Port)
	}
	if cfg.RenderWorkers != 2 {
		t.Errorf("RenderWorkers = %d, want 2 from file", cfg.RenderWorkers)
	}
	if cfg.CacheCapacity != 42 {
		t.Errorf("CacheCapacity = %d, want 42 from file", cfg.CacheCapacity)
	}
	// Untouched keys keep defaults.
	if cfg.MaxHistory != 100 {
		t.Errorf("MaxHistory = %d, want default 100", cfg.MaxHistory)
	}
}

func TestBrokenConfigFileFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	ResetForTest()

	cfg := Load()
	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want default after file error", cfg.Port)
	}
}

func TestLoadFileRejectsUnknownExtension(t *testing.T) {
	if _, err := loadFile("/tmp/config.json"); err == nil {
		t.Error("expected error for non-YAML extension")
	}
}
