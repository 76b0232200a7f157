package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML config file. Zero values mean
// "not set" and fall through to env vars and built-in defaults.
type fileConfig struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Conversion struct {
		MaxInputBytes   int64  `yaml:"max_input_bytes"`
		RenderTimeoutMS int    `yaml:"render_timeout_ms"`
		Workers         int    `yaml:"workers"`
		Engine          string `yaml:"engine"`
		Command         string `yaml:"command"`
		EngineURL       string `yaml:"engine_url"`
		HTTPMaxRetries  int    `yaml:"http_max_retries"`
	} `yaml:"conversion"`
	Cache struct {
		Capacity   int `yaml:"capacity"`
		TTLSeconds int `yaml:"ttl_seconds"`
	} `yaml:"cache"`
	RateLimit struct {
		MaxRequests   int     `yaml:"max_requests"`
		WindowSeconds int     `yaml:"window_seconds"`
		GlobalRPS     float64 `yaml:"global_rps"`
		GlobalBurst   int     `yaml:"global_burst"`
	} `yaml:"rate_limit"`
	History struct {
		MaxRecords int `yaml:"max_records"`
	} `yaml:"history"`
	Sampling struct {
		IntervalMS int `yaml:"interval_ms"`
	} `yaml:"sampling"`
}

// loadFile parses the YAML config file at path. An empty path returns an
// empty fileConfig without error.
func loadFile(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return cfg, fmt.Errorf("unsupported config file extension %q: use .yaml or .yml", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("parsing YAML config: %w", err)
	}
	return cfg, nil
}
