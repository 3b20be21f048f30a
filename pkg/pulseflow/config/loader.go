package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized by FromEnv.
const (
	EnvWorkers     = "PULSEFLOW_WORKERS"
	EnvFrameRate   = "PULSEFLOW_FRAME_RATE"
	EnvHistoryPath = "PULSEFLOW_HISTORY_PATH"
	EnvMetrics     = "PULSEFLOW_METRICS"
	EnvTracing     = "PULSEFLOW_TRACING"
)

// FromFile loads settings from a file, auto-detecting format by
// extension. Supported extensions: .yaml, .yml, .json.
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into Settings.
func FromYAML(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	return s.normalize(), nil
}

// FromJSON parses JSON data into Settings.
func FromJSON(data []byte) (Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	return s.normalize(), nil
}

// FromEnv overlays environment-variable overrides onto s.
// Unset or unparseable variables leave the corresponding field as is.
func FromEnv(s Settings) Settings {
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Workers = n
		}
	}
	if v := os.Getenv(EnvFrameRate); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			s.FrameRate = f
		}
	}
	if v := os.Getenv(EnvHistoryPath); v != "" {
		s.HistoryPath = v
	}
	if v := os.Getenv(EnvMetrics); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Metrics = b
		}
	}
	if v := os.Getenv(EnvTracing); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Tracing = b
		}
	}
	return s.normalize()
}
