// Package config loads session settings from YAML or JSON files with
// environment-variable overrides.
package config

// Settings holds session-level configuration.
// Zero values fall back to the defaults from Default().
type Settings struct {
	// Workers is the worker-pool size for asynchronous play cycles.
	Workers int `yaml:"workers" json:"workers"`

	// FrameRate is the default target frame rate for new flows, in
	// frames per second.
	FrameRate float64 `yaml:"frame_rate" json:"frame_rate"`

	// HistoryPath is the SQLite run-history database path.
	// Empty disables persistent history.
	HistoryPath string `yaml:"history_path" json:"history_path"`

	// Metrics enables OpenTelemetry metrics.
	Metrics bool `yaml:"metrics" json:"metrics"`

	// Tracing enables OpenTelemetry tracing.
	Tracing bool `yaml:"tracing" json:"tracing"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		Workers:   4,
		FrameRate: 30,
	}
}

// normalize fills zero values with defaults.
func (s Settings) normalize() Settings {
	def := Default()
	if s.Workers <= 0 {
		s.Workers = def.Workers
	}
	if s.FrameRate <= 0 {
		s.FrameRate = def.FrameRate
	}
	return s
}
