package pulseflow

import "github.com/pulseflow/pulseflow/pkg/pulseflow/config"

// FromSettings converts loaded config into session options.
// The history path is not opened here; callers that want persistent
// history open a history.SQLiteStore themselves and pass WithHistory,
// keeping store ownership (and Close) with the caller.
//
// Example:
//
//	settings, err := config.FromFile("pulseflow.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	session := pulseflow.NewSession(pulseflow.FromSettings(settings)...)
func FromSettings(s config.Settings) []SessionOption {
	return []SessionOption{
		WithWorkers(s.Workers),
		WithDefaultRate(s.FrameRate),
		WithMetrics(s.Metrics),
		WithTracing(s.Tracing),
	}
}
