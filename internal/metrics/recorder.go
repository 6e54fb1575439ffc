package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultSkipped ResultLabel = "skipped"
	ResultWarning ResultLabel = "warning"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for sync, composition and build
// metrics. Components default to NoopRecorder.
type Recorder interface {
	ObserveSyncDuration(repo string, d time.Duration, success bool)
	IncSyncRetry(repo string)
	IncMappingResult(mapping string, result ResultLabel)
	IncCollision(mapping string)
	ObserveStageDuration(stage string, d time.Duration)
	IncBuildOutcome(strategy string) // comprehensive|degraded|failed
	IncAugmentResult(provider string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveSyncDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncSyncRetry(string)                             {}
func (NoopRecorder) IncMappingResult(string, ResultLabel)            {}
func (NoopRecorder) IncCollision(string)                             {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration)      {}
func (NoopRecorder) IncBuildOutcome(string)                          {}
func (NoopRecorder) IncAugmentResult(string, ResultLabel)            {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)              {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
