package metrics

import "time"

// RunOutcome enumerates final run states.
type RunOutcome string

const (
	OutcomeSuccess RunOutcome = "success"
	OutcomeFailed  RunOutcome = "failed"
	OutcomeSkipped RunOutcome = "skipped"
)

// Recorder defines observability hooks for generation runs.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcome)
	AddFilesWritten(n int)
	AddChunksIgnored(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncRunOutcome(RunOutcome)                   {}
func (NoopRecorder) AddFilesWritten(int)                        {}
func (NoopRecorder) AddChunksIgnored(int)                       {}
