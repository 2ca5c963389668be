package metrics

import "time"

// Outcome labels what happened to one subrepo/locale pair.
type Outcome string

const (
	OutcomeCopied  Outcome = "copied"
	OutcomeSkipped Outcome = "skipped"
)

// RunOutcome labels the final status of an aggregation run.
type RunOutcome string

const (
	RunSuccess  RunOutcome = "success"
	RunFailed   RunOutcome = "failed"
	RunCanceled RunOutcome = "canceled"
)

// Recorder defines observability hooks for aggregation runs. Implementations
// must tolerate being called from a single goroutine at a time only.
type Recorder interface {
	ObserveSyncDuration(subrepo string, d time.Duration, success bool)
	IncLocaleOutcome(locale string, outcome Outcome)
	AddRewrittenReferences(subrepo string, n int)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcome)
	SetNavigationEntries(locale string, included, missing int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveSyncDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncLocaleOutcome(string, Outcome)                {}
func (NoopRecorder) AddRewrittenReferences(string, int)              {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                {}
func (NoopRecorder) IncRunOutcome(RunOutcome)                        {}
func (NoopRecorder) SetNavigationEntries(string, int, int)           {}
