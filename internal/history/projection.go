package history

import (
	"time"
)

// Run statuses reported by Summarize.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunSummary is a read model of one aggregation run.
type RunSummary struct {
	RunID       string
	Status      string
	StartedAt   time.Time
	FinishedAt  time.Time
	Duration    time.Duration
	Synced      int
	Copied      int
	Skipped     int
	Unchanged   int // copied trees whose fingerprint matched the previous run
	FailedOn    string
	Error       string
	SyncedRepos []string
}

// Summarize folds the events of one run into a summary. A run without a
// terminal event is reported as running.
func Summarize(runID string, events []Event) RunSummary {
	s := RunSummary{RunID: runID, Status: StatusRunning}
	lastSubrepo := ""
	for _, e := range events {
		switch e.Type {
		case RunStarted:
			s.StartedAt = e.Timestamp
		case SubrepoSynced:
			s.Synced++
			s.SyncedRepos = append(s.SyncedRepos, e.Subrepo)
			lastSubrepo = e.Subrepo
		case LocaleCopied:
			s.Copied++
			var p LocaleCopiedPayload
			if e.Decode(&p) == nil && !p.Changed {
				s.Unchanged++
			}
		case LocaleSkipped:
			s.Skipped++
		case RunCompleted:
			s.Status = StatusCompleted
			s.FinishedAt = e.Timestamp
			var p RunCompletedPayload
			if e.Decode(&p) == nil {
				s.Duration = time.Duration(p.DurationMS) * time.Millisecond
			}
		case RunFailed:
			s.Status = StatusFailed
			s.FinishedAt = e.Timestamp
			s.FailedOn = e.Subrepo
			if s.FailedOn == "" {
				s.FailedOn = lastSubrepo
			}
			var p RunFailedPayload
			if e.Decode(&p) == nil {
				s.Error = p.Error
				s.Duration = time.Duration(p.DurationMS) * time.Millisecond
			}
		}
	}
	return s
}
