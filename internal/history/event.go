// Package history persists aggregation run events in SQLite and projects them
// into per-run summaries for `subdocs history`.
package history

import (
	"encoding/json"
	"time"

	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

// EventType names an aggregation event.
type EventType string

const (
	RunStarted    EventType = "run_started"
	SubrepoSynced EventType = "subrepo_synced"
	LocaleCopied  EventType = "locale_copied"
	LocaleSkipped EventType = "locale_skipped"
	RunCompleted  EventType = "run_completed"
	RunFailed     EventType = "run_failed"
)

// Event is one recorded step of a run.
type Event struct {
	ID        int64
	RunID     string
	Type      EventType
	Timestamp time.Time
	Subrepo   string
	Locale    string
	Payload   []byte
	Metadata  map[string]string
}

// RunStartedPayload is stored with RunStarted.
type RunStartedPayload struct {
	Subrepos []string `json:"subrepos"`
	Locales  []string `json:"locales"`
	SkipSync bool     `json:"skip_sync,omitempty"`
}

// SubrepoSyncedPayload is stored with SubrepoSynced.
type SubrepoSyncedPayload struct {
	Commit     string `json:"commit"`
	Cloned     bool   `json:"cloned"`
	Changed    bool   `json:"changed"`
	DurationMS int64  `json:"duration_ms"`
}

// LocaleCopiedPayload is stored with LocaleCopied.
type LocaleCopiedPayload struct {
	Files       int    `json:"files"`
	References  int    `json:"references"`
	Fingerprint string `json:"fingerprint"`
	Changed     bool   `json:"changed"`
}

// LocaleSkippedPayload is stored with LocaleSkipped.
type LocaleSkippedPayload struct {
	Source string `json:"source"`
}

// RunCompletedPayload is stored with RunCompleted.
type RunCompletedPayload struct {
	DurationMS int64 `json:"duration_ms"`
	Copied     int   `json:"copied"`
	Skipped    int   `json:"skipped"`
}

// RunFailedPayload is stored with RunFailed.
type RunFailedPayload struct {
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error"`
	Category   string `json:"category,omitempty"`
}

// NewEvent builds an event with a JSON encoded payload.
func NewEvent(runID string, typ EventType, subrepo, locale string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, errors.NewError(errors.CategoryHistory, "failed to marshal event payload").
			WithCause(err).
			WithContext("run_id", runID).
			WithContext("type", string(typ)).
			Build()
	}
	return Event{
		RunID:     runID,
		Type:      typ,
		Timestamp: time.Now(),
		Subrepo:   subrepo,
		Locale:    locale,
		Payload:   data,
	}, nil
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return errors.NewError(errors.CategoryHistory, "failed to decode event payload").
			WithCause(err).
			WithContext("event_id", e.ID).
			Build()
	}
	return nil
}
