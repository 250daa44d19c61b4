package ingest

import (
	"time"

	"go.uber.org/multierr"

	"eventsIngestion/internal/model"
	"eventsIngestion/internal/registry"
)

// Result is the terminal outcome of one run.
type Result struct {
	RunID     string
	State     State
	Err       error
	Sources   []model.SourceResult
	Snapshot  registry.Snapshot
	StartedAt time.Time
	Duration  time.Duration
}

// Message is the single human-readable result line.
func (r Result) Message() string {
	if r.Err == nil {
		return "past events published"
	}
	return "cannot publish events: " + firstError(r.Err).Error()
}

// Published counts messages sent across all sources.
func (r Result) Published() int {
	total := 0
	for _, src := range r.Sources {
		total += src.Published
	}
	return total
}

// FailedSources returns the sources that ended with an error.
func (r Result) FailedSources() []model.SourceResult {
	var failed []model.SourceResult
	for _, src := range r.Sources {
		if src.Failed() {
			failed = append(failed, src)
		}
	}
	return failed
}

func firstError(err error) error {
	if errs := multierr.Errors(err); len(errs) > 0 {
		return errs[0]
	}
	return err
}
