package ingest

import (
	"go.uber.org/zap"

	"eventsIngestion/internal/model"
	"eventsIngestion/internal/registry"
)

// Observer is told about phase transitions and per-source progress.
// Source callbacks are invoked from concurrent child tasks.
type Observer interface {
	Transition(from, to State)
	SourceFetched(src model.Source, events int)
	SourcePublished(src model.Source, messages int)
	SourceFailed(src model.Source, err error)
	ChildrenResolved(snapshot registry.Snapshot)
	Finished(result Result)
}

// NopObserver ignores every callback. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) Transition(State, State)            {}
func (NopObserver) SourceFetched(model.Source, int)    {}
func (NopObserver) SourcePublished(model.Source, int)  {}
func (NopObserver) SourceFailed(model.Source, error)   {}
func (NopObserver) ChildrenResolved(registry.Snapshot) {}
func (NopObserver) Finished(Result)                    {}

// Observers fans callbacks out in order.
type Observers []Observer

func (o Observers) Transition(from, to State) {
	for _, obs := range o {
		obs.Transition(from, to)
	}
}

func (o Observers) SourceFetched(src model.Source, events int) {
	for _, obs := range o {
		obs.SourceFetched(src, events)
	}
}

func (o Observers) SourcePublished(src model.Source, messages int) {
	for _, obs := range o {
		obs.SourcePublished(src, messages)
	}
}

func (o Observers) SourceFailed(src model.Source, err error) {
	for _, obs := range o {
		obs.SourceFailed(src, err)
	}
}

func (o Observers) ChildrenResolved(snapshot registry.Snapshot) {
	for _, obs := range o {
		obs.ChildrenResolved(snapshot)
	}
}

func (o Observers) Finished(result Result) {
	for _, obs := range o {
		obs.Finished(result)
	}
}

// LogObserver writes progress lines to a zap logger.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver builds a LogObserver. A nil logger discards output.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger}
}

func (l *LogObserver) Transition(from, to State) {
	l.logger.Debug("state", zap.Stringer("from", from), zap.Stringer("to", to))
}

func (l *LogObserver) SourceFetched(src model.Source, events int) {
	l.logger.Info("events fetched", sourceFields(src, zap.Int("events", events))...)
}

func (l *LogObserver) SourcePublished(src model.Source, messages int) {
	l.logger.Info("events published", sourceFields(src, zap.Int("messages", messages))...)
}

func (l *LogObserver) SourceFailed(src model.Source, err error) {
	l.logger.Warn("source failed", sourceFields(src, zap.String("kind", model.ErrorKind(err)), zap.Error(err))...)
}

func (l *LogObserver) ChildrenResolved(snapshot registry.Snapshot) {
	l.logger.Info("children resolved", zap.Int("children", snapshot.Len()))
}

func (l *LogObserver) Finished(result Result) {
	fields := []zap.Field{
		zap.Stringer("state", result.State),
		zap.Int("sources", len(result.Sources)),
		zap.Int("published", result.Published()),
		zap.Duration("duration", result.Duration),
	}
	if result.Err != nil {
		l.logger.Error("run failed", append(fields, zap.Error(result.Err))...)
		return
	}
	l.logger.Info("run complete", fields...)
}

func sourceFields(src model.Source, extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("role", string(src.Role)),
		zap.String("address", src.Address.Hex()),
	}, extra...)
}
