package httpapi

import (
	"log/slog"

	"github.com/ledgermint/lendingcore/core/events"
)

// LogEmitter logs every engine event at info level, standing in for the
// indexer/webhook subscribers a production deployment would attach to
// core/events.Emitter.
type LogEmitter struct {
	Logger *slog.Logger
}

// Emit implements events.Emitter.
func (e LogEmitter) Emit(evt events.Event) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("lending event", "type", evt.EventType(), "event", evt)
}
