// Package events provides the sinks that observe committed circle
// transitions: a structured-log sink, a Postgres journal, an SQS publisher,
// and a fanout to combine them. Sinks run post-commit and are best-effort;
// a failing sink logs and is skipped, it never fails the transition.
package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/susu-finance/susu-api/internal/susu"
)

// LogSink writes every event to the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink logging at info level.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit logs the event.
func (s *LogSink) Emit(_ context.Context, ev susu.Event) {
	fields := []zap.Field{
		zap.String("event", string(ev.Type)),
		zap.String("circle_id", ev.CircleID.String()),
	}
	if ev.Participant != "" {
		fields = append(fields, zap.String("participant", ev.Participant))
	}
	if ev.Cycle > 0 {
		fields = append(fields, zap.Int("cycle", ev.Cycle))
	}
	if ev.Amount != nil {
		fields = append(fields, zap.String("amount", ev.Amount.Dec()))
	}
	if ev.YieldAmount != nil && !ev.YieldAmount.IsZero() {
		fields = append(fields, zap.String("yield_amount", ev.YieldAmount.Dec()))
	}
	s.logger.Info("circle event", fields...)
}

// Fanout delivers each event to every sink in order.
type Fanout []susu.Sink

// Emit forwards to each sink.
func (f Fanout) Emit(ctx context.Context, ev susu.Event) {
	for _, s := range f {
		if s != nil {
			s.Emit(ctx, ev)
		}
	}
}
