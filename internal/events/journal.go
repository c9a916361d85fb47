package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/susu-finance/susu-api/internal/susu"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS susu_events (
    id          BIGSERIAL PRIMARY KEY,
    event_type  TEXT        NOT NULL,
    circle_id   UUID        NOT NULL,
    participant TEXT,
    payload     JSONB       NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_susu_events_circle ON susu_events (circle_id, id);
`

const insertEvent = `
INSERT INTO susu_events (event_type, circle_id, participant, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5)
`

// Journal appends every event to an append-only Postgres table so indexers
// and audits can replay the full history of each circle.
type Journal struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewJournal connects to Postgres and ensures the journal table exists.
func NewJournal(ctx context.Context, databaseURL string, logger *zap.Logger) (*Journal, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database connection string")
	}
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection pool")
	}
	if _, err := pool.Exec(ctx, journalSchema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to create event journal table")
	}
	return &Journal{pool: pool, logger: logger}, nil
}

// Emit appends the event. Journal failures are logged, never propagated.
func (j *Journal) Emit(ctx context.Context, ev susu.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		j.logger.Error("failed to marshal event for journal", zap.Error(err))
		return
	}
	_, err = j.pool.Exec(ctx, insertEvent,
		string(ev.Type),
		ev.CircleID,
		ev.Participant,
		payload,
		ev.OccurredAt,
	)
	if err != nil {
		j.logger.Error("failed to journal event",
			zap.String("event", string(ev.Type)),
			zap.String("circle_id", ev.CircleID.String()),
			zap.Error(err),
		)
	}
}

// Close releases the connection pool.
func (j *Journal) Close() {
	j.pool.Close()
}
