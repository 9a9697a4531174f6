// Package audit writes the clinic-level audit trail. Quote events cover the
// clinical history of one quote; audit rows cover who touched what across
// the whole system.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is a record stored in audit_logs.
type Entry struct {
	Action   string
	Entity   string
	EntityID int64
	Meta     map[string]any
	At       time.Time
}

// Logger writes records into audit_logs. Audit failures are logged and
// swallowed; a broken audit table must never block treatment work.
type Logger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

// NewLogger returns a new Logger.
func NewLogger(pool *pgxpool.Pool, logger *slog.Logger) *Logger {
	return &Logger{pool: pool, logger: logger, now: time.Now}
}

// Record persists a quote audit entry.
func (l *Logger) Record(ctx context.Context, action string, quoteID int64, meta map[string]any) {
	l.write(ctx, Entry{Action: action, Entity: "quote", EntityID: quoteID, Meta: meta})
}

func (l *Logger) write(ctx context.Context, e Entry) {
	if l == nil || l.pool == nil {
		return
	}
	if e.At.IsZero() {
		e.At = l.now()
	}
	metaJSON, err := json.Marshal(e.Meta)
	if err != nil {
		l.logger.Error("audit meta marshal failed", "action", e.Action, "error", err)
		return
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO audit_logs (action, entity, entity_id, meta, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.Action, e.Entity, e.EntityID, metaJSON, e.At)
	if err != nil {
		l.logger.Error("audit write failed", "action", e.Action, "entity_id", e.EntityID, "error", err)
	}
}
