package workflow

import (
	"context"
	"database/sql"
)

// Event is one audit record of a lifecycle transition.
type Event struct {
	Seq       int64
	Type      string // e.g. paper.APPROVE, submission.GRADE
	Key       string // entity id
	ActorID   string
	ActorRole string
	From      string
	To        string
	At        int64
}

type EventLog interface {
	Append(ctx context.Context, e Event) error
}

type NopLog struct{}

func (NopLog) Append(context.Context, Event) error { return nil }

// SQLEventLog appends transitions to the event_log table.
type SQLEventLog struct{ db *sql.DB }

func NewSQLEventLog(db *sql.DB) *SQLEventLog { return &SQLEventLog{db: db} }

func (r *SQLEventLog) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, actor_id, actor_role, from_state, to_state, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.Type, e.Key, e.ActorID, e.ActorRole, e.From, e.To, e.At)
	return err
}
