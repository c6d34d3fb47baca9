package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Predictory42/predictory/internal/ledger"
)

// Tx wraps a single store transaction. All record reads and writes of one
// ledger operation go through the same Tx; the operation's journal entry
// is appended within it as well.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
	seq *SeqClock
}

// JournalEntry is one row of the append-only operation journal.
type JournalEntry struct {
	Seq     int64
	Op      string
	EventID string
	Actor   string
	Payload string
}

// AppendJournal appends an operation record stamped with the next logical
// sequence number. Payload must already be canonical JSON.
func (t *Tx) AppendJournal(op, eventID, actor string, payload []byte) (int64, error) {
	seq := t.seq.Next()
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO journal (seq, op, event_id, actor, payload)
		VALUES (?, ?, ?, ?, ?)
	`, seq, op, nullIfEmpty(eventID), nullIfEmpty(actor), string(payload))
	if err != nil {
		return 0, fmt.Errorf("append journal: %w", err)
	}
	return seq, nil
}

// ListJournal returns journal entries in sequence order, optionally
// filtered by event id. Returns an empty slice, not nil, when no entries
// match.
func (t *Tx) ListJournal(eventID string) ([]JournalEntry, error) {
	query := `SELECT seq, op, COALESCE(event_id, ''), COALESCE(actor, ''), payload FROM journal`
	args := []any{}
	if eventID != "" {
		query += ` WHERE event_id = ?`
		args = append(args, eventID)
	}
	query += ` ORDER BY seq ASC`

	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []JournalEntry{}
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.Seq, &e.Op, &e.EventID, &e.Actor, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func notFound(kind, key string) error {
	return ledger.NewError(ledger.ErrNotFound, fmt.Sprintf("%s %s not found", kind, key))
}
