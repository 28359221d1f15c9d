package provenance

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-event
// LogEvent writes an entry to the provenance_log table.
func LogEvent(db execer, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO provenance_log (run_id, event, detail, created_at)
		 VALUES (?, ?, ?, ?)`,
		entry.RunID,
		entry.Event,
		nullIfEmpty(entry.Detail),
		entry.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// #endregion log-event

// #region list-events
// ListEvents returns every event for a run, oldest first.
func ListEvents(db *sql.DB, runID string) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT run_id, event, detail, created_at FROM provenance_log
		 WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var detail sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Event, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if detail.Valid {
			e.Detail = detail.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list-events

// #region helpers
// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
