package provenance

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielpatrickdp/mlp-train/go-config/internal/log"
	"github.com/danielpatrickdp/mlp-train/go-config/internal/snapshot"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS training_runs (
	run_id        TEXT PRIMARY KEY,
	model         TEXT NOT NULL,
	fingerprint   TEXT NOT NULL,
	snapshot_json TEXT NOT NULL,
	note          TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_training_runs_created ON training_runs(created_at);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	event         TEXT NOT NULL,
	detail        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES training_runs(run_id)
);
`

// #endregion schema

// #region store-struct
// Store records training runs and their configuration in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// PRAGMA foreign_keys is per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for event queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region record-run
// RecordRun stores a new run for model with the given snapshot and logs a
// "recorded" event in the same transaction.
func (s *Store) RecordRun(model string, snap snapshot.Snapshot, note string) (RunRecord, error) {
	if _, ok := snap.Parameters[model]; !ok {
		return RunRecord{}, fmt.Errorf("record run: %w: %q", ErrUnknownModel, model)
	}

	var buf bytes.Buffer
	if err := snap.WriteJSON(&buf); err != nil {
		return RunRecord{}, fmt.Errorf("record run: %w", err)
	}
	fp, err := snapshot.Fingerprint(snap)
	if err != nil {
		return RunRecord{}, fmt.Errorf("record run: %w", err)
	}

	rec := RunRecord{
		RunID:       uuid.New().String(),
		Model:       model,
		Fingerprint: fp,
		Snapshot:    snap,
		Note:        note,
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return RunRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO training_runs (run_id, model, fingerprint, snapshot_json, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Model, rec.Fingerprint, buf.String(), nullIfEmpty(rec.Note),
		rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}

	if err := LogEvent(tx, Entry{
		RunID:     rec.RunID,
		Event:     EventRecorded,
		Detail:    "fingerprint=" + fp,
		CreatedAt: rec.CreatedAt,
	}); err != nil {
		return RunRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("commit: %w", err)
	}

	logger := log.WithComponent("provenance")
	logger.Info().
		Str("run_id", rec.RunID).
		Str("model", model).
		Str("fingerprint", fp).
		Msg("training run recorded")

	return rec, nil
}

// #endregion record-run

// #region get-run
// GetRun retrieves a run by ID. Missing runs return an error wrapping
// ErrRunNotFound.
func (s *Store) GetRun(id string) (RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT run_id, model, fingerprint, snapshot_json, note, created_at
		 FROM training_runs WHERE run_id = ?`, id,
	)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs, newest first. Rows are ordered by
// the time they encode, not by their text, so rows written with a variable
// width fraction still sort correctly.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, model, fingerprint, snapshot_json, note, created_at
		 FROM training_runs
		 ORDER BY julianday(created_at) DESC, created_at DESC, rowid DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-runs

// #region verify-run
// VerifyRun diffs the run's recorded snapshot against current and logs a
// "verified" or "drifted" event.
func (s *Store) VerifyRun(id string, current snapshot.Snapshot) (Verification, error) {
	rec, err := s.GetRun(id)
	if err != nil {
		return Verification{}, err
	}
	fp, err := snapshot.Fingerprint(current)
	if err != nil {
		return Verification{}, fmt.Errorf("verify run: %w", err)
	}

	v := Verification{
		RunID:       id,
		Fingerprint: fp,
		Changes:     snapshot.Diff(rec.Snapshot, current),
	}
	v.Match = len(v.Changes) == 0

	entry := Entry{RunID: id, Event: EventVerified, Detail: "fingerprint=" + fp}
	if !v.Match {
		lines := make([]string, len(v.Changes))
		for i, c := range v.Changes {
			lines[i] = c.String()
		}
		entry.Event = EventDrifted
		entry.Detail = strings.Join(lines, "\n")
	}
	if err := LogEvent(s.db, entry); err != nil {
		return Verification{}, err
	}

	logger := log.WithComponent("provenance")
	logger.Info().
		Str("run_id", id).
		Bool("match", v.Match).
		Int("changes", len(v.Changes)).
		Msg("training run verified")

	return v, nil
}

// #endregion verify-run

// #region scan
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var rec RunRecord
	var snapJSON string
	var note sql.NullString
	var createdStr string

	if err := row.Scan(&rec.RunID, &rec.Model, &rec.Fingerprint, &snapJSON, &note, &createdStr); err != nil {
		return RunRecord{}, err
	}
	if note.Valid {
		rec.Note = note.String
	}
	snap, err := snapshot.Decode(strings.NewReader(snapJSON))
	if err != nil {
		return RunRecord{}, fmt.Errorf("run %s: %w", rec.RunID, err)
	}
	rec.Snapshot = snap
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// #endregion scan
