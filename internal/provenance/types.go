package provenance

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/mlp-train/go-config/internal/snapshot"
)

var (
	// ErrRunNotFound is returned when a run ID has no row.
	ErrRunNotFound = errors.New("run not found")
	// ErrUnknownModel is returned when a run names a group the snapshot lacks.
	ErrUnknownModel = errors.New("unknown model")
)

// Event types written to provenance_log.
const (
	EventRecorded = "recorded"
	EventVerified = "verified"
	EventDrifted  = "drifted"
)

// timeLayout is RFC 3339 with a fixed nine-digit fraction, so stored
// created_at values have equal width and sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region run-record
// RunRecord is a training run and the configuration it was launched with.
type RunRecord struct {
	RunID       string
	Model       string // parameter group, e.g. "mlp" or "cruise_mlp"
	Fingerprint string
	Snapshot    snapshot.Snapshot
	Note        string
	CreatedAt   time.Time
}

// #endregion run-record

// #region entry
// Entry is a single row in the provenance_log table.
type Entry struct {
	RunID     string
	Event     string // "recorded" | "verified" | "drifted"
	Detail    string
	CreatedAt time.Time
}

// #endregion entry

// #region verification
// Verification compares a recorded run against another snapshot.
type Verification struct {
	RunID       string
	Match       bool
	Fingerprint string // fingerprint of the compared snapshot
	Changes     []snapshot.Change
}

// #endregion verification
