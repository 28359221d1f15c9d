package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/mlp-train/go-config/internal/hyperparams"
	"github.com/danielpatrickdp/mlp-train/go-config/internal/provenance"
	"github.com/danielpatrickdp/mlp-train/go-config/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// #region helpers
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func dbFlag(t *testing.T) string {
	t.Helper()
	return "--db=" + filepath.Join(t.TempDir(), "runs.db")
}

// #endregion helpers

// #region lookup-tests
func TestGet(t *testing.T) {
	out, err := execute(t, "get", "mlp", "dim_input")
	require.NoError(t, err)
	assert.Equal(t, "62\n", out)

	out, err = execute(t, "get", "feature", "prediction_label_timeframe")
	require.NoError(t, err)
	assert.Equal(t, "3.0\n", out)
}

func TestGet_Missing(t *testing.T) {
	_, err := execute(t, "get", "nonexistent", "dim_input")
	require.ErrorIs(t, err, hyperparams.ErrNotFound)
}

func TestLabel(t *testing.T) {
	out, err := execute(t, "label", "cutin_false")
	require.NoError(t, err)
	assert.Equal(t, "-1\n", out)

	_, err = execute(t, "label", "cutin_maybe")
	require.ErrorIs(t, err, hyperparams.ErrNotFound)
}

func TestShow(t *testing.T) {
	out, err := execute(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "cruise_mlp    dim_input")
	assert.Contains(t, out, "lane_change_finish_condition    0.1")
	assert.Contains(t, out, "cutin_true    2")

	out, err = execute(t, "show", "--json")
	require.NoError(t, err)
	snap, err := snapshot.Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Empty(t, snapshot.Diff(snapshot.Take(hyperparams.Default()), snap))
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check")
	require.NoError(t, err)
	assert.NotContains(t, out, "FAIL")
	assert.Contains(t, out, "mlp.dim_input_sum")
}

// #endregion lookup-tests

// #region export-tests
func TestExport_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	_, err := execute(t, "export", "--out", path)
	require.NoError(t, err)

	snap, err := snapshot.Load(path)
	require.NoError(t, err)
	assert.Equal(t, hyperparams.Int(83), snap.Parameters["cruise_mlp"]["dim_input"])
}

func TestExport_ProtoJSON(t *testing.T) {
	out, err := execute(t, "export", "--format", "protojson")
	require.NoError(t, err)

	var m map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.EqualValues(t, 2, m["labels"]["cutin_true"])
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := execute(t, "export", "--format", "yaml")
	require.Error(t, err)
}

// #endregion export-tests

// #region provenance-tests
func TestRecordRunsVerify(t *testing.T) {
	db := dbFlag(t)

	out, err := execute(t, db, "record", "--model", "cruise_mlp", "--note", "nightly")
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.Len(t, fields, 2)
	runID := fields[0]

	out, err = execute(t, db, "runs", "--json")
	require.NoError(t, err)
	var rows []runRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, runID, rows[0].RunID)
	assert.Equal(t, "cruise_mlp", rows[0].Model)
	assert.Equal(t, "nightly", rows[0].Note)
	assert.Equal(t, fields[1], rows[0].Fingerprint)

	out, err = execute(t, db, "verify", runID)
	require.NoError(t, err)
	assert.Contains(t, out, "matches")
}

func TestVerify_DriftedSnapshot(t *testing.T) {
	db := dbFlag(t)
	out, err := execute(t, db, "record", "--model", "mlp")
	require.NoError(t, err)
	runID := strings.Fields(out)[0]

	snap := snapshot.Take(hyperparams.Default())
	snap.Labels["cutin_false"] = 3
	path := filepath.Join(t.TempDir(), "drifted.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, snap.WriteJSON(f))
	require.NoError(t, f.Close())

	out, err = execute(t, db, "verify", runID, "--snapshot", path)
	require.ErrorIs(t, err, errDrift)
	assert.Equal(t, "~ labels.cutin_false: -1 -> 3\n", out)
}

func TestRecord_RequiresModel(t *testing.T) {
	_, err := execute(t, dbFlag(t), "record")
	require.Error(t, err)

	_, err = execute(t, dbFlag(t), "record", "--model", "feature_mlp")
	require.Error(t, err)
}

func TestRuns_ShortFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := provenance.NewStore(path)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, snapshot.Take(hyperparams.Default()).WriteJSON(&buf))
	_, err = store.DB().Exec(
		`INSERT INTO training_runs (run_id, model, fingerprint, snapshot_json, created_at)
		 VALUES ('imported', 'mlp', 'abc', ?, ?)`,
		buf.String(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := execute(t, "--db="+path, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "imported")
	assert.Contains(t, out, "abc")
}

func TestRuns_Empty(t *testing.T) {
	out, err := execute(t, dbFlag(t), "runs")
	require.NoError(t, err)
	assert.Empty(t, out)
}

// #endregion provenance-tests

// #region env-tests
func TestEnvOr(t *testing.T) {
	t.Setenv("MLPCONFIG_TEST_KEY", "")
	assert.Equal(t, "fallback", envOr("MLPCONFIG_TEST_KEY", "fallback"))

	t.Setenv("MLPCONFIG_TEST_KEY", "set")
	assert.Equal(t, "set", envOr("MLPCONFIG_TEST_KEY", "fallback"))
}

// #endregion env-tests
