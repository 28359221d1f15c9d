package snapshot

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/mlp-train/go-config/internal/hyperparams"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region golden-tests

// TestWriteJSON_Golden pins the exported layout consumed by the training
// scripts. If a parameter changes on purpose, regenerate testdata/table.json.
func TestWriteJSON_Golden(t *testing.T) {
	want, err := os.ReadFile(filepath.Join("testdata", "table.json"))
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}

	var buf bytes.Buffer
	if err := Take(hyperparams.Default()).WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if diff := cmp.Diff(string(want), buf.String()); diff != "" {
		t.Errorf("snapshot drifted from golden (-want +got):\n%s", diff)
	}
}

func TestLoad_GoldenMatchesTable(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "table.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if changes := Diff(Take(hyperparams.Default()), s); len(changes) != 0 {
		t.Errorf("expected no changes, got %v", changes)
	}
}

// #endregion golden-tests

// #region fingerprint-tests

func TestFingerprint_Deterministic(t *testing.T) {
	a, err := hyperparams.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := hyperparams.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fa, err := Fingerprint(Take(a))
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fb, err := Fingerprint(Take(b))
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fa != fb {
		t.Errorf("fingerprints differ: %s vs %s", fa, fb)
	}
	if len(fa) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(fa))
	}
}

func TestFingerprint_ChangesWithValue(t *testing.T) {
	s := Take(hyperparams.Default())
	before, _ := Fingerprint(s)

	s.Parameters["feature"]["lane_change_finish_condition"] = hyperparams.Float(0.2)
	after, _ := Fingerprint(s)

	if before == after {
		t.Error("expected fingerprint to change")
	}
}

// #endregion fingerprint-tests

// #region decode-tests

func TestDecode_RoundTrip(t *testing.T) {
	orig := Take(hyperparams.Default())
	var buf bytes.Buffer
	if err := orig.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if changes := Diff(orig, got); len(changes) != 0 {
		t.Errorf("round trip changed snapshot: %v", changes)
	}
	if got.Parameters["feature"]["maximum_maneuver_finish_time"].IsInt() {
		t.Error("expected float kind to survive the round trip")
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":   `{"parameters":{},"labels":{},"extra":1}`,
		"string value":    `{"parameters":{"mlp":{"dim_input":"62"}},"labels":{}}`,
		"missing labels":  `{"parameters":{}}`,
		"not json":        `parameters = {`,
		"fractional code": `{"parameters":{},"labels":{"go_true":1.5}}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error")
	}
}

// #endregion decode-tests

// #region diff-tests

func TestDiff(t *testing.T) {
	a := Take(hyperparams.Default())
	b := Take(hyperparams.Default())

	b.Parameters["mlp"]["dim_hidden_1"] = hyperparams.Int(32)
	b.Parameters["cruise_mlp"]["dim_input"] = hyperparams.Float(83)
	delete(b.Parameters["feature"], "prediction_label_timeframe")
	b.Parameters["feature"]["label_horizon"] = hyperparams.Float(2.5)
	b.Labels["cutin_false"] = 3

	want := []Change{
		{Kind: Changed, Path: "labels.cutin_false", Old: "-1", New: "3"},
		{Kind: Changed, Path: "parameters.cruise_mlp.dim_input", Old: "83", New: "83.0"},
		{Kind: Added, Path: "parameters.feature.label_horizon", New: "2.5"},
		{Kind: Removed, Path: "parameters.feature.prediction_label_timeframe", Old: "3.0"},
		{Kind: Changed, Path: "parameters.mlp.dim_hidden_1", Old: "30", New: "32"},
	}
	if diff := cmp.Diff(want, Diff(a, b)); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}
}

func TestChange_String(t *testing.T) {
	c := Change{Kind: Changed, Path: "labels.go_true", Old: "1", New: "2"}
	if got := c.String(); got != "~ labels.go_true: 1 -> 2" {
		t.Errorf("unexpected %q", got)
	}
}

// #endregion diff-tests

// #region protojson-tests

func TestWriteProtoJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Take(hyperparams.Default()).WriteProtoJSON(&buf); err != nil {
		t.Fatalf("WriteProtoJSON: %v", err)
	}

	var st structpb.Struct
	if err := protojson.Unmarshal(buf.Bytes(), &st); err != nil {
		t.Fatalf("protojson.Unmarshal: %v", err)
	}
	m := st.AsMap()

	params := m["parameters"].(map[string]any)
	if got := params["mlp"].(map[string]any)["dim_input"]; got != float64(62) {
		t.Errorf("mlp.dim_input = %v", got)
	}
	if got := params["feature"].(map[string]any)["lane_change_finish_condition"]; got != 0.1 {
		t.Errorf("feature.lane_change_finish_condition = %v", got)
	}
	labels := m["labels"].(map[string]any)
	if got := labels["cutin_false"]; got != float64(-1) {
		t.Errorf("labels.cutin_false = %v", got)
	}

	// the struct form is also plain JSON
	var plain map[string]map[string]any
	if err := json.Unmarshal(buf.Bytes(), &plain); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if len(plain["labels"]) != 4 {
		t.Errorf("expected 4 labels, got %d", len(plain["labels"]))
	}
}

// #endregion protojson-tests
