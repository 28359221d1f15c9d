package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/danielpatrickdp/mlp-train/go-config/internal/hyperparams"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region snapshot-types

// Snapshot is the serializable form of a configuration table, keyed by the
// same names the training scripts index with.
type Snapshot struct {
	Parameters map[string]map[string]hyperparams.Value `json:"parameters"`
	Labels     map[string]int                          `json:"labels"`
}

// ChangeKind classifies a Diff entry.
type ChangeKind string

const (
	Added   ChangeKind = "added"
	Removed ChangeKind = "removed"
	Changed ChangeKind = "changed"
)

// Change is one difference between two snapshots. Path is "parameters.group.key"
// or "labels.name". Old is empty for additions, New for removals.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Path string     `json:"path"`
	Old  string     `json:"old,omitempty"`
	New  string     `json:"new,omitempty"`
}

func (c Change) String() string {
	switch c.Kind {
	case Added:
		return fmt.Sprintf("+ %s = %s", c.Path, c.New)
	case Removed:
		return fmt.Sprintf("- %s = %s", c.Path, c.Old)
	default:
		return fmt.Sprintf("~ %s: %s -> %s", c.Path, c.Old, c.New)
	}
}

// #endregion snapshot-types

// #region take

// Take captures the table's two mappings.
func Take(t *hyperparams.Table) Snapshot {
	return Snapshot{
		Parameters: t.ParametersMap(),
		Labels:     t.LabelsMap(),
	}
}

// #endregion take

// #region json

// WriteJSON writes the canonical indented JSON form. Map keys are sorted, so
// equal snapshots produce identical bytes.
func (s Snapshot) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Fingerprint returns the sha256 of the canonical JSON form.
func Fingerprint(s Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := s.WriteJSON(&buf); err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// Decode reads a JSON snapshot. Unknown top-level fields are rejected.
func Decode(r io.Reader) (Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Parameters == nil || s.Labels == nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: missing parameters or labels")
	}
	return s, nil
}

// Load reads and parses a JSON snapshot file.
func Load(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// #endregion json

// #region protobuf

// ToStruct converts the snapshot to a google.protobuf.Struct. Struct numbers
// are doubles, so the integer/float distinction is not preserved.
func (s Snapshot) ToStruct() (*structpb.Struct, error) {
	params := make(map[string]any, len(s.Parameters))
	for group, values := range s.Parameters {
		g := make(map[string]any, len(values))
		for key, v := range values {
			g[key] = v.Float64()
		}
		params[group] = g
	}
	labels := make(map[string]any, len(s.Labels))
	for name, code := range s.Labels {
		labels[name] = code
	}
	st, err := structpb.NewStruct(map[string]any{
		"parameters": params,
		"labels":     labels,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot to struct: %w", err)
	}
	return st, nil
}

// WriteProtoJSON writes the Struct form using protojson.
func (s Snapshot) WriteProtoJSON(w io.Writer) error {
	st, err := s.ToStruct()
	if err != nil {
		return err
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal protojson: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// #endregion protobuf

// #region diff

// Diff lists the differences from a to b, sorted by path. A value that only
// changes kind (62 vs 62.0) counts as changed.
func Diff(a, b Snapshot) []Change {
	var changes []Change

	groups := make(map[string]bool)
	for g := range a.Parameters {
		groups[g] = true
	}
	for g := range b.Parameters {
		groups[g] = true
	}
	for g := range groups {
		av, bv := a.Parameters[g], b.Parameters[g]
		keys := make(map[string]bool)
		for k := range av {
			keys[k] = true
		}
		for k := range bv {
			keys[k] = true
		}
		for k := range keys {
			path := "parameters." + g + "." + k
			oldV, inA := av[k]
			newV, inB := bv[k]
			switch {
			case !inA:
				changes = append(changes, Change{Kind: Added, Path: path, New: newV.String()})
			case !inB:
				changes = append(changes, Change{Kind: Removed, Path: path, Old: oldV.String()})
			case oldV != newV:
				changes = append(changes, Change{Kind: Changed, Path: path, Old: oldV.String(), New: newV.String()})
			}
		}
	}

	names := make(map[string]bool)
	for n := range a.Labels {
		names[n] = true
	}
	for n := range b.Labels {
		names[n] = true
	}
	for n := range names {
		path := "labels." + n
		oldC, inA := a.Labels[n]
		newC, inB := b.Labels[n]
		switch {
		case !inA:
			changes = append(changes, Change{Kind: Added, Path: path, New: fmt.Sprint(newC)})
		case !inB:
			changes = append(changes, Change{Kind: Removed, Path: path, Old: fmt.Sprint(oldC)})
		case oldC != newC:
			changes = append(changes, Change{Kind: Changed, Path: path, Old: fmt.Sprint(oldC), New: fmt.Sprint(newC)})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

// #endregion diff
