package hyperparams

import "fmt"

// #region table-struct
// Table holds the parameter groups and label codes. It is built once and
// never modified; every accessor hands out copies.
type Table struct {
	groups     []Group
	keys       map[Group][]string
	params     map[Group]map[string]Value
	components map[Group][]resolvedComponent
	labelNames []string
	labels     map[string]LabelCode

	typed       Parameters
	typedLabels Labels
}

type resolvedComponent struct {
	name string
	size int
}

// #endregion table-struct

// #region default
var defaultTable = mustNew()

func mustNew() *Table {
	t, err := New()
	if err != nil {
		panic(fmt.Sprintf("hyperparams: %v", err))
	}
	return t
}

// Default returns the process-wide table built at package initialization.
func Default() *Table { return defaultTable }

// New builds a fresh table from the built-in definition. Repeated calls
// return equal tables.
func New() (*Table, error) {
	return build(parameterDefinition, labelDefinition)
}

// GetParameter looks up a parameter in the default table.
func GetParameter(group, key string) (Value, error) {
	return defaultTable.Parameter(Group(group), key)
}

// GetLabel looks up a label code in the default table.
func GetLabel(name string) (LabelCode, error) {
	return defaultTable.Label(name)
}

// #endregion default

// #region build
func build(groupDefs []groupDef, labelDefs []labelDef) (*Table, error) {
	t := &Table{
		keys:       make(map[Group][]string, len(groupDefs)),
		params:     make(map[Group]map[string]Value, len(groupDefs)),
		components: make(map[Group][]resolvedComponent),
		labels:     make(map[string]LabelCode, len(labelDefs)),
	}

	for _, g := range groupDefs {
		if g.name == "" {
			return nil, malformed("group with empty name")
		}
		if _, dup := t.params[g.name]; dup {
			return nil, malformed("duplicate group %q", g.name)
		}
		if len(g.params) == 0 {
			return nil, malformed("group %q has no parameters", g.name)
		}
		values := make(map[string]Value, len(g.params))
		keys := make([]string, 0, len(g.params))
		for _, p := range g.params {
			if p.key == "" {
				return nil, malformed("group %q: parameter with empty name", g.name)
			}
			if _, dup := values[p.key]; dup {
				return nil, malformed("group %q: duplicate parameter %q", g.name, p.key)
			}
			if !p.value.finite() {
				return nil, malformed("%s.%s: non-finite value %v", g.name, p.key, p.value.num)
			}
			values[p.key] = p.value
			keys = append(keys, p.key)
		}
		t.groups = append(t.groups, g.name)
		t.keys[g.name] = keys
		t.params[g.name] = values

		for _, c := range g.components {
			size := c.size
			if c.key != "" {
				v, ok := values[c.key]
				if !ok {
					return nil, malformed("%s: component %s refers to missing key %q", g.name, c.name, c.key)
				}
				if !v.IsInt() {
					return nil, malformed("%s.%s: component size must be an integer", g.name, c.key)
				}
				size = v.Int()
			}
			t.components[g.name] = append(t.components[g.name], resolvedComponent{name: c.name, size: size})
		}
	}

	for _, l := range labelDefs {
		if l.name == "" {
			return nil, malformed("label with empty name")
		}
		if _, dup := t.labels[l.name]; dup {
			return nil, malformed("duplicate label %q", l.name)
		}
		t.labels[l.name] = l.code
		t.labelNames = append(t.labelNames, l.name)
	}

	if err := t.extractTyped(); err != nil {
		return nil, err
	}

	if report := t.Check(); !report.Passed {
		return nil, malformed("%s", report.Reason)
	}
	return t, nil
}

// #endregion build

// #region typed-extraction
type extractor struct {
	t   *Table
	err error
}

func (x *extractor) value(g Group, key string) (Value, bool) {
	if x.err != nil {
		return Value{}, false
	}
	v, err := x.t.Parameter(g, key)
	if err != nil {
		x.err = malformed("%v", err)
		return Value{}, false
	}
	return v, true
}

func (x *extractor) intParam(g Group, key string) int {
	v, ok := x.value(g, key)
	if !ok {
		return 0
	}
	if !v.IsInt() {
		x.err = malformed("%s.%s: expected integer, got %s", g, key, v)
		return 0
	}
	return v.Int()
}

func (x *extractor) floatParam(g Group, key string) float64 {
	v, ok := x.value(g, key)
	if !ok {
		return 0
	}
	return v.Float64()
}

func (x *extractor) label(name string) LabelCode {
	if x.err != nil {
		return 0
	}
	code, err := x.t.Label(name)
	if err != nil {
		x.err = malformed("%v", err)
	}
	return code
}

func (t *Table) extractTyped() error {
	x := &extractor{t: t}
	t.typed = Parameters{
		MLP: MLPParams{
			TrainDataRate:           x.floatParam(GroupMLP, KeyTrainDataRate),
			SizeObstacleFeature:     x.intParam(GroupMLP, KeySizeObstacleFeature),
			SizeLaneSequenceFeature: x.intParam(GroupMLP, KeySizeLaneSequenceFeature),
			DimInput:                x.intParam(GroupMLP, KeyDimInput),
			DimHidden1:              x.intParam(GroupMLP, KeyDimHidden1),
			DimHidden2:              x.intParam(GroupMLP, KeyDimHidden2),
			DimOutput:               x.intParam(GroupMLP, KeyDimOutput),
		},
		CruiseMLP: CruiseMLPParams{
			DimInput:   x.intParam(GroupCruiseMLP, KeyDimInput),
			DimHidden1: x.intParam(GroupCruiseMLP, KeyDimHidden1),
			DimHidden2: x.intParam(GroupCruiseMLP, KeyDimHidden2),
			DimOutput:  x.intParam(GroupCruiseMLP, KeyDimOutput),
		},
		Feature: FeatureParams{
			ThresholdLabelTimeDelta:   x.floatParam(GroupFeature, KeyThresholdLabelTimeDelta),
			PredictionLabelTimeframe:  x.floatParam(GroupFeature, KeyPredictionLabelTimeframe),
			MaximumManeuverFinishTime: x.floatParam(GroupFeature, KeyMaximumManeuverFinishTime),
			LaneChangeFinishCondition: x.floatParam(GroupFeature, KeyLaneChangeFinishCondition),
		},
	}
	t.typedLabels = Labels{
		GoFalse:    x.label(LabelNameGoFalse),
		GoTrue:     x.label(LabelNameGoTrue),
		CutinFalse: x.label(LabelNameCutinFalse),
		CutinTrue:  x.label(LabelNameCutinTrue),
	}
	return x.err
}

// #endregion typed-extraction

// #region lookups
// Parameter returns group.key or a *LookupError wrapping ErrNotFound.
func (t *Table) Parameter(group Group, key string) (Value, error) {
	values, ok := t.params[group]
	if !ok {
		return Value{}, &LookupError{Kind: "group", Group: group, Name: string(group)}
	}
	v, ok := values[key]
	if !ok {
		return Value{}, &LookupError{Kind: "parameter", Group: group, Name: key}
	}
	return v, nil
}

// Group returns a copy of one group's parameters.
func (t *Table) Group(group Group) (map[string]Value, error) {
	values, ok := t.params[group]
	if !ok {
		return nil, &LookupError{Kind: "group", Group: group, Name: string(group)}
	}
	out := make(map[string]Value, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out, nil
}

// Label returns the code for name or a *LookupError wrapping ErrNotFound.
func (t *Table) Label(name string) (LabelCode, error) {
	code, ok := t.labels[name]
	if !ok {
		return 0, &LookupError{Kind: "label", Name: name}
	}
	return code, nil
}

// #endregion lookups

// #region listings
// Groups returns group names in declaration order.
func (t *Table) Groups() []Group {
	return append([]Group(nil), t.groups...)
}

// Keys returns the parameter names of group in declaration order, or nil if
// the group does not exist.
func (t *Table) Keys(group Group) []string {
	keys, ok := t.keys[group]
	if !ok {
		return nil
	}
	return append([]string(nil), keys...)
}

// LabelNames returns label names in declaration order.
func (t *Table) LabelNames() []string {
	return append([]string(nil), t.labelNames...)
}

// ParametersMap returns a deep copy of the parameters mapping keyed by
// group and parameter name.
func (t *Table) ParametersMap() map[string]map[string]Value {
	out := make(map[string]map[string]Value, len(t.params))
	for g := range t.params {
		values, _ := t.Group(g)
		out[string(g)] = values
	}
	return out
}

// LabelsMap returns a copy of the labels mapping.
func (t *Table) LabelsMap() map[string]int {
	out := make(map[string]int, len(t.labels))
	for name, code := range t.labels {
		out[name] = int(code)
	}
	return out
}

// Parameters returns the typed view of all groups.
func (t *Table) Parameters() Parameters { return t.typed }

// Labels returns the typed view of the label table.
func (t *Table) Labels() Labels { return t.typedLabels }

// #endregion listings
