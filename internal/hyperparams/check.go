package hyperparams

import (
	"fmt"
	"strings"
)

// #region check-types
// CheckResult captures a single consistency check.
type CheckResult struct {
	Name   string
	Detail string
	Pass   bool
}

// Report is the outcome of Table.Check.
type Report struct {
	Passed bool
	Checks []CheckResult
	Reason string
}

// #endregion check-types

// #region check
// Check verifies the relationships between parameters: input widths match
// their feature components, fractions and durations are in range, and label
// codes are distinct.
func (t *Table) Check() Report {
	var checks []CheckResult
	var failReasons []string

	add := func(name string, pass bool, format string, args ...any) {
		detail := fmt.Sprintf(format, args...)
		checks = append(checks, CheckResult{Name: name, Detail: detail, Pass: pass})
		if !pass {
			failReasons = append(failReasons, fmt.Sprintf("%s: %s", name, detail))
		}
	}

	// 1. dim_input == sum of component sizes
	for _, g := range t.groups {
		comps := t.components[g]
		if len(comps) == 0 {
			continue
		}
		sum := 0
		parts := make([]string, len(comps))
		for i, c := range comps {
			sum += c.size
			parts[i] = fmt.Sprintf("%s=%d", c.name, c.size)
		}
		name := fmt.Sprintf("%s.%s_sum", g, KeyDimInput)
		dim, err := t.Parameter(g, KeyDimInput)
		if err != nil {
			add(name, false, "%v", err)
			continue
		}
		add(name, dim.IsInt() && dim.Int() == sum,
			"%s, want %d (%s)", dim, sum, strings.Join(parts, " + "))
	}

	// 2. layer widths
	for _, g := range t.groups {
		for _, key := range []string{KeyDimInput, KeyDimHidden1, KeyDimHidden2, KeyDimOutput} {
			v, ok := t.params[g][key]
			if !ok {
				continue
			}
			add(fmt.Sprintf("%s.%s", g, key), v.IsInt() && v.Int() > 0, "%s must be a positive integer", v)
		}
	}

	// 3. fractions
	if v, ok := t.params[GroupMLP][KeyTrainDataRate]; ok {
		f := v.Float64()
		add(string(GroupMLP)+"."+KeyTrainDataRate, f > 0 && f <= 1, "%s must be in (0, 1]", v)
	}
	if v, ok := t.params[GroupFeature][KeyLaneChangeFinishCondition]; ok {
		f := v.Float64()
		add(string(GroupFeature)+"."+KeyLaneChangeFinishCondition, f >= 0 && f <= 1, "%s must be in [0, 1]", v)
	}

	// 4. label time horizons are ordered
	delta, okDelta := t.params[GroupFeature][KeyThresholdLabelTimeDelta]
	frame, okFrame := t.params[GroupFeature][KeyPredictionLabelTimeframe]
	finish, okFinish := t.params[GroupFeature][KeyMaximumManeuverFinishTime]
	if okDelta && okFrame && okFinish {
		add("feature.time_horizons",
			delta.Float64() > 0 && delta.Float64() <= frame.Float64() && frame.Float64() <= finish.Float64(),
			"need 0 < %s <= %s <= %s", delta, frame, finish)
	}

	// 5. label codes are distinct
	seen := make(map[LabelCode]string, len(t.labels))
	for _, name := range t.labelNames {
		code := t.labels[name]
		if other, dup := seen[code]; dup {
			add("labels.distinct", false, "%s and %s share code %d", other, name, code)
			continue
		}
		seen[code] = name
	}
	if len(seen) == len(t.labelNames) {
		add("labels.distinct", true, "%d distinct codes", len(seen))
	}

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = failReasons[0]
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("%d checks failed: %s", len(failReasons), failReasons[0])
	}

	return Report{
		Passed: len(failReasons) == 0,
		Checks: checks,
		Reason: reason,
	}
}

// #endregion check
