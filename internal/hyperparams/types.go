package hyperparams

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// #region group
// Group names a parameter group. Model groups share their name with the
// network they configure.
type Group string

const (
	GroupMLP       Group = "mlp"
	GroupCruiseMLP Group = "cruise_mlp"
	GroupFeature   Group = "feature"
)

// #endregion group

// #region keys
const (
	KeyTrainDataRate           = "train_data_rate"
	KeySizeObstacleFeature     = "size_obstacle_feature"
	KeySizeLaneSequenceFeature = "size_lane_sequence_feature"
	KeyDimInput                = "dim_input"
	KeyDimHidden1              = "dim_hidden_1"
	KeyDimHidden2              = "dim_hidden_2"
	KeyDimOutput               = "dim_output"

	KeyThresholdLabelTimeDelta   = "threshold_label_time_delta"
	KeyPredictionLabelTimeframe  = "prediction_label_timeframe"
	KeyMaximumManeuverFinishTime = "maximum_maneuver_finish_time"
	KeyLaneChangeFinishCondition = "lane_change_finish_condition"
)

// #endregion keys

// #region value
// Value is a numeric parameter value that remembers whether it was declared
// as an integer or a floating point literal. Integers keep their exact int64
// value; num mirrors it for float access.
type Value struct {
	num      float64
	i        int64
	integral bool
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{num: float64(v), i: v, integral: true} }

// Float returns a floating point Value.
func Float(v float64) Value { return Value{num: v} }

// Float64 returns the value as float64 regardless of its declared kind.
func (v Value) Float64() float64 { return v.num }

// Int64 returns the exact integer for integral values and the truncated
// float otherwise.
func (v Value) Int64() int64 {
	if v.integral {
		return v.i
	}
	return int64(v.num)
}

// Int returns the value truncated to an int.
func (v Value) Int() int { return int(v.Int64()) }

// IsInt reports whether the value was declared as an integer.
func (v Value) IsInt() bool { return v.integral }

func (v Value) finite() bool {
	return !math.IsNaN(v.num) && !math.IsInf(v.num, 0)
}

// String formats integers without a fractional part and floats with at
// least one decimal, so 62 and 1.0 survive a round trip.
func (v Value) String() string {
	if v.integral {
		return strconv.FormatInt(v.i, 10)
	}
	s := strconv.FormatFloat(v.num, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// MarshalJSON encodes the value as a bare JSON number.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.finite() {
		return nil, fmt.Errorf("marshal value: non-finite %v", v.num)
	}
	return []byte(v.String()), nil
}

// UnmarshalJSON accepts JSON numbers only. A literal without a fraction or
// exponent decodes as an integer.
func (v *Value) UnmarshalJSON(data []byte) error {
	if trimmed := strings.TrimSpace(string(data)); trimmed == "" || trimmed[0] == '"' {
		return fmt.Errorf("unmarshal value %s: not a number", data)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshal value %s: %w", data, err)
	}
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := n.Int64()
		if err != nil {
			return fmt.Errorf("unmarshal value %s: %w", s, err)
		}
		*v = Int(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("unmarshal value %s: %w", s, err)
	}
	*v = Float(f)
	return nil
}

// #endregion value

// #region typed-params
// MLPParams configures the lane sequence MLP.
type MLPParams struct {
	TrainDataRate           float64 // fraction of samples used for training
	SizeObstacleFeature     int
	SizeLaneSequenceFeature int
	DimInput                int // SizeObstacleFeature + SizeLaneSequenceFeature
	DimHidden1              int
	DimHidden2              int
	DimOutput               int
}

// CruiseMLPParams configures the cruise MLP (go / cut-in heads).
type CruiseMLPParams struct {
	DimInput   int // obstacle (23) + lane sequence (60) features
	DimHidden1 int
	DimHidden2 int
	DimOutput  int
}

// FeatureParams holds the labeling thresholds used during feature extraction.
// Times are in seconds.
type FeatureParams struct {
	ThresholdLabelTimeDelta   float64
	PredictionLabelTimeframe  float64
	MaximumManeuverFinishTime float64
	// A lane change is finished once the difference between the distances to
	// the left and right boundaries falls within this fraction.
	LaneChangeFinishCondition float64
}

// Parameters is the typed view of every parameter group.
type Parameters struct {
	MLP       MLPParams
	CruiseMLP CruiseMLPParams
	Feature   FeatureParams
}

// #endregion typed-params

// #region labels
// LabelCode is the integer target a classifier is trained against.
// Negative codes are meaningful and must not be remapped.
type LabelCode int

const (
	LabelGoFalse    LabelCode = 0
	LabelGoTrue     LabelCode = 1
	LabelCutinFalse LabelCode = -1
	LabelCutinTrue  LabelCode = 2
)

const (
	LabelNameGoFalse    = "go_false"
	LabelNameGoTrue     = "go_true"
	LabelNameCutinFalse = "cutin_false"
	LabelNameCutinTrue  = "cutin_true"
)

// Labels is the typed view of the label table.
type Labels struct {
	GoFalse    LabelCode
	GoTrue     LabelCode
	CutinFalse LabelCode
	CutinTrue  LabelCode
}

// #endregion labels
