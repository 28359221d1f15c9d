package hyperparams

// #region definition-types
type paramDef struct {
	key   string
	value Value
}

type groupDef struct {
	name   Group
	params []paramDef
	// components lists the feature sizes dim_input must add up to. Empty
	// means the group has no input layer.
	components []component
}

// component is a feature vector size, either read from a key of the same
// group or declared inline when the group does not expose it as a key.
type component struct {
	name string
	key  string
	size int
}

type labelDef struct {
	name string
	code LabelCode
}

// #endregion definition-types

// #region cruise-components
// Cruise MLP feature sizes. They only appear summed in dim_input.
const (
	cruiseObstacleFeatureSize     = 23
	cruiseLaneSequenceFeatureSize = 60
)

// #endregion cruise-components

// #region parameter-definition
var parameterDefinition = []groupDef{
	{
		name: GroupMLP,
		params: []paramDef{
			{KeyTrainDataRate, Float(0.8)},
			{KeySizeObstacleFeature, Int(22)},
			{KeySizeLaneSequenceFeature, Int(40)},
			{KeyDimInput, Int(22 + 40)},
			{KeyDimHidden1, Int(30)},
			{KeyDimHidden2, Int(15)},
			{KeyDimOutput, Int(1)},
		},
		components: []component{
			{name: "obstacle", key: KeySizeObstacleFeature},
			{name: "lane_sequence", key: KeySizeLaneSequenceFeature},
		},
	},
	{
		name: GroupCruiseMLP,
		params: []paramDef{
			{KeyDimInput, Int(cruiseObstacleFeatureSize + cruiseLaneSequenceFeatureSize)},
			{KeyDimHidden1, Int(50)},
			{KeyDimHidden2, Int(18)},
			{KeyDimOutput, Int(2)},
		},
		components: []component{
			{name: "obstacle", size: cruiseObstacleFeatureSize},
			{name: "lane_sequence", size: cruiseLaneSequenceFeatureSize},
		},
	},
	{
		name: GroupFeature,
		params: []paramDef{
			{KeyThresholdLabelTimeDelta, Float(1.0)},
			{KeyPredictionLabelTimeframe, Float(3.0)},
			{KeyMaximumManeuverFinishTime, Float(6.0)},
			{KeyLaneChangeFinishCondition, Float(0.1)},
		},
	},
}

// #endregion parameter-definition

// #region label-definition
var labelDefinition = []labelDef{
	{LabelNameGoFalse, LabelGoFalse},
	{LabelNameGoTrue, LabelGoTrue},
	{LabelNameCutinFalse, LabelCutinFalse},
	{LabelNameCutinTrue, LabelCutinTrue},
}

// #endregion label-definition
