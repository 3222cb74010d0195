// Package engine models the consumed capability surface of the
// external fuzzy-logic execution engine: the declared argument schema
// of every command, a parser for the engine's one-instruction-per-line
// grammar, and the run entry point.
//
// The fuzzy math itself is a black box. This package only knows what
// the engine accepts, not what it computes.
package engine

import "fmt"

// ArgType is the declared type of one command argument. The parser
// uses it to recover typed values losslessly from program text.
type ArgType int

const (
	TypeString ArgType = iota
	TypeField          // a column or upstream result name
	TypePath           // a dataset file reference
	TypeNumber
	TypeInt
	TypeFlag // two-valued "True"/"False" string, never a bool
	TypeFieldList
	TypeNumberList
	TypeMetadata
)

// ArgSpec declares one argument of a command.
type ArgSpec struct {
	Name     string
	Type     ArgType
	Required bool
}

// CommandSchema is the engine's declared schema for one command.
// Argument order is an explicit property of the schema, not an
// incidental property of any map.
type CommandSchema struct {
	Name string
	Args []ArgSpec
	// HasOutput is false for sink commands (writes) that produce no
	// named result.
	HasOutput bool
	// InputType, when set, names the column type the engine expects on
	// the primary input ("float", "integer", "fuzzy"). Used to surface
	// schema mismatch warnings at compile time.
	InputType string
}

// UnknownCommandError reports a command name the engine does not
// recognize. Fatal to the compilation of the node that produced it.
type UnknownCommandError struct {
	Command string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("engine does not recognize command %q", e.Command)
}

func metaArg() ArgSpec {
	return ArgSpec{Name: "Metadata", Type: TypeMetadata}
}

// catalog lists every command the engine declares, keyed by name.
// Argument slices are the authoritative serialization order.
var catalog = map[string]*CommandSchema{
	"EEMSRead": {
		Name:      "EEMSRead",
		HasOutput: true,
		Args: []ArgSpec{
			{Name: "InFileName", Type: TypePath, Required: true},
			{Name: "InFieldName", Type: TypeField, Required: true},
			{Name: "ReturnType", Type: TypeString},
			{Name: "NewFieldName", Type: TypeField},
			metaArg(),
		},
	},
	"EEMSWrite": {
		Name: "EEMSWrite",
		Args: []ArgSpec{
			{Name: "OutFileName", Type: TypePath, Required: true},
			{Name: "OutFieldNames", Type: TypeFieldList, Required: true},
		},
	},
	"CvtToFuzzy": {
		Name:      "CvtToFuzzy",
		HasOutput: true,
		InputType: "float",
		Args: []ArgSpec{
			{Name: "InFieldName", Type: TypeField, Required: true},
			{Name: "FalseThreshold", Type: TypeNumber, Required: true},
			{Name: "TrueThreshold", Type: TypeNumber, Required: true},
			metaArg(),
		},
	},
	"CvtToFuzzyCurve": {
		Name:      "CvtToFuzzyCurve",
		HasOutput: true,
		InputType: "float",
		Args: []ArgSpec{
			{Name: "InFieldName", Type: TypeField, Required: true},
			{Name: "RawValues", Type: TypeNumberList, Required: true},
			{Name: "FuzzyValues", Type: TypeNumberList, Required: true},
			metaArg(),
		},
	},
	"CvtToFuzzyCat": {
		Name:      "CvtToFuzzyCat",
		HasOutput: true,
		InputType: "integer",
		Args: []ArgSpec{
			{Name: "InFieldName", Type: TypeField, Required: true},
			{Name: "RawValues", Type: TypeNumberList, Required: true},
			{Name: "FuzzyValues", Type: TypeNumberList, Required: true},
			{Name: "DefaultFuzzyValue", Type: TypeNumber, Required: true},
			metaArg(),
		},
	},
	"CvtToFuzzyCurveZScore": {
		Name:      "CvtToFuzzyCurveZScore",
		HasOutput: true,
		InputType: "float",
		Args: []ArgSpec{
			{Name: "InFieldName", Type: TypeField, Required: true},
			{Name: "ZScoreValues", Type: TypeNumberList, Required: true},
			{Name: "FuzzyValues", Type: TypeNumberList, Required: true},
			metaArg(),
		},
	},
	"CvtToFuzzyMeanToMid": {
		Name:      "CvtToFuzzyMeanToMid",
		HasOutput: true,
		InputType: "float",
		Args: []ArgSpec{
			{Name: "InFieldName", Type: TypeField, Required: true},
			{Name: "IgnoreZeros", Type: TypeFlag, Required: true},
			{Name: "FuzzyValues", Type: TypeNumberList, Required: true},
			metaArg(),
		},
	},
	"CvtToBinary": {
		Name:      "CvtToBinary",
		HasOutput: true,
		InputType: "float",
		Args: []ArgSpec{
			{Name: "InFieldName", Type: TypeField, Required: true},
			{Name: "Threshold", Type: TypeNumber, Required: true},
			{Name: "Direction", Type: TypeString, Required: true},
			metaArg(),
		},
	},
	"CvtFromFuzzy": {
		Name:      "CvtFromFuzzy",
		HasOutput: true,
		InputType: "fuzzy",
		Args: []ArgSpec{
			{Name: "InFieldName", Type: TypeField, Required: true},
			{Name: "FalseThreshold", Type: TypeNumber, Required: true},
			{Name: "TrueThreshold", Type: TypeNumber, Required: true},
			metaArg(),
		},
	},
	"FuzzyUnion": {
		Name:      "FuzzyUnion",
		HasOutput: true,
		InputType: "fuzzy",
		Args: []ArgSpec{
			{Name: "InFieldNames", Type: TypeFieldList, Required: true},
			metaArg(),
		},
	},
	"FuzzyWeightedUnion": {
		Name:      "FuzzyWeightedUnion",
		HasOutput: true,
		InputType: "fuzzy",
		Args: []ArgSpec{
			{Name: "InFieldNames", Type: TypeFieldList, Required: true},
			{Name: "Weights", Type: TypeNumberList, Required: true},
			metaArg(),
		},
	},
	"FuzzySelectedUnion": {
		Name:      "FuzzySelectedUnion",
		HasOutput: true,
		InputType: "fuzzy",
		Args: []ArgSpec{
			{Name: "InFieldNames", Type: TypeFieldList, Required: true},
			{Name: "TruestOrFalsest", Type: TypeString, Required: true},
			{Name: "NumberToConsider", Type: TypeInt, Required: true},
			metaArg(),
		},
	},
	"FuzzyAnd": {
		Name:      "FuzzyAnd",
		HasOutput: true,
		InputType: "fuzzy",
		Args: []ArgSpec{
			{Name: "InFieldNames", Type: TypeFieldList, Required: true},
			metaArg(),
		},
	},
	"FuzzyOr": {
		Name:      "FuzzyOr",
		HasOutput: true,
		InputType: "fuzzy",
		Args: []ArgSpec{
			{Name: "InFieldNames", Type: TypeFieldList, Required: true},
			metaArg(),
		},
	},
	"FuzzyXOr": {
		Name:      "FuzzyXOr",
		HasOutput: true,
		InputType: "fuzzy",
		Args: []ArgSpec{
			{Name: "InFieldNames", Type: TypeFieldList, Required: true},
			metaArg(),
		},
	},
	"FuzzyNot": {
		Name:      "FuzzyNot",
		HasOutput: true,
		InputType: "fuzzy",
		Args: []ArgSpec{
			{Name: "InFieldName", Type: TypeField, Required: true},
			metaArg(),
		},
	},
	"WeightedMean": {
		Name:      "WeightedMean",
		HasOutput: true,
		InputType: "float",
		Args: []ArgSpec{
			{Name: "InFieldNames", Type: TypeFieldList, Required: true},
			{Name: "Weights", Type: TypeNumberList, Required: true},
			metaArg(),
		},
	},
	"Sum": {
		Name:      "Sum",
		HasOutput: true,
		InputType: "float",
		Args: []ArgSpec{
			{Name: "InFieldNames", Type: TypeFieldList, Required: true},
			metaArg(),
		},
	},
	"Multiply": {
		Name:      "Multiply",
		HasOutput: true,
		InputType: "float",
		Args: []ArgSpec{
			{Name: "InFieldNames", Type: TypeFieldList, Required: true},
			metaArg(),
		},
	},
	"ADividedByB": {
		Name:      "ADividedByB",
		HasOutput: true,
		InputType: "float",
		Args: []ArgSpec{
			{Name: "A", Type: TypeField, Required: true},
			{Name: "B", Type: TypeField, Required: true},
			metaArg(),
		},
	},
	"Normalize": {
		Name:      "Normalize",
		HasOutput: true,
		InputType: "float",
		Args: []ArgSpec{
			{Name: "InFieldName", Type: TypeField, Required: true},
			{Name: "StartVal", Type: TypeNumber},
			{Name: "EndVal", Type: TypeNumber},
			metaArg(),
		},
	},
}

// Resolve returns the declared schema for a command name.
func Resolve(name string) (*CommandSchema, error) {
	s, ok := catalog[name]
	if !ok {
		return nil, &UnknownCommandError{Command: name}
	}
	return s, nil
}

// Commands returns the names of every declared command.
func Commands() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	return names
}

// Schemas is the default schema resolver handed to the instruction
// builder. Each resolution is a pure lookup against the declared
// catalog.
type Schemas struct{}

// ArgOrder returns the declared argument order for a command, or an
// UnknownCommandError when the engine does not recognize the name.
func (Schemas) ArgOrder(command string) ([]string, error) {
	s, err := Resolve(command)
	if err != nil {
		return nil, err
	}
	order := make([]string, len(s.Args))
	for i, a := range s.Args {
		order[i] = a.Name
	}
	return order, nil
}
