// Package model defines the Go struct types for the fuzzgraph model
// YAML schema and provides strict YAML parsing.
//
// A model document is the serialized form of an authored node graph:
// an input dataset reference plus transformation nodes listed in
// topological order. The DAG is realized through name references:
// each node names the columns or upstream results it consumes.
package model

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Model is the top-level document defining a fuzzy-logic evaluation
// model.
type Model struct {
	APIVersion string     `yaml:"apiVersion" json:"apiVersion" jsonschema:"required,enum=fuzzgraph/v1"`
	Meta       Meta       `yaml:"meta"       json:"meta"       jsonschema:"required"`
	Dataset    DatasetRef `yaml:"dataset"    json:"dataset"    jsonschema:"required"`
	Nodes      []Node     `yaml:"nodes"      json:"nodes"      jsonschema:"required,minItems=1"`
}

// Meta contains model metadata.
type Meta struct {
	Name        string `yaml:"name"                  json:"name" jsonschema:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// DatasetRef names the input spatial dataset. Path is the logical
// reference recorded in compiled instructions; the orchestrator
// rewrites it to the tabular snapshot at run time.
type DatasetRef struct {
	Path    string      `yaml:"path"    json:"path"    jsonschema:"required"`
	IDField string      `yaml:"idField" json:"idField" jsonschema:"required"`
	Columns []ColumnDef `yaml:"columns,omitempty" json:"columns,omitempty"`
}

// ColumnDef declares a column's type when the dataset handle cannot be
// probed directly.
type ColumnDef struct {
	Name string `yaml:"name" json:"name" jsonschema:"required"`
	Type string `yaml:"type" json:"type" jsonschema:"required,enum=Integer,enum=Float,enum=Text"`
}

// Node is one configured transformation. Kind selects the command
// family; exactly the matching config block applies. The set of kinds
// is closed, one tag per engine command family.
type Node struct {
	ID     string   `yaml:"id"               json:"id"   jsonschema:"required"`
	Kind   string   `yaml:"kind"             json:"kind" jsonschema:"required,enum=cvt_to_fuzzy,enum=cvt_to_fuzzy_curve,enum=cvt_to_fuzzy_cat,enum=cvt_to_fuzzy_zscore,enum=cvt_to_fuzzy_meantomid,enum=cvt_to_binary,enum=cvt_from_fuzzy,enum=fuzzy_union,enum=fuzzy_weighted_union,enum=fuzzy_selected_union,enum=fuzzy_and,enum=fuzzy_or,enum=fuzzy_xor,enum=fuzzy_not,enum=weighted_mean,enum=sum,enum=multiply,enum=a_divided_by_b,enum=normalize"`
	Title  string   `yaml:"title,omitempty"  json:"title,omitempty"`
	Input  string   `yaml:"input,omitempty"  json:"input,omitempty"`
	Inputs []string `yaml:"inputs,omitempty" json:"inputs,omitempty"`

	// Result overrides the derived default output field name (a manual
	// rename in canvas terms).
	Result string `yaml:"result,omitempty" json:"result,omitempty"`

	DisplayName     string `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	Description     string `yaml:"description,omitempty" json:"description,omitempty"`
	ColorMap        string `yaml:"colorMap,omitempty"    json:"colorMap,omitempty"`
	ReverseColorMap bool   `yaml:"reverseColorMap,omitempty" json:"reverseColorMap,omitempty"`

	Thresholds *ThresholdConfig `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`
	Curve      *CurveConfig     `yaml:"curve,omitempty"      json:"curve,omitempty"`
	Categories *CategoryConfig  `yaml:"categories,omitempty" json:"categories,omitempty"`
	ZScore     *ZScoreConfig    `yaml:"zscore,omitempty"     json:"zscore,omitempty"`
	MeanToMid  *MeanToMidConfig `yaml:"meanToMid,omitempty"  json:"meanToMid,omitempty"`
	Binary     *BinaryConfig    `yaml:"binary,omitempty"     json:"binary,omitempty"`
	Combine    *CombineConfig   `yaml:"combine,omitempty"    json:"combine,omitempty"`
}

// ThresholdConfig configures two-threshold conversion nodes. Selecting
// a non-custom policy computes and locks the two values; any
// explicitly configured values are then ignored with a warning.
type ThresholdConfig struct {
	Policy      string  `yaml:"policy"                json:"policy" jsonschema:"required,enum=custom,enum=minmax,enum=stddev"`
	Deviations  float64 `yaml:"deviations,omitempty"  json:"deviations,omitempty"`
	Orientation string  `yaml:"orientation,omitempty" json:"orientation,omitempty" jsonschema:"enum=true>false,enum=false>true"`
	False       float64 `yaml:"false,omitempty"       json:"false,omitempty"`
	True        float64 `yaml:"true,omitempty"        json:"true,omitempty"`
	// Formulas over {min, max, mean, std} for the custom policy.
	FalseFormula string `yaml:"falseFormula,omitempty" json:"falseFormula,omitempty"`
	TrueFormula  string `yaml:"trueFormula,omitempty"  json:"trueFormula,omitempty"`
}

// CurveConfig holds the raw/fuzzy value pair sequence of a curve
// conversion. The pairs travel inside the node's own configuration,
// never through shared outer state.
type CurveConfig struct {
	RawValues   []float64 `yaml:"rawValues"   json:"rawValues"   jsonschema:"required,minItems=2"`
	FuzzyValues []float64 `yaml:"fuzzyValues" json:"fuzzyValues" jsonschema:"required,minItems=2"`
}

// CategoryConfig maps discrete category values to fuzzy values.
type CategoryConfig struct {
	RawValues         []float64 `yaml:"rawValues"         json:"rawValues"   jsonschema:"required,minItems=1"`
	FuzzyValues       []float64 `yaml:"fuzzyValues"       json:"fuzzyValues" jsonschema:"required,minItems=1"`
	DefaultFuzzyValue float64   `yaml:"defaultFuzzyValue" json:"defaultFuzzyValue"`
}

// ZScoreConfig maps z-score breakpoints to fuzzy values.
type ZScoreConfig struct {
	ZScoreValues []float64 `yaml:"zscoreValues" json:"zscoreValues" jsonschema:"required,minItems=2"`
	FuzzyValues  []float64 `yaml:"fuzzyValues"  json:"fuzzyValues"  jsonschema:"required,minItems=2"`
}

// MeanToMidConfig configures the mean-to-mid conversion. IgnoreZeros
// is a two-valued enumerated flag ("True"/"False"); the engine takes
// it as text, so it is never inferred into a richer type.
type MeanToMidConfig struct {
	IgnoreZeros string    `yaml:"ignoreZeros" json:"ignoreZeros" jsonschema:"required,enum=True,enum=False"`
	FuzzyValues []float64 `yaml:"fuzzyValues" json:"fuzzyValues" jsonschema:"required,minItems=5"`
}

// BinaryConfig configures binary conversion.
type BinaryConfig struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Direction string  `yaml:"direction" json:"direction" jsonschema:"required,enum=LowToHigh,enum=HighToLow"`
}

// CombineConfig configures multi-input combinators.
type CombineConfig struct {
	Weights          []float64 `yaml:"weights,omitempty"          json:"weights,omitempty"`
	TruestOrFalsest  string    `yaml:"truestOrFalsest,omitempty"  json:"truestOrFalsest,omitempty" jsonschema:"enum=Truest,enum=Falsest"`
	NumberToConsider int       `yaml:"numberToConsider,omitempty" json:"numberToConsider,omitempty"`
}

// LoadFile reads and parses a model YAML file with strict
// unknown-field rejection. Returns the parsed Model or an error.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a model from an io.Reader with strict unknown-field
// rejection.
func Load(r io.Reader) (*Model, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Model
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &m, nil
}
