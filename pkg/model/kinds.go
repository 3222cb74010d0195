package model

import "github.com/cascadia-geo/fuzzgraph/pkg/naming"

// KindInfo binds a node kind to its engine command and naming rule.
type KindInfo struct {
	Kind       string
	Command    string
	Family     naming.Family
	MultiInput bool
}

// kinds is the closed set of node kinds. Dispatch happens by matching
// on the kind tag, never by dynamic attribute lookup.
var kinds = map[string]KindInfo{
	"cvt_to_fuzzy":           {Kind: "cvt_to_fuzzy", Command: "CvtToFuzzy", Family: naming.FamilyThreshold},
	"cvt_to_fuzzy_curve":     {Kind: "cvt_to_fuzzy_curve", Command: "CvtToFuzzyCurve", Family: naming.FamilyFuzzy},
	"cvt_to_fuzzy_cat":       {Kind: "cvt_to_fuzzy_cat", Command: "CvtToFuzzyCat", Family: naming.FamilyFuzzy},
	"cvt_to_fuzzy_zscore":    {Kind: "cvt_to_fuzzy_zscore", Command: "CvtToFuzzyCurveZScore", Family: naming.FamilyFuzzy},
	"cvt_to_fuzzy_meantomid": {Kind: "cvt_to_fuzzy_meantomid", Command: "CvtToFuzzyMeanToMid", Family: naming.FamilyFuzzy},
	"cvt_to_binary":          {Kind: "cvt_to_binary", Command: "CvtToBinary", Family: naming.FamilyBinary},
	"cvt_from_fuzzy":         {Kind: "cvt_from_fuzzy", Command: "CvtFromFuzzy", Family: naming.FamilyDefuzz},
	"fuzzy_union":            {Kind: "fuzzy_union", Command: "FuzzyUnion", Family: naming.FamilyNone, MultiInput: true},
	"fuzzy_weighted_union":   {Kind: "fuzzy_weighted_union", Command: "FuzzyWeightedUnion", Family: naming.FamilyNone, MultiInput: true},
	"fuzzy_selected_union":   {Kind: "fuzzy_selected_union", Command: "FuzzySelectedUnion", Family: naming.FamilyNone, MultiInput: true},
	"fuzzy_and":              {Kind: "fuzzy_and", Command: "FuzzyAnd", Family: naming.FamilyNone, MultiInput: true},
	"fuzzy_or":               {Kind: "fuzzy_or", Command: "FuzzyOr", Family: naming.FamilyNone, MultiInput: true},
	"fuzzy_xor":              {Kind: "fuzzy_xor", Command: "FuzzyXOr", Family: naming.FamilyNone, MultiInput: true},
	"fuzzy_not":              {Kind: "fuzzy_not", Command: "FuzzyNot", Family: naming.FamilyNone},
	"weighted_mean":          {Kind: "weighted_mean", Command: "WeightedMean", Family: naming.FamilyNone, MultiInput: true},
	"sum":                    {Kind: "sum", Command: "Sum", Family: naming.FamilyNone, MultiInput: true},
	"multiply":               {Kind: "multiply", Command: "Multiply", Family: naming.FamilyNone, MultiInput: true},
	"a_divided_by_b":         {Kind: "a_divided_by_b", Command: "ADividedByB", Family: naming.FamilyNone, MultiInput: true},
	"normalize":              {Kind: "normalize", Command: "Normalize", Family: naming.FamilyNone},
}

// Lookup returns the kind binding for tag.
func Lookup(kind string) (KindInfo, bool) {
	k, ok := kinds[kind]
	return k, ok
}

// PrimaryInput returns the node's primary input field: Input for
// single-input kinds, the first of Inputs otherwise.
func (n *Node) PrimaryInput() string {
	if n.Input != "" {
		return n.Input
	}
	if len(n.Inputs) > 0 {
		return n.Inputs[0]
	}
	return ""
}

// DefaultOutputName computes the node's output field name: the manual
// Result override when present, otherwise the naming rule of the
// node's family applied to a fresh derivation state.
func DefaultOutputName(n Node) string {
	if n.Result != "" {
		return n.Result
	}
	info, ok := Lookup(n.Kind)
	if !ok {
		return ""
	}
	falseThr, trueThr := 0.0, 1.0
	if t := n.Thresholds; t != nil {
		if t.Policy == "custom" {
			falseThr, trueThr = t.False, t.True
		} else if t.Orientation == "false>true" {
			falseThr, trueThr = 1.0, 0.0
		}
	}
	var st naming.State
	return st.Derive(info.Family, n.PrimaryInput(), falseThr, trueThr).Name
}

// AllInputs returns every field the node consumes.
func (n *Node) AllInputs() []string {
	if len(n.Inputs) > 0 {
		return n.Inputs
	}
	if n.Input != "" {
		return []string{n.Input}
	}
	return nil
}
