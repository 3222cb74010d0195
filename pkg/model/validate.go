package model

import (
	"encoding/json"
	"fmt"

	"github.com/cascadia-geo/fuzzgraph/pkg/stats"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError is a single validation finding with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// ValidateFile runs the full 3-phase validation pipeline on a model
// file.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
func ValidateFile(path string) (*Model, []*ValidationError) {
	m, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		}}
	}
	var all []*ValidationError
	all = append(all, validateSemantic(m)...)
	all = append(all, ValidateDomain(m)...)
	if len(all) > 0 {
		return m, all
	}
	return m, nil
}

// validateSemantic validates the model against the generated JSON
// Schema.
func validateSemantic(m *Model) []*ValidationError {
	fail := func(msg string) []*ValidationError {
		return []*ValidationError{{Phase: "semantic", Message: msg, Severity: "error"}}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fail(fmt.Sprintf("marshal for schema validation: %v", err))
	}
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return fail(fmt.Sprintf("generate schema: %v", err))
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fail(fmt.Sprintf("unmarshal schema: %v", err))
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource("model-v1.json", schemaDoc); err != nil {
		return fail(fmt.Sprintf("add schema resource: %v", err))
	}
	sch, err := c.Compile("model-v1.json")
	if err != nil {
		return fail(fmt.Sprintf("compile schema: %v", err))
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fail(fmt.Sprintf("unmarshal document: %v", err))
	}
	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     joinInstancePath(cause.InstanceLocation),
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = fail(err.Error())
		}
		return errs
	}
	return nil
}

func joinInstancePath(loc []string) string {
	path := ""
	for _, p := range loc {
		if path != "" {
			path += "/"
		}
		path += p
	}
	return path
}

func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain applies rules the JSON Schema cannot express:
// reference resolution across the node graph, config-block/kind
// agreement, and arity checks.
func ValidateDomain(m *Model) []*ValidationError {
	var errs []*ValidationError
	add := func(path, msg string) {
		errs = append(errs, &ValidationError{Phase: "domain", Path: path, Message: msg, Severity: "error"})
	}
	warn := func(path, msg string) {
		errs = append(errs, &ValidationError{Phase: "domain", Path: path, Message: msg, Severity: "warning"})
	}

	// Referencable names accumulate in document order: dataset columns
	// first, then each node's output. This is the DAG check: a node
	// may only reference what precedes it.
	known := make(map[string]bool)
	for _, c := range m.Dataset.Columns {
		known[c.Name] = true
	}
	columnsDeclared := len(m.Dataset.Columns) > 0

	seenIDs := make(map[string]bool)
	outputs := make(map[string]bool)

	for i, n := range m.Nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		if seenIDs[n.ID] {
			add(path+".id", fmt.Sprintf("duplicate node id %q", n.ID))
		}
		seenIDs[n.ID] = true

		info, ok := Lookup(n.Kind)
		if !ok {
			add(path+".kind", fmt.Sprintf("unknown node kind %q", n.Kind))
			continue
		}

		inputs := n.AllInputs()
		if len(inputs) == 0 {
			add(path, "node has no input field")
		}
		if info.MultiInput && len(n.Inputs) == 0 {
			add(path+".inputs", fmt.Sprintf("kind %s takes an inputs list", n.Kind))
		}
		if !info.MultiInput && len(n.Inputs) > 1 {
			add(path+".inputs", fmt.Sprintf("kind %s takes a single input", n.Kind))
		}
		if columnsDeclared {
			for _, in := range inputs {
				if !known[in] {
					add(path, fmt.Sprintf("input %q is neither a dataset column nor an upstream result", in))
				}
			}
		}

		errs = append(errs, validateNodeConfig(path, n, info)...)

		out := DefaultOutputName(n)
		if out == "" {
			add(path+".result", fmt.Sprintf("kind %s has no automatic naming rule; result is required", n.Kind))
		} else {
			if outputs[out] {
				warn(path+".result", fmt.Sprintf("output field %q is produced by more than one node", out))
			}
			outputs[out] = true
			known[out] = true
		}
	}
	return errs
}

// validateNodeConfig checks that exactly the kind's config block is
// present and internally consistent.
func validateNodeConfig(path string, n Node, info KindInfo) []*ValidationError {
	var errs []*ValidationError
	add := func(p, msg string) {
		errs = append(errs, &ValidationError{Phase: "domain", Path: p, Message: msg, Severity: "error"})
	}
	warn := func(p, msg string) {
		errs = append(errs, &ValidationError{Phase: "domain", Path: p, Message: msg, Severity: "warning"})
	}

	switch n.Kind {
	case "cvt_to_fuzzy", "cvt_from_fuzzy":
		t := n.Thresholds
		if t == nil {
			add(path, fmt.Sprintf("kind %s requires a thresholds block", n.Kind))
			break
		}
		p := stats.Policy{Kind: stats.PolicyKind(t.Policy), Deviations: t.Deviations}
		if p.Kind == stats.PolicyStdDev && !stats.ValidDeviations(t.Deviations) {
			add(path+".thresholds.deviations", fmt.Sprintf("deviations %v not in 0.5 .. 4.0 step 0.5", t.Deviations))
		}
		if p.Locks() && (t.False != 0 || t.True != 0) {
			warn(path+".thresholds", "thresholds are locked by the selected policy; configured values are ignored")
		}
		if p.Kind == stats.PolicyCustom && t.False == t.True && t.FalseFormula == "" && t.TrueFormula == "" {
			add(path+".thresholds", "custom policy requires distinct false/true thresholds or formulas")
		}
	case "cvt_to_fuzzy_curve":
		if n.Curve == nil {
			add(path, "kind cvt_to_fuzzy_curve requires a curve block")
		} else if len(n.Curve.RawValues) != len(n.Curve.FuzzyValues) {
			add(path+".curve", "rawValues and fuzzyValues must pair up")
		}
	case "cvt_to_fuzzy_cat":
		if n.Categories == nil {
			add(path, "kind cvt_to_fuzzy_cat requires a categories block")
		} else if len(n.Categories.RawValues) != len(n.Categories.FuzzyValues) {
			add(path+".categories", "rawValues and fuzzyValues must pair up")
		}
	case "cvt_to_fuzzy_zscore":
		if n.ZScore == nil {
			add(path, "kind cvt_to_fuzzy_zscore requires a zscore block")
		} else if len(n.ZScore.ZScoreValues) != len(n.ZScore.FuzzyValues) {
			add(path+".zscore", "zscoreValues and fuzzyValues must pair up")
		}
	case "cvt_to_fuzzy_meantomid":
		if n.MeanToMid == nil {
			add(path, "kind cvt_to_fuzzy_meantomid requires a meanToMid block")
		} else if len(n.MeanToMid.FuzzyValues) != 5 {
			add(path+".meanToMid.fuzzyValues", "mean-to-mid takes exactly 5 fuzzy values")
		}
	case "cvt_to_binary":
		if n.Binary == nil {
			add(path, "kind cvt_to_binary requires a binary block")
		}
	case "fuzzy_weighted_union", "weighted_mean":
		if n.Combine == nil || len(n.Combine.Weights) == 0 {
			add(path, fmt.Sprintf("kind %s requires combine.weights", n.Kind))
		} else if len(n.Combine.Weights) != len(n.Inputs) {
			add(path+".combine.weights", fmt.Sprintf("%d weights for %d inputs", len(n.Combine.Weights), len(n.Inputs)))
		}
	case "fuzzy_selected_union":
		if n.Combine == nil || n.Combine.TruestOrFalsest == "" || n.Combine.NumberToConsider == 0 {
			add(path, "kind fuzzy_selected_union requires combine.truestOrFalsest and combine.numberToConsider")
		} else if n.Combine.NumberToConsider > len(n.Inputs) {
			add(path+".combine.numberToConsider", "cannot consider more inputs than are connected")
		}
	case "a_divided_by_b":
		if len(n.Inputs) != 2 {
			add(path+".inputs", "kind a_divided_by_b takes exactly two inputs")
		}
	}
	return errs
}
