// Package compiler turns configured model nodes into engine
// instructions, one appended program line per node invocation.
//
// Nodes compile in document order, which the authoring canvas
// guarantees is a topological order of the DAG. The compiler does not
// re-derive that order; it only checks that every referenced name is
// already referencable.
package compiler

import (
	"fmt"

	"github.com/cascadia-geo/fuzzgraph/pkg/dataset"
	"github.com/cascadia-geo/fuzzgraph/pkg/engine"
	"github.com/cascadia-geo/fuzzgraph/pkg/metadata"
	"github.com/cascadia-geo/fuzzgraph/pkg/model"
	"github.com/cascadia-geo/fuzzgraph/pkg/naming"
	"github.com/cascadia-geo/fuzzgraph/pkg/program"
	"github.com/cascadia-geo/fuzzgraph/pkg/stats"
)

// Compiler accumulates one model's instruction program. Per-node
// naming state lives for the compilation pass, keyed by node id, so
// repeated recompilation of an unchanged node never clobbers a manual
// rename.
type Compiler struct {
	model   *model.Model
	src     *dataset.Memory
	builder *program.Builder
	msg     dataset.Messenger

	states  map[string]*naming.State
	known   map[string]bool // referencable names: read columns + node outputs
	read    map[string]bool // columns already covered by a read instruction
	outputs []string
}

// New creates a compiler for one model against one dataset handle.
func New(m *model.Model, src *dataset.Memory, builder *program.Builder, msg dataset.Messenger) *Compiler {
	if msg == nil {
		msg = dataset.ConsoleMessenger{}
	}
	return &Compiler{
		model:   m,
		src:     src,
		builder: builder,
		msg:     msg,
		states:  make(map[string]*naming.State),
		known:   make(map[string]bool),
		read:    make(map[string]bool),
	}
}

// Outputs returns the output field name of every compiled node, in
// program order. The orchestrator lists these in the bootstrap write
// instruction.
func (c *Compiler) Outputs() []string {
	out := make([]string, len(c.outputs))
	copy(out, c.outputs)
	return out
}

// Compile writes the command file header and compiles every node.
// A node-level failure aborts the pass: the failed node's output never
// becomes referencable downstream.
func (c *Compiler) Compile() error {
	if err := c.builder.WriteHeader(c.model.Meta.Name); err != nil {
		return err
	}
	for _, n := range c.model.Nodes {
		if err := c.CompileNode(n); err != nil {
			return fmt.Errorf("node %q: %w", n.ID, err)
		}
	}
	return nil
}

// CompileNode appends the instructions for one node: read instructions
// for any dataset columns it touches first, then the node's own
// command line.
func (c *Compiler) CompileNode(n model.Node) error {
	info, ok := model.Lookup(n.Kind)
	if !ok {
		return fmt.Errorf("unknown node kind %q", n.Kind)
	}

	schema, err := engine.Resolve(info.Command)
	if err != nil {
		return err
	}

	for _, in := range n.AllInputs() {
		if err := c.ensureReadable(in); err != nil {
			return err
		}
	}
	c.checkInputType(n, schema)

	name, err := c.resolveOutputName(n, info)
	if err != nil {
		return err
	}

	args, err := c.buildArgs(n)
	if err != nil {
		return err
	}
	if err := c.builder.Append(info.Command, name, args); err != nil {
		return err
	}

	c.known[name] = true
	c.outputs = append(c.outputs, name)
	return nil
}

// ensureReadable makes sure field is referencable: either an upstream
// output, or a dataset column that gets a read instruction on first
// use. The read records the logical dataset path; the orchestrator
// substitutes the snapshot path at run time.
func (c *Compiler) ensureReadable(field string) error {
	if c.known[field] || c.read[field] {
		return nil
	}
	col, ok := c.src.Column(field)
	if !ok {
		return fmt.Errorf("input %q is neither a dataset column nor an upstream result", field)
	}
	returnType := "Float"
	if col.Type == dataset.Integer {
		returnType = "Integer"
	}
	args := program.NewArgs().
		Set("InFileName", c.src.Path()).
		Set("InFieldName", field).
		Set("ReturnType", returnType)
	if err := c.builder.Append("EEMSRead", field, args); err != nil {
		return err
	}
	c.read[field] = true
	c.known[field] = true
	return nil
}

// checkInputType surfaces a schema mismatch warning when the engine
// declares a stricter input type than the dataset column carries.
// Tolerant-coercion policy: never fatal.
func (c *Compiler) checkInputType(n model.Node, schema *engine.CommandSchema) {
	if schema.InputType != "integer" {
		return
	}
	col, ok := c.src.Column(n.PrimaryInput())
	if !ok {
		return
	}
	if col.Type != dataset.Integer {
		mismatch := &dataset.SchemaMismatchError{Field: col.Name, Declared: col.Type, Expected: "integer"}
		c.msg.Warn(mismatch.Error())
	}
}

// resolveOutputName runs the per-node naming state machine, honoring a
// manual rename when the model configures one.
func (c *Compiler) resolveOutputName(n model.Node, info model.KindInfo) (string, error) {
	st, ok := c.states[n.ID]
	if !ok {
		st = &naming.State{}
		c.states[n.ID] = st
	}

	falseThr, trueThr, err := c.thresholds(n)
	if err != nil {
		return "", err
	}

	res := st.Derive(info.Family, n.PrimaryInput(), falseThr, trueThr)
	if n.Result != "" {
		// Manual rename: the external output identifier follows the
		// edited value; its label is re-derived from it.
		return naming.Resync(n.Result).Name, nil
	}
	if res.Name == "" && st.LastDerived != "" {
		// Recompute suppressed; keep the previously derived default.
		return st.LastDerived, nil
	}
	if res.Name == "" {
		return "", fmt.Errorf("kind %s has no automatic naming rule; result is required", n.Kind)
	}
	return res.Name, nil
}

// thresholds resolves the node's false/true threshold pair, applying
// the selected statistics policy when the node carries one.
func (c *Compiler) thresholds(n model.Node) (falseThr, trueThr float64, err error) {
	t := n.Thresholds
	if t == nil {
		return 0, 0, nil
	}
	policy := stats.Policy{Kind: stats.PolicyKind(t.Policy), Deviations: t.Deviations}
	orientation := stats.Orientation(t.Orientation)
	if orientation == "" {
		orientation = stats.TrueAboveFalse
	}

	if policy.Kind == stats.PolicyCustom {
		if t.FalseFormula == "" && t.TrueFormula == "" {
			return t.False, t.True, nil
		}
		values, err := c.columnValues(n.PrimaryInput())
		if err != nil {
			return 0, 0, err
		}
		resolved, err := stats.ResolveFormula(t.FalseFormula, t.TrueFormula, stats.Thresholds{False: t.False, True: t.True}, values)
		if err != nil {
			return 0, 0, err
		}
		return resolved.False, resolved.True, nil
	}

	values, err := c.columnValues(n.PrimaryInput())
	if err != nil {
		return 0, 0, err
	}
	resolved, err := stats.Resolve(policy, orientation, values)
	if err != nil {
		return 0, 0, err
	}
	return resolved.False, resolved.True, nil
}

// columnValues reads the numeric values of a dataset column, excluding
// missing entries. A statistics policy cannot run over an upstream
// result; those values only exist after the engine runs.
func (c *Compiler) columnValues(field string) ([]float64, error) {
	if _, ok := c.src.Column(field); !ok {
		return nil, fmt.Errorf("statistics policy requires dataset column input, but %q is an upstream result", field)
	}
	values, mismatch := dataset.NumericValues(c.src, field)
	if mismatch != nil {
		c.msg.Warn(mismatch.Error())
	}
	if len(values) == 0 {
		return nil, &stats.EmptyInputError{Field: field}
	}
	return values, nil
}

// buildArgs assembles the command's argument record from the node's
// typed configuration block. Each kind carries exactly the fields it
// needs; dispatch is by kind tag.
func (c *Compiler) buildArgs(n model.Node) (*program.Args, error) {
	args := program.NewArgs()

	switch n.Kind {
	case "cvt_to_fuzzy", "cvt_from_fuzzy":
		falseThr, trueThr, err := c.thresholds(n)
		if err != nil {
			return nil, err
		}
		args.Set("InFieldName", n.Input).
			Set("FalseThreshold", falseThr).
			Set("TrueThreshold", trueThr)
	case "cvt_to_fuzzy_curve":
		args.Set("InFieldName", n.Input).
			Set("RawValues", n.Curve.RawValues).
			Set("FuzzyValues", n.Curve.FuzzyValues)
	case "cvt_to_fuzzy_cat":
		args.Set("InFieldName", n.Input).
			Set("RawValues", n.Categories.RawValues).
			Set("FuzzyValues", n.Categories.FuzzyValues).
			Set("DefaultFuzzyValue", n.Categories.DefaultFuzzyValue)
	case "cvt_to_fuzzy_zscore":
		args.Set("InFieldName", n.Input).
			Set("ZScoreValues", n.ZScore.ZScoreValues).
			Set("FuzzyValues", n.ZScore.FuzzyValues)
	case "cvt_to_fuzzy_meantomid":
		args.Set("InFieldName", n.Input).
			Set("IgnoreZeros", n.MeanToMid.IgnoreZeros).
			Set("FuzzyValues", n.MeanToMid.FuzzyValues)
	case "cvt_to_binary":
		args.Set("InFieldName", n.Input).
			Set("Threshold", n.Binary.Threshold).
			Set("Direction", n.Binary.Direction)
	case "fuzzy_not", "normalize":
		args.Set("InFieldName", n.Input)
	case "a_divided_by_b":
		args.Set("A", n.Inputs[0]).Set("B", n.Inputs[1])
	case "fuzzy_weighted_union", "weighted_mean":
		args.Set("InFieldNames", n.Inputs).Set("Weights", n.Combine.Weights)
	case "fuzzy_selected_union":
		args.Set("InFieldNames", n.Inputs).
			Set("TruestOrFalsest", n.Combine.TruestOrFalsest).
			Set("NumberToConsider", n.Combine.NumberToConsider)
	default:
		args.Set("InFieldNames", n.Inputs)
	}

	display := n.DisplayName
	if display == "" {
		display = n.Title
	}
	rec, err := metadata.Encode(display, n.Description, n.ColorMap, n.ReverseColorMap)
	if err != nil {
		return nil, err
	}
	if !rec.IsZero() {
		args.Set("Metadata", rec)
	}
	return args, nil
}
