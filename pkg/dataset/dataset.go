// Package dataset is the data surface the compiler and orchestrator
// consume from the hosting canvas: column listing and typing, row
// iteration, spatial shell copies, attribute joins, and user-facing
// messages. Geometry is opaque; no spatial math happens here beyond
// the row-copy/join contract.
package dataset

import (
	"fmt"
	"os"
	"strconv"
)

// CanonicalID is the fixed name the row-identifier column carries in
// the tabular snapshot, regardless of the source schema's native
// identifier name.
const CanonicalID = "CSVID"

// Type is a column's declared value type.
type Type string

const (
	Integer Type = "Integer"
	Float   Type = "Float"
	Text    Type = "Text"
)

// Column describes one attribute column.
type Column struct {
	Name string
	Type Type
}

// Numeric reports whether the declared type is numeric.
func (t Type) Numeric() bool { return t == Integer || t == Float }

// Messenger emits user-facing progress and warning messages, the way
// the hosting canvas surfaces them next to the authored model.
type Messenger interface {
	Info(msg string)
	Warn(msg string)
}

// ConsoleMessenger writes messages to stdout and warnings to stderr.
type ConsoleMessenger struct{}

func (ConsoleMessenger) Info(msg string) { fmt.Println(msg) }
func (ConsoleMessenger) Warn(msg string) { fmt.Fprintln(os.Stderr, "warning: "+msg) }

// SchemaMismatchError reports a column whose declared type is
// incompatible with a node's expected numeric type. Never fatal: the
// caller surfaces it as a warning and a best-effort coercion is
// attempted.
type SchemaMismatchError struct {
	Field    string
	Declared Type
	Expected string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("field %q is declared %s but %s values are expected; coercing best-effort", e.Field, e.Declared, e.Expected)
}

// Feature is one row of a spatial dataset: a stable identifier, an
// opaque geometry, and the non-geometry attributes.
type Feature struct {
	ID       int64
	Geometry any
	Attrs    map[string]any
}

// Memory is an in-memory spatial dataset. It stands in for the
// canvas's dataset handle: the compiler records its logical Path in
// instructions, the orchestrator snapshots and joins against it.
type Memory struct {
	path    string
	idField string
	cols    []Column
	feats   []*Feature
}

// NewMemory creates an empty dataset with the given logical path,
// native identifier field name, and attribute columns.
func NewMemory(path, idField string, cols []Column) *Memory {
	return &Memory{path: path, idField: idField, cols: cols}
}

// Path returns the logical dataset reference recorded at authoring time.
func (m *Memory) Path() string { return m.path }

// IDField returns the source schema's native identifier column name.
func (m *Memory) IDField() string { return m.idField }

// Columns lists the non-geometry attribute columns.
func (m *Memory) Columns() []Column {
	out := make([]Column, len(m.cols))
	copy(out, m.cols)
	return out
}

// Column returns the declared column with the given name.
func (m *Memory) Column(name string) (Column, bool) {
	for _, c := range m.cols {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// NumRows returns the row count.
func (m *Memory) NumRows() int { return len(m.feats) }

// Feature returns row i.
func (m *Memory) Feature(i int) *Feature { return m.feats[i] }

// Append adds one row.
func (m *Memory) Append(id int64, geometry any, attrs map[string]any) {
	if attrs == nil {
		attrs = make(map[string]any)
	}
	m.feats = append(m.feats, &Feature{ID: id, Geometry: geometry, Attrs: attrs})
}

// AddColumn declares an additional attribute column.
func (m *Memory) AddColumn(c Column) {
	m.cols = append(m.cols, c)
}

// CopyShell produces the output dataset for a run: every row's stable
// identifier and geometry, with all other attribute columns
// intentionally dropped. Computed results are reattached later by
// join, never copied verbatim, so stale duplicates cannot survive.
func CopyShell(src *Memory, outPath string) *Memory {
	shell := NewMemory(outPath, src.idField, nil)
	for _, f := range src.feats {
		shell.Append(f.ID, f.Geometry, nil)
	}
	return shell
}

// NumericValues extracts a column as floats, skipping missing entries.
// A declared non-numeric type, or any value needing string parsing,
// produces a SchemaMismatchError alongside the coerced values: a
// warning, not a failure. Values that cannot be coerced are skipped.
func NumericValues(src *Memory, field string) ([]float64, *SchemaMismatchError) {
	var mismatch *SchemaMismatchError
	if col, ok := src.Column(field); ok && !col.Type.Numeric() {
		mismatch = &SchemaMismatchError{Field: field, Declared: col.Type, Expected: "numeric"}
	}
	var out []float64
	for _, f := range src.feats {
		v, ok := f.Attrs[field]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			out = append(out, t)
		case int:
			out = append(out, float64(t))
		case int64:
			out = append(out, float64(t))
		case string:
			parsed, err := strconv.ParseFloat(t, 64)
			if err != nil {
				continue
			}
			if mismatch == nil {
				col, _ := src.Column(field)
				mismatch = &SchemaMismatchError{Field: field, Declared: col.Type, Expected: "numeric"}
			}
			out = append(out, parsed)
		}
	}
	return out, mismatch
}
