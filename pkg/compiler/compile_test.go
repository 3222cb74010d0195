package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cascadia-geo/fuzzgraph/pkg/dataset"
	"github.com/cascadia-geo/fuzzgraph/pkg/engine"
	"github.com/cascadia-geo/fuzzgraph/pkg/metadata"
	"github.com/cascadia-geo/fuzzgraph/pkg/model"
	"github.com/cascadia-geo/fuzzgraph/pkg/program"
	"github.com/cascadia-geo/fuzzgraph/pkg/stats"
)

// captureMessenger records warnings for assertions.
type captureMessenger struct {
	infos []string
	warns []string
}

func (m *captureMessenger) Info(msg string) { m.infos = append(m.infos, msg) }
func (m *captureMessenger) Warn(msg string) { m.warns = append(m.warns, msg) }

func testSource() *dataset.Memory {
	src := dataset.NewMemory("parcels.gdb/units", "OBJECTID", []dataset.Column{
		{Name: "X", Type: dataset.Float},
		{Name: "LandUse", Type: dataset.Integer},
		{Name: "Empty", Type: dataset.Float},
	})
	src.Append(1, nil, map[string]any{"X": 10.0, "LandUse": 1.0})
	src.Append(2, nil, map[string]any{"X": 20.0, "LandUse": 2.0})
	src.Append(3, nil, map[string]any{"X": 30.0, "LandUse": 1.0})
	return src
}

func newCompiler(t *testing.T, m *model.Model, src *dataset.Memory, msg dataset.Messenger) (*Compiler, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.mpt")
	return New(m, src, program.NewBuilder(path, engine.Schemas{}), msg), path
}

func TestCompileThresholdModel(t *testing.T) {
	m := &model.Model{
		Meta: model.Meta{Name: "Suitability"},
		Nodes: []model.Node{{
			ID:    "x-fz",
			Kind:  "cvt_to_fuzzy",
			Input: "X",
			Thresholds: &model.ThresholdConfig{
				Policy:      "minmax",
				Orientation: "true>false",
			},
		}},
	}
	c, path := newCompiler(t, m, testSource(), &captureMessenger{})
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	want := "# Suitability\n" +
		"X = EEMSRead(InFileName = parcels.gdb/units, InFieldName = X, ReturnType = Float)\n" +
		"High_X_Fz = CvtToFuzzy(InFieldName = X, FalseThreshold = 10, TrueThreshold = 30)\n"
	if string(data) != want {
		t.Errorf("program:\n%q\nwant:\n%q", data, want)
	}
	outs := c.Outputs()
	if len(outs) != 1 || outs[0] != "High_X_Fz" {
		t.Errorf("Outputs = %v", outs)
	}
}

// A column read is emitted once, on first use, even when several nodes
// consume the same column.
func TestCompileReadOncePerColumn(t *testing.T) {
	m := &model.Model{
		Meta: model.Meta{Name: "M"},
		Nodes: []model.Node{
			{ID: "a", Kind: "cvt_to_fuzzy", Input: "X",
				Thresholds: &model.ThresholdConfig{Policy: "custom", False: 10, True: 30}},
			{ID: "b", Kind: "cvt_to_binary", Input: "X",
				Binary: &model.BinaryConfig{Threshold: 15, Direction: "LowToHigh"}},
		},
	}
	c, path := newCompiler(t, m, testSource(), &captureMessenger{})
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if n := strings.Count(string(data), "EEMSRead"); n != 1 {
		t.Errorf("program has %d read instructions, want 1:\n%s", n, data)
	}
}

func TestCompileUpstreamReferenceNeedsNoRead(t *testing.T) {
	m := &model.Model{
		Meta: model.Meta{Name: "M"},
		Nodes: []model.Node{
			{ID: "a", Kind: "cvt_to_fuzzy", Input: "X",
				Thresholds: &model.ThresholdConfig{Policy: "custom", False: 10, True: 30}},
			{ID: "b", Kind: "fuzzy_not", Input: "High_X_Fz", Result: "Not_High_X_Fz"},
		},
	}
	c, path := newCompiler(t, m, testSource(), &captureMessenger{})
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "InFieldName = High_X_Fz, ReturnType") {
		t.Errorf("upstream result got a read instruction:\n%s", data)
	}
	outs := c.Outputs()
	if len(outs) != 2 || outs[1] != "Not_High_X_Fz" {
		t.Errorf("Outputs = %v", outs)
	}
}

func TestCompileManualRename(t *testing.T) {
	m := &model.Model{
		Meta: model.Meta{Name: "M"},
		Nodes: []model.Node{{
			ID:     "x-fz",
			Kind:   "cvt_to_fuzzy",
			Input:  "X",
			Result: "Slope_Suitability",
			Thresholds: &model.ThresholdConfig{
				Policy: "custom", False: 10, True: 30,
			},
		}},
	}
	c, path := newCompiler(t, m, testSource(), &captureMessenger{})
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "Slope_Suitability = CvtToFuzzy(") {
		t.Errorf("manual rename not honored:\n%s", data)
	}
}

// An integer-expecting conversion over a non-integer column warns and
// proceeds; the engine coerces at run time.
func TestCompileIntegerInputMismatchWarns(t *testing.T) {
	m := &model.Model{
		Meta: model.Meta{Name: "M"},
		Nodes: []model.Node{{
			ID:    "cat",
			Kind:  "cvt_to_fuzzy_cat",
			Input: "X",
			Categories: &model.CategoryConfig{
				RawValues:   []float64{10, 20, 30},
				FuzzyValues: []float64{-1, 0, 1},
			},
		}},
	}
	msg := &captureMessenger{}
	c, _ := newCompiler(t, m, testSource(), msg)
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}
	if len(msg.warns) == 0 || !strings.Contains(msg.warns[0], "integer") {
		t.Errorf("warns = %v", msg.warns)
	}
}

func TestCompileIntegerInputNoWarning(t *testing.T) {
	m := &model.Model{
		Meta: model.Meta{Name: "M"},
		Nodes: []model.Node{{
			ID:    "cat",
			Kind:  "cvt_to_fuzzy_cat",
			Input: "LandUse",
			Categories: &model.CategoryConfig{
				RawValues:   []float64{1, 2},
				FuzzyValues: []float64{-1, 1},
			},
		}},
	}
	msg := &captureMessenger{}
	c, _ := newCompiler(t, m, testSource(), msg)
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}
	if len(msg.warns) != 0 {
		t.Errorf("warns = %v", msg.warns)
	}
}

func TestCompileStatsOverUpstreamResultFails(t *testing.T) {
	m := &model.Model{
		Meta: model.Meta{Name: "M"},
		Nodes: []model.Node{
			{ID: "a", Kind: "cvt_to_fuzzy", Input: "X",
				Thresholds: &model.ThresholdConfig{Policy: "custom", False: 10, True: 30}},
			{ID: "b", Kind: "cvt_from_fuzzy", Input: "High_X_Fz",
				Thresholds: &model.ThresholdConfig{Policy: "minmax"}},
		},
	}
	c, _ := newCompiler(t, m, testSource(), &captureMessenger{})
	err := c.Compile()
	if err == nil || !strings.Contains(err.Error(), "upstream result") {
		t.Errorf("err = %v", err)
	}
}

func TestCompileEmptyColumn(t *testing.T) {
	m := &model.Model{
		Meta: model.Meta{Name: "M"},
		Nodes: []model.Node{{
			ID: "e", Kind: "cvt_to_fuzzy", Input: "Empty",
			Thresholds: &model.ThresholdConfig{Policy: "minmax"},
		}},
	}
	c, _ := newCompiler(t, m, testSource(), &captureMessenger{})
	err := c.Compile()
	var empty *stats.EmptyInputError
	if !errors.As(err, &empty) {
		t.Errorf("err = %v, want EmptyInputError", err)
	}
}

func TestCompileUnknownKind(t *testing.T) {
	m := &model.Model{
		Meta:  model.Meta{Name: "M"},
		Nodes: []model.Node{{ID: "x", Kind: "frobnicate", Input: "X"}},
	}
	c, _ := newCompiler(t, m, testSource(), &captureMessenger{})
	err := c.Compile()
	if err == nil || !strings.Contains(err.Error(), `node "x"`) {
		t.Errorf("err = %v", err)
	}
}

func TestCompileMetadataLine(t *testing.T) {
	m := &model.Model{
		Meta: model.Meta{Name: "M"},
		Nodes: []model.Node{{
			ID:    "x-fz",
			Kind:  "cvt_to_fuzzy",
			Input: "X",
			Title:    "Housing Density",
			ColorMap: "Sequential: viridis",
			Thresholds: &model.ThresholdConfig{
				Policy: "custom", False: 10, True: 30,
			},
		}},
	}
	c, path := newCompiler(t, m, testSource(), &captureMessenger{})
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	want := "Metadata = [DisplayName:Housing&MediumSpace;Density,ColorMap:viridis]"
	if !strings.Contains(string(data), want) {
		t.Errorf("program:\n%s\nmissing %q", data, want)
	}
}

func TestCompileNonASCIIMetadataFails(t *testing.T) {
	m := &model.Model{
		Meta: model.Meta{Name: "M"},
		Nodes: []model.Node{{
			ID:    "x-fz",
			Kind:  "cvt_to_fuzzy",
			Input: "X",
			Title: "café layer",
			Thresholds: &model.ThresholdConfig{
				Policy: "custom", False: 10, True: 30,
			},
		}},
	}
	c, _ := newCompiler(t, m, testSource(), &captureMessenger{})
	err := c.Compile()
	var nerr *metadata.NonASCIIError
	if !errors.As(err, &nerr) {
		t.Fatalf("err = %v, want NonASCIIError", err)
	}
	if nerr.Rune != 'é' {
		t.Errorf("Rune = %q", nerr.Rune)
	}
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "parcels.csv")
	if err := os.WriteFile(csvPath, []byte("OBJECTID,X\n1,10\n2,20\n3,30\n"), 0644); err != nil {
		t.Fatal(err)
	}

	modelText := fmt.Sprintf(`apiVersion: fuzzgraph/v1
meta:
  name: Suitability
dataset:
  path: %s
  idField: OBJECTID
  columns:
    - name: X
      type: Float
nodes:
  - id: x-fz
    kind: cvt_to_fuzzy
    input: X
    thresholds:
      policy: minmax
`, csvPath)
	modelPath := filepath.Join(dir, "model.yaml")
	if err := os.WriteFile(modelPath, []byte(modelText), 0644); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(dir, "model.mpt")
	res, err := CompileFile(modelPath, outPath, &captureMessenger{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Outputs) != 1 || res.Outputs[0] != "High_X_Fz" {
		t.Errorf("Outputs = %v", res.Outputs)
	}
	data, _ := os.ReadFile(outPath)
	if !strings.Contains(string(data), "FalseThreshold = 10, TrueThreshold = 30") {
		t.Errorf("program:\n%s", data)
	}
}

func TestCompileFileRejectsInvalidModel(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.yaml")
	os.WriteFile(modelPath, []byte("apiVersion: fuzzgraph/v1\nmeta:\n  name: M\n"), 0644)
	if _, err := CompileFile(modelPath, filepath.Join(dir, "out.mpt"), &captureMessenger{}); err == nil {
		t.Error("expected validation failure")
	}
}
