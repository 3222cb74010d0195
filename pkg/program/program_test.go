package program

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cascadia-geo/fuzzgraph/pkg/metadata"
)

// fakeSchemas declares a tiny catalog for builder tests; the real
// catalog lives with the engine surface.
type fakeSchemas map[string][]string

func (f fakeSchemas) ArgOrder(command string) ([]string, error) {
	order, ok := f[command]
	if !ok {
		return nil, &unknownCommand{command}
	}
	return order, nil
}

type unknownCommand struct{ name string }

func (e *unknownCommand) Error() string { return "unknown command " + e.name }

var testSchemas = fakeSchemas{
	"CvtToFuzzy": {"InFieldName", "FalseThreshold", "TrueThreshold", "Metadata"},
}

func TestAppendWritesOneOrderedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.mpt")
	b := NewBuilder(path, testSchemas)

	// Arguments set out of declared order; serialization follows the
	// schema's order.
	args := NewArgs().
		Set("TrueThreshold", 30.0).
		Set("FalseThreshold", 10.0).
		Set("InFieldName", "X")
	if err := b.Append("CvtToFuzzy", "High_X_Fz", args); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "High_X_Fz = CvtToFuzzy(InFieldName = X, FalseThreshold = 10, TrueThreshold = 30)\n"
	if string(data) != want {
		t.Errorf("command file:\n%q\nwant:\n%q", data, want)
	}
}

func TestAppendIsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.mpt")
	b := NewBuilder(path, testSchemas)

	for _, out := range []string{"A_Fz", "B_Fz"} {
		args := NewArgs().Set("InFieldName", out).Set("FalseThreshold", 0.0).Set("TrueThreshold", 1.0)
		if err := b.Append("CvtToFuzzy", out, args); err != nil {
			t.Fatal(err)
		}
	}
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "A_Fz = ") || !strings.HasPrefix(lines[1], "B_Fz = ") {
		t.Errorf("append order lost: %v", lines)
	}
}

func TestAppendUnknownCommand(t *testing.T) {
	b := NewBuilder(filepath.Join(t.TempDir(), "model.mpt"), testSchemas)
	if err := b.Append("NoSuchCommand", "X", NewArgs()); err == nil {
		t.Error("expected unknown command error")
	}
}

func TestAppendUndeclaredArgument(t *testing.T) {
	b := NewBuilder(filepath.Join(t.TempDir(), "model.mpt"), testSchemas)
	args := NewArgs().Set("InFieldName", "X").Set("Bogus", 1.0)
	if err := b.Append("CvtToFuzzy", "X_Fz", args); err == nil {
		t.Error("expected undeclared argument error")
	}
}

// TestSerializeStripsQuotes: the downstream metadata parser cannot
// tolerate quoted tokens, so double quotes never reach the file.
func TestSerializeStripsQuotes(t *testing.T) {
	in := &Instruction{
		Command:    "CvtToFuzzy",
		OutputName: "X_Fz",
		Args:       NewArgs().Set("InFieldName", `"X"`),
	}
	line := in.Serialize()
	if strings.Contains(line, `"`) {
		t.Errorf("serialized line contains quotes: %q", line)
	}
}

func TestSerializeValueKinds(t *testing.T) {
	rec := metadata.Record{DisplayName: "Housing&MediumSpace;Density", ColorMap: "viridis"}
	in := &Instruction{
		Command:    "Cmd",
		OutputName: "Out",
		Args: NewArgs().
			Set("Fields", []string{"A", "B"}).
			Set("Weights", []float64{0.5, 1}).
			Set("Flag", "True").
			Set("Count", 2).
			Set("Metadata", rec),
	}
	got := in.Serialize()
	want := "Out = Cmd(Fields = [A,B], Weights = [0.5,1], Flag = True, Count = 2, Metadata = [DisplayName:Housing&MediumSpace;Density,ColorMap:viridis])"
	if got != want {
		t.Errorf("Serialize =\n%q\nwant\n%q", got, want)
	}
}

func TestSerializeSinkWithoutOutput(t *testing.T) {
	in := &Instruction{
		Command: "EEMSWrite",
		Args:    NewArgs().Set("OutFileName", "snap.csv"),
	}
	if got := in.Serialize(); got != "EEMSWrite(OutFileName = snap.csv)" {
		t.Errorf("Serialize = %q", got)
	}
}

func TestWriteHeaderTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.mpt")
	b := NewBuilder(path, testSchemas)
	args := NewArgs().Set("InFieldName", "X").Set("FalseThreshold", 0.0).Set("TrueThreshold", 1.0)
	if err := b.Append("CvtToFuzzy", "X_Fz", args); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteHeader("My Model"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "# My Model\n" {
		t.Errorf("header pass should start a fresh file, got %q", data)
	}
}

func TestArgsReplaceKeepsPosition(t *testing.T) {
	a := NewArgs().Set("A", 1.0).Set("B", 2.0).Set("A", 3.0)
	if got := a.Names(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("Names = %v", got)
	}
	v, _ := a.Get("A")
	if v != 3.0 {
		t.Errorf("A = %v, want 3", v)
	}
}
