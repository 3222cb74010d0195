package engine

import (
	"errors"
	"testing"

	"github.com/cascadia-geo/fuzzgraph/pkg/metadata"
	"github.com/cascadia-geo/fuzzgraph/pkg/program"
)

// TestParseRoundTrip: parsing a serialized program recovers output
// names and argument records exactly, and re-serializes to identical
// text.
func TestParseRoundTrip(t *testing.T) {
	text := "X = EEMSRead(InFileName = parcels.gdb/units, InFieldName = X, ReturnType = Float)\n" +
		"High_X_Fz = CvtToFuzzy(InFieldName = X, FalseThreshold = 10, TrueThreshold = 30, Metadata = [DisplayName:Density,ColorMap:viridis])\n" +
		"Combined = FuzzyWeightedUnion(InFieldNames = [High_X_Fz,Y_Fz], Weights = [0.25,0.75])\n" +
		"EEMSWrite(OutFileName = snap.csv, OutFieldNames = [Combined,CSVID])\n"

	prog, err := ParseProgram(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Instructions) != 4 {
		t.Fatalf("parsed %d instructions, want 4", len(prog.Instructions))
	}

	cvt := prog.Instructions[1]
	if cvt.Command != "CvtToFuzzy" || cvt.OutputName != "High_X_Fz" {
		t.Errorf("instruction = %s/%s", cvt.Command, cvt.OutputName)
	}
	if v, _ := cvt.Args.Get("FalseThreshold"); v != 10.0 {
		t.Errorf("FalseThreshold = %v (%T), want float64 10", v, v)
	}
	if v, _ := cvt.Args.Get("Metadata"); v != (metadata.Record{DisplayName: "Density", ColorMap: "viridis"}) {
		t.Errorf("Metadata = %#v", v)
	}

	union := prog.Instructions[2]
	if v, _ := union.Args.Get("Weights"); len(v.([]float64)) != 2 || v.([]float64)[1] != 0.75 {
		t.Errorf("Weights = %v", v)
	}

	if got := prog.Serialize(); got != text {
		t.Errorf("round trip lost text:\n%q\nwant\n%q", got, text)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := ParseProgram("Out = NotACommand(InFieldName = X)")
	var unknown *UnknownCommandError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownCommandError", err)
	}
	if unknown.Command != "NotACommand" {
		t.Errorf("Command = %q", unknown.Command)
	}
}

func TestParseMissingRequired(t *testing.T) {
	if _, err := ParseProgram("X_Fz = CvtToFuzzy(InFieldName = X)"); err == nil {
		t.Error("expected missing required argument error")
	}
}

func TestParseUndeclaredArgument(t *testing.T) {
	if _, err := ParseProgram("X_Fz = CvtToFuzzy(InFieldName = X, FalseThreshold = 0, TrueThreshold = 1, Extra = 5)"); err == nil {
		t.Error("expected undeclared argument error")
	}
}

func TestParseFlagStaysTextual(t *testing.T) {
	text := "X_Fz = CvtToFuzzyMeanToMid(InFieldName = X, IgnoreZeros = True, FuzzyValues = [-1,-0.5,0,0.5,1])"
	prog, err := ParseProgram(text)
	if err != nil {
		t.Fatal(err)
	}
	v, _ := prog.Instructions[0].Args.Get("IgnoreZeros")
	if _, ok := v.(string); !ok {
		t.Errorf("IgnoreZeros parsed as %T, want string", v)
	}
	if v != "True" {
		t.Errorf("IgnoreZeros = %v", v)
	}
}

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	text := "# header\n\nX = EEMSRead(InFileName = f.csv, InFieldName = X)\n"
	prog, err := ParseProgram(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Instructions) != 1 {
		t.Errorf("parsed %d instructions, want 1", len(prog.Instructions))
	}
}

func TestParseToleratesQuotes(t *testing.T) {
	prog, err := ParseProgram(`X = EEMSRead(InFileName = "f.csv", InFieldName = "X")`)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := prog.Instructions[0].Args.Get("InFileName"); v != "f.csv" {
		t.Errorf("InFileName = %q", v)
	}
}

func TestParseResultNameRules(t *testing.T) {
	if _, err := ParseProgram("CvtToFuzzy(InFieldName = X, FalseThreshold = 0, TrueThreshold = 1)"); err == nil {
		t.Error("producing command without result name should fail")
	}
	if _, err := ParseProgram("Out = EEMSWrite(OutFileName = f.csv, OutFieldNames = [X])"); err == nil {
		t.Error("sink command with result name should fail")
	}
}

func TestResolveCatalog(t *testing.T) {
	s, err := Resolve("FuzzyUnion")
	if err != nil {
		t.Fatal(err)
	}
	if !s.HasOutput || s.Args[0].Name != "InFieldNames" {
		t.Errorf("FuzzyUnion schema = %+v", s)
	}
	if _, err := Resolve("Nope"); err == nil {
		t.Error("expected UnknownCommandError")
	}
}

func TestSchemasArgOrder(t *testing.T) {
	order, err := Schemas{}.ArgOrder("CvtToFuzzy")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"InFieldName", "FalseThreshold", "TrueThreshold", "Metadata"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestOutputNames(t *testing.T) {
	prog, err := ParseProgram("X = EEMSRead(InFileName = f.csv, InFieldName = X)\nEEMSWrite(OutFileName = f.csv, OutFieldNames = [X])\n")
	if err != nil {
		t.Fatal(err)
	}
	names := prog.OutputNames()
	if len(names) != 1 || names[0] != "X" {
		t.Errorf("OutputNames = %v", names)
	}
}

var _ program.SchemaResolver = Schemas{}
