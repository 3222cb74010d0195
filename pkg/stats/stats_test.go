package stats

import (
	"errors"
	"math"
	"testing"
)

var sample = []float64{3, 1, 4, 1, 5, 9, 2, 6}

func TestResolveMinMax(t *testing.T) {
	th, err := Resolve(Policy{Kind: PolicyMinMax}, TrueAboveFalse, sample)
	if err != nil {
		t.Fatal(err)
	}
	if th.False != 1 || th.True != 9 {
		t.Errorf("minmax true>false = (%v, %v), want (1, 9)", th.False, th.True)
	}
}

func TestResolveMinMaxReversed(t *testing.T) {
	th, err := Resolve(Policy{Kind: PolicyMinMax}, FalseAboveTrue, sample)
	if err != nil {
		t.Fatal(err)
	}
	if th.False != 9 || th.True != 1 {
		t.Errorf("minmax false>true = (%v, %v), want (9, 1)", th.False, th.True)
	}
}

// TestStdDevMonotonic: increasing N strictly widens the threshold gap.
func TestStdDevMonotonic(t *testing.T) {
	prev := -1.0
	for n := 0.5; n <= 4.0; n += 0.5 {
		th, err := Resolve(Policy{Kind: PolicyStdDev, Deviations: n}, TrueAboveFalse, sample)
		if err != nil {
			t.Fatalf("N=%v: %v", n, err)
		}
		width := math.Abs(th.True - th.False)
		if width <= prev {
			t.Errorf("N=%v: width %v not strictly wider than %v", n, width, prev)
		}
		prev = width
	}
}

func TestStdDevSymmetricAroundMean(t *testing.T) {
	s, err := Describe(sample)
	if err != nil {
		t.Fatal(err)
	}
	th, err := Resolve(Policy{Kind: PolicyStdDev, Deviations: 2}, TrueAboveFalse, sample)
	if err != nil {
		t.Fatal(err)
	}
	mid := (th.False + th.True) / 2
	if math.Abs(mid-s.Mean) > 1e-8 {
		t.Errorf("midpoint %v, want mean %v", mid, s.Mean)
	}
}

func TestStdDevReversedSwapsPair(t *testing.T) {
	fwd, _ := Resolve(Policy{Kind: PolicyStdDev, Deviations: 1}, TrueAboveFalse, sample)
	rev, _ := Resolve(Policy{Kind: PolicyStdDev, Deviations: 1}, FalseAboveTrue, sample)
	if fwd.False != rev.True || fwd.True != rev.False {
		t.Errorf("reversed orientation should swap the pair: %+v vs %+v", fwd, rev)
	}
}

func TestResolveEmptyInput(t *testing.T) {
	_, err := Resolve(Policy{Kind: PolicyMinMax}, TrueAboveFalse, nil)
	var empty *EmptyInputError
	if !errors.As(err, &empty) {
		t.Errorf("err = %v, want EmptyInputError", err)
	}
}

func TestResolveCustomNoComputation(t *testing.T) {
	// Custom never touches the values; an empty sequence is fine.
	th, err := Resolve(Policy{Kind: PolicyCustom}, TrueAboveFalse, nil)
	if err != nil {
		t.Fatal(err)
	}
	if th != (Thresholds{}) {
		t.Errorf("custom policy computed %+v", th)
	}
}

func TestPolicyLocks(t *testing.T) {
	if (Policy{Kind: PolicyCustom}).Locks() {
		t.Error("custom must leave thresholds editable")
	}
	if !(Policy{Kind: PolicyMinMax}).Locks() {
		t.Error("minmax must lock thresholds")
	}
	if !(Policy{Kind: PolicyStdDev, Deviations: 1}).Locks() {
		t.Error("stddev must lock thresholds")
	}
}

func TestValidDeviations(t *testing.T) {
	for _, n := range []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4} {
		if !ValidDeviations(n) {
			t.Errorf("N=%v should be valid", n)
		}
	}
	for _, n := range []float64{0, 0.25, 4.5, 1.7, -1} {
		if ValidDeviations(n) {
			t.Errorf("N=%v should be invalid", n)
		}
	}
}

func TestResolveFormula(t *testing.T) {
	th, err := ResolveFormula("mean - std", "mean + std", Thresholds{}, sample)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := Describe(sample)
	if math.Abs(th.False-(s.Mean-s.Std)) > 1e-8 {
		t.Errorf("False = %v, want mean-std = %v", th.False, s.Mean-s.Std)
	}
	if math.Abs(th.True-(s.Mean+s.Std)) > 1e-8 {
		t.Errorf("True = %v, want mean+std = %v", th.True, s.Mean+s.Std)
	}
}

func TestResolveFormulaKeepsFallback(t *testing.T) {
	th, err := ResolveFormula("", "max", Thresholds{False: -1, True: -1}, sample)
	if err != nil {
		t.Fatal(err)
	}
	if th.False != -1 {
		t.Errorf("empty formula should keep fallback, got %v", th.False)
	}
	if th.True != 9 {
		t.Errorf("True = %v, want 9", th.True)
	}
}

func TestResolveFormulaBad(t *testing.T) {
	if _, err := ResolveFormula("nope(", "", Thresholds{}, sample); err == nil {
		t.Error("expected compile error")
	}
}

func TestDescribe(t *testing.T) {
	s, err := Describe(sample)
	if err != nil {
		t.Fatal(err)
	}
	if s.Min != 1 || s.Max != 9 {
		t.Errorf("min/max = %v/%v", s.Min, s.Max)
	}
	if math.Abs(s.Mean-3.875) > 1e-12 {
		t.Errorf("mean = %v, want 3.875", s.Mean)
	}
}
