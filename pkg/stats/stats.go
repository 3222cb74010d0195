// Package stats resolves false/true threshold pairs for two-threshold
// fuzzy conversion nodes from descriptive statistics over a column of
// input values.
package stats

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"
)

// PolicyKind names the threshold derivation policy.
type PolicyKind string

const (
	// PolicyCustom leaves both thresholds user-editable; no statistics
	// are computed.
	PolicyCustom PolicyKind = "custom"
	// PolicyMinMax uses the column minimum and maximum.
	PolicyMinMax PolicyKind = "minmax"
	// PolicyStdDev uses mean ± N standard deviations.
	PolicyStdDev PolicyKind = "stddev"
)

// Orientation fixes which threshold receives the larger statistic.
type Orientation string

const (
	// TrueAboveFalse puts the larger statistic on the true threshold.
	TrueAboveFalse Orientation = "true>false"
	// FalseAboveTrue is the reversed orientation.
	FalseAboveTrue Orientation = "false>true"
)

// Policy is one enumerated threshold policy selection.
type Policy struct {
	Kind       PolicyKind
	Deviations float64 // N for PolicyStdDev, 0.5 .. 4.0 in 0.5 steps
}

// Thresholds is a resolved false/true pair.
type Thresholds struct {
	False float64
	True  float64
}

// Summary holds the descriptive statistics of one value column.
type Summary struct {
	Min  float64
	Max  float64
	Mean float64
	Std  float64
}

// EmptyInputError reports a statistics request over zero valid values.
type EmptyInputError struct {
	Field string
}

func (e *EmptyInputError) Error() string {
	if e.Field == "" {
		return "no valid values to compute statistics over"
	}
	return fmt.Sprintf("field %q has no valid values to compute statistics over", e.Field)
}

// Locks reports whether selecting this policy locks the threshold
// fields against direct edits. Every non-custom policy computes and
// locks; custom unlocks.
func (p Policy) Locks() bool {
	return p.Kind != PolicyCustom
}

// ValidDeviations reports whether n is an allowed standard-deviation
// multiplier: 0.5 through 4.0 in 0.5 steps.
func ValidDeviations(n float64) bool {
	if n < 0.5 || n > 4.0 {
		return false
	}
	scaled := n * 2
	return scaled == math.Trunc(scaled)
}

// Describe computes min, max, mean and sample standard deviation over
// values. Missing entries must already be excluded by the caller.
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, &EmptyInputError{}
	}
	s := Summary{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
	}
	s.Mean = sum / float64(len(values))
	if len(values) > 1 {
		ss := 0.0
		for _, v := range values {
			d := v - s.Mean
			ss += d * d
		}
		s.Std = math.Sqrt(ss / float64(len(values)-1))
	}
	return s, nil
}

// Resolve computes the threshold pair for a non-custom policy. The
// custom policy performs no computation and returns the zero pair; the
// caller keeps the user-supplied values.
func Resolve(p Policy, o Orientation, values []float64) (Thresholds, error) {
	if p.Kind == PolicyCustom {
		return Thresholds{}, nil
	}
	s, err := Describe(values)
	if err != nil {
		return Thresholds{}, err
	}
	var lo, hi float64
	switch p.Kind {
	case PolicyMinMax:
		lo, hi = s.Min, s.Max
	case PolicyStdDev:
		if !ValidDeviations(p.Deviations) {
			return Thresholds{}, fmt.Errorf("standard deviation multiplier %v out of range (0.5 .. 4.0 in 0.5 steps)", p.Deviations)
		}
		lo = round8(s.Mean - p.Deviations*s.Std)
		hi = round8(s.Mean + p.Deviations*s.Std)
	default:
		return Thresholds{}, fmt.Errorf("unknown threshold policy %q", p.Kind)
	}
	if o == FalseAboveTrue {
		return Thresholds{False: hi, True: lo}, nil
	}
	return Thresholds{False: lo, True: hi}, nil
}

// ResolveFormula evaluates user-supplied expressions for each
// threshold against the column statistics. The environment exposes
// min, max, mean and std. Either formula may be empty, in which case
// the corresponding fallback value is kept.
func ResolveFormula(falseFormula, trueFormula string, fallback Thresholds, values []float64) (Thresholds, error) {
	s, err := Describe(values)
	if err != nil {
		return Thresholds{}, err
	}
	out := fallback
	if falseFormula != "" {
		out.False, err = evalFormula(falseFormula, s)
		if err != nil {
			return Thresholds{}, fmt.Errorf("false threshold: %w", err)
		}
	}
	if trueFormula != "" {
		out.True, err = evalFormula(trueFormula, s)
		if err != nil {
			return Thresholds{}, fmt.Errorf("true threshold: %w", err)
		}
	}
	return out, nil
}

func evalFormula(formula string, s Summary) (float64, error) {
	env := map[string]any{
		"min":  s.Min,
		"max":  s.Max,
		"mean": s.Mean,
		"std":  s.Std,
	}
	program, err := expr.Compile(formula, expr.Env(env), expr.AsFloat64())
	if err != nil {
		return 0, fmt.Errorf("compile formula %q: %w", formula, err)
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return 0, fmt.Errorf("eval formula %q: %w", formula, err)
	}
	return output.(float64), nil
}

// round8 rounds to 8 decimal places, matching the precision the
// engine's command files carry for derived thresholds.
func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}
