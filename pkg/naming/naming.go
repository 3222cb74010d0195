// Package naming derives default output field names for model nodes.
//
// Each node owns a small piece of state that remembers the last input
// field the default was derived from. Re-validation of a node happens
// far more often than a genuine edit, so the derived name is only
// recomputed when the upstream input (or, for two-threshold nodes, the
// threshold ordering) actually changed; otherwise a user's manual
// rename would be silently clobbered on every recompute.
package naming

import "strings"

// Family selects the naming rule for a node kind. One family per
// command group; combinators have no automatic rule.
type Family int

const (
	// FamilyNone: caller supplies the output name directly.
	FamilyNone Family = iota
	// FamilyThreshold: two-threshold fuzzy conversion: High_/Low_ prefix + _Fz.
	FamilyThreshold
	// FamilyFuzzy: category/curve/z-score conversion: input + _Fz.
	FamilyFuzzy
	// FamilyBinary: binary conversion: input + _Binary.
	FamilyBinary
	// FamilyDefuzz: de-fuzzification: strip High_/Low_, _Fz becomes _NonFz.
	FamilyDefuzz
)

// Direction of a two-threshold conversion, recomputed from the current
// threshold ordering on every derivation, never stored independently.
type Direction string

const (
	DirectionNone Direction = ""
	DirectionHigh Direction = "High"
	DirectionLow  Direction = "Low"
)

// State is the per-node derivation memory. Created when the node
// materializes in the canvas and discarded with it.
type State struct {
	LastSeenInput string
	Direction     Direction
	// LastDerived is the most recent automatically derived name, kept
	// so a suppressed recompute can fall back to it.
	LastDerived string
}

// Result of one derivation. When Changed is false the caller keeps
// whatever output name is currently configured (possibly a manual
// rename); Name and Label are only populated on a real change.
type Result struct {
	Name    string
	Label   string
	Changed bool
}

// ThresholdDirection derives the direction from the current threshold
// ordering: true threshold at or above false threshold reads High.
func ThresholdDirection(falseThreshold, trueThreshold float64) Direction {
	if trueThreshold >= falseThreshold {
		return DirectionHigh
	}
	return DirectionLow
}

// Derive computes the default output name for a node given its primary
// input field. For FamilyThreshold the thresholds participate in the
// change detection; other families ignore them.
func (s *State) Derive(f Family, inputField string, falseThreshold, trueThreshold float64) Result {
	if f == FamilyNone || inputField == "" {
		s.LastSeenInput = inputField
		return Result{}
	}

	dir := DirectionNone
	if f == FamilyThreshold {
		dir = ThresholdDirection(falseThreshold, trueThreshold)
	}

	changed := inputField != s.LastSeenInput
	if f == FamilyThreshold && dir != s.Direction {
		changed = true
	}
	s.LastSeenInput = inputField
	s.Direction = dir
	if !changed {
		return Result{}
	}

	var name string
	switch f {
	case FamilyThreshold:
		name = string(dir) + "_" + inputField + "_Fz"
	case FamilyFuzzy:
		name = inputField + "_Fz"
	case FamilyBinary:
		name = inputField + "_Binary"
	case FamilyDefuzz:
		name = defuzzName(inputField)
	}
	s.LastDerived = name
	return Result{Name: name, Label: Label(name), Changed: true}
}

// Resync handles a manual rename: the node's externally visible output
// identifier follows the edited value and its label is re-derived from
// it. The derivation state is untouched so the next genuine input
// change still wins.
func Resync(edited string) Result {
	return Result{Name: edited, Label: Label(edited), Changed: true}
}

// defuzzName strips a High_/Low_ prefix and converts the _Fz suffix to
// _NonFz. Inputs without the fuzzy suffix still gain _NonFz so the
// result never collides with the input field itself.
func defuzzName(in string) string {
	in = strings.TrimPrefix(in, "High_")
	in = strings.TrimPrefix(in, "Low_")
	if strings.HasSuffix(in, "_Fz") {
		return strings.TrimSuffix(in, "_Fz") + "_NonFz"
	}
	return in + "_NonFz"
}

// Label turns a field name into its human-readable display form:
// underscores become spaces and each word is title-cased.
func Label(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
