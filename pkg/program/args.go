package program

import (
	"strconv"
	"strings"

	"github.com/cascadia-geo/fuzzgraph/pkg/metadata"
)

// Args is an ordered argument record. Ordering is an explicit property
// of the record (and of each command's declared schema), never an
// incidental property of a map implementation.
type Args struct {
	names  []string
	values map[string]any
}

// NewArgs returns an empty argument record.
func NewArgs() *Args {
	return &Args{values: make(map[string]any)}
}

// Set appends name with value v, or replaces the value if name is
// already present (keeping its original position). Accepted value
// types: string, float64, int, bool, []string, []float64,
// metadata.Record.
func (a *Args) Set(name string, v any) *Args {
	if _, ok := a.values[name]; !ok {
		a.names = append(a.names, name)
	}
	a.values[name] = v
	return a
}

// Get returns the value for name and whether it is present.
func (a *Args) Get(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Names returns the argument names in insertion order.
func (a *Args) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Len returns the number of arguments.
func (a *Args) Len() int { return len(a.names) }

// formatValue renders one argument value in the engine's grammar.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(t)
	case float64:
		return formatNumber(t)
	case []string:
		return "[" + strings.Join(t, ",") + "]"
	case []float64:
		parts := make([]string, len(t))
		for i, f := range t {
			parts[i] = formatNumber(f)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case metadata.Record:
		pairs := t.Pairs()
		parts := make([]string, len(pairs))
		for i, p := range pairs {
			parts[i] = p[0] + ":" + p[1]
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return ""
	}
}

// formatNumber renders a float without a trailing ".0" for whole
// values, matching what the engine's reader expects.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
