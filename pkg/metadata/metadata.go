// Package metadata builds the escaped metadata records attached to
// compiled instructions. Display text travels through the engine's
// command-file parser and a hosted web renderer, both of which treat a
// fixed set of characters as syntax, so every occurrence is substituted
// before the record is stored.
package metadata

import (
	"fmt"
	"strings"
	"unicode"
)

// Record is the metadata payload of one instruction. Empty DisplayName
// or Description means the key is omitted entirely when serialized;
// an empty-string key is never emitted.
type Record struct {
	DisplayName string
	Description string
	ColorMap    string
}

// NonASCIIError reports user text carrying a character outside the
// ASCII range. The command-file reader and the engine's CSV layer are
// ASCII-only, so the text is rejected before it can reach either.
type NonASCIIError struct {
	Field string
	Rune  rune
}

func (e *NonASCIIError) Error() string {
	return fmt.Sprintf("%s contains non-ASCII character %q; command-file text must be ASCII", e.Field, e.Rune)
}

// checkASCII returns a NonASCIIError for the first character of s
// outside the ASCII range.
func checkASCII(field, s string) error {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return &NonASCIIError{Field: field, Rune: r}
		}
	}
	return nil
}

// escapeRule is one entry in the fixed substitution table.
type escapeRule struct {
	raw     string
	escaped string
}

// escapeTable lists every character the command-file reader or the web
// renderer treats as syntax, in application order. None of the escaped
// outputs contain a character that appears earlier in the table, so
// rules never re-trigger on each other's output.
// &MediumSpace; (rather than &nbsp;) keeps text wrappable in hosted
// web applications.
var escapeTable = []escapeRule{
	{" ", "&MediumSpace;"},
	{"#", "&num;"},
	{":", "&colon;"},
	{",", "&comma;"},
	{"=", "&equals;"},
	{"(", "&lpar;"},
	{")", "&rpar;"},
	{"[", "&lsqb;"},
	{"]", "&rsqb;"},
	{"'", "&apos;"},
}

// Escape substitutes every occurrence of every table character in s,
// rule by rule in table order.
func Escape(s string) string {
	for _, r := range escapeTable {
		s = strings.ReplaceAll(s, r.raw, r.escaped)
	}
	return s
}

// ColorMapName extracts the map name from a two-part picker label of
// the form "<category>: <name>". Labels without a category pass
// through unchanged. When reverse is set the name gains the engine's
// "_r" reversed-ramp suffix.
func ColorMapName(label string, reverse bool) string {
	name := strings.TrimSpace(label)
	if i := strings.Index(name, ":"); i >= 0 {
		name = strings.TrimSpace(name[i+1:])
	}
	if reverse && name != "" {
		name += "_r"
	}
	return name
}

// Encode produces the metadata record for one node from raw user
// strings and the selected color map. Non-ASCII text is rejected with
// a NonASCIIError before any escaping happens. Escaping applies
// independently to displayName and description; absent inputs degrade
// to omitted keys, never to empty-string keys.
func Encode(displayName, description, colorMapLabel string, reverse bool) (Record, error) {
	if err := checkASCII("display name", displayName); err != nil {
		return Record{}, err
	}
	if err := checkASCII("description", description); err != nil {
		return Record{}, err
	}
	if err := checkASCII("color map", colorMapLabel); err != nil {
		return Record{}, err
	}
	return Record{
		DisplayName: Escape(strings.TrimSpace(displayName)),
		Description: Escape(strings.TrimSpace(description)),
		ColorMap:    ColorMapName(colorMapLabel, reverse),
	}, nil
}

// Pairs returns the record's key/value pairs in serialization order,
// skipping omitted keys.
func (r Record) Pairs() [][2]string {
	var pairs [][2]string
	if r.DisplayName != "" {
		pairs = append(pairs, [2]string{"DisplayName", r.DisplayName})
	}
	if r.Description != "" {
		pairs = append(pairs, [2]string{"Description", r.Description})
	}
	if r.ColorMap != "" {
		pairs = append(pairs, [2]string{"ColorMap", r.ColorMap})
	}
	return pairs
}

// IsZero reports whether the record carries no keys at all.
func (r Record) IsZero() bool {
	return r.DisplayName == "" && r.Description == "" && r.ColorMap == ""
}
