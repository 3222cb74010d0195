package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cascadia-geo/fuzzgraph/pkg/metadata"
	"github.com/cascadia-geo/fuzzgraph/pkg/program"
)

// Program is the engine's executable form of a command file: the
// ordered instruction sequence recovered from program text. Append is
// the only mutation, matching the command file's append-only
// discipline.
type Program struct {
	Instructions []*program.Instruction
}

// ParseProgram parses command-file text into executable form. Every
// line is validated against the declared catalog; argument values are
// recovered with the types the command's schema declares, so a parsed
// program serializes back to the identical text.
func ParseProgram(text string) (*Program, error) {
	p := &Program{}
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		in, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		p.Instructions = append(p.Instructions, in)
	}
	return p, nil
}

// Append adds an instruction to the executable program.
func (p *Program) Append(in *program.Instruction) {
	p.Instructions = append(p.Instructions, in)
}

// Serialize renders the program back to command-file text, one
// instruction per line.
func (p *Program) Serialize() string {
	var b strings.Builder
	for _, in := range p.Instructions {
		b.WriteString(in.Serialize())
		b.WriteString("\n")
	}
	return b.String()
}

// OutputNames returns the result name of every instruction that
// produces one, in program order.
func (p *Program) OutputNames() []string {
	var names []string
	for _, in := range p.Instructions {
		if in.OutputName != "" {
			names = append(names, in.OutputName)
		}
	}
	return names
}

func parseLine(line string) (*program.Instruction, error) {
	open := strings.Index(line, "(")
	if open < 0 || !strings.HasSuffix(line, ")") {
		return nil, fmt.Errorf("malformed instruction %q", line)
	}
	head := strings.TrimSpace(line[:open])
	body := line[open+1 : len(line)-1]

	outName, command := "", head
	if eq := strings.Index(head, "="); eq >= 0 {
		outName = strings.TrimSpace(head[:eq])
		command = strings.TrimSpace(head[eq+1:])
	}

	schema, err := Resolve(command)
	if err != nil {
		return nil, err
	}
	if schema.HasOutput && outName == "" {
		return nil, fmt.Errorf("command %s requires a result name", command)
	}
	if !schema.HasOutput && outName != "" {
		return nil, fmt.Errorf("command %s does not produce a result", command)
	}

	args := program.NewArgs()
	seen := make(map[string]bool)
	for _, part := range splitTopLevel(body) {
		if part == "" {
			continue
		}
		eq := strings.Index(part, "=")
		if eq < 0 {
			return nil, fmt.Errorf("command %s: malformed argument %q", command, part)
		}
		name := strings.TrimSpace(part[:eq])
		rawVal := strings.TrimSpace(part[eq+1:])

		spec, ok := findArg(schema, name)
		if !ok {
			return nil, fmt.Errorf("command %s does not declare argument %q", command, name)
		}
		v, err := parseValue(spec.Type, rawVal)
		if err != nil {
			return nil, fmt.Errorf("command %s argument %s: %w", command, name, err)
		}
		args.Set(name, v)
		seen[name] = true
	}

	for _, spec := range schema.Args {
		if spec.Required && !seen[spec.Name] {
			return nil, fmt.Errorf("command %s missing required argument %s", command, spec.Name)
		}
	}
	return &program.Instruction{Command: command, OutputName: outName, Args: args}, nil
}

func findArg(s *CommandSchema, name string) (ArgSpec, bool) {
	for _, a := range s.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgSpec{}, false
}

// splitTopLevel splits an argument body on commas outside brackets.
func splitTopLevel(body string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range body {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(body[start:]))
	return parts
}

func parseValue(t ArgType, raw string) (any, error) {
	switch t {
	case TypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected number, got %q", raw)
		}
		return f, nil
	case TypeInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", raw)
		}
		return n, nil
	case TypeNumberList:
		items, err := parseList(raw)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(items))
		for i, it := range items {
			f, err := strconv.ParseFloat(it, 64)
			if err != nil {
				return nil, fmt.Errorf("expected number list element, got %q", it)
			}
			out[i] = f
		}
		return out, nil
	case TypeFieldList:
		items, err := parseList(raw)
		if err != nil {
			return nil, err
		}
		return items, nil
	case TypeMetadata:
		items, err := parseList(raw)
		if err != nil {
			return nil, err
		}
		var rec metadata.Record
		for _, it := range items {
			colon := strings.Index(it, ":")
			if colon < 0 {
				return nil, fmt.Errorf("malformed metadata entry %q", it)
			}
			key := strings.TrimSpace(it[:colon])
			val := strings.TrimSpace(it[colon+1:])
			switch key {
			case "DisplayName":
				rec.DisplayName = val
			case "Description":
				rec.Description = val
			case "ColorMap":
				rec.ColorMap = val
			default:
				return nil, fmt.Errorf("unknown metadata key %q", key)
			}
		}
		return rec, nil
	default:
		// TypeString, TypeField, TypePath, TypeFlag all stay textual.
		return raw, nil
	}
}

func parseList(raw string) ([]string, error) {
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil, fmt.Errorf("expected bracketed list, got %q", raw)
	}
	inner := strings.TrimSpace(raw[1 : len(raw)-1])
	if inner == "" {
		return nil, nil
	}
	items := strings.Split(inner, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items, nil
}
