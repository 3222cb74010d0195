// Package program compiles node invocations into the engine's textual
// instruction grammar and maintains the append-only command file.
//
// One node invocation becomes exactly one line:
//
//	Out = Command(ArgA = v, ArgB = [a,b], Metadata = [Key:Value])
//
// The program accumulated in the command file is ordered and
// append-only; later instructions reference earlier outputs by name,
// which is how the authored DAG is realized.
package program

import (
	"fmt"
	"os"
	"strings"
)

// Instruction is one compiled program line. Immutable once appended.
type Instruction struct {
	Command    string
	OutputName string
	Args       *Args
}

// Serialize renders the instruction as a single line of the engine's
// grammar. Instructions without an output name (write instructions)
// render as a bare command call.
func (in *Instruction) Serialize() string {
	var b strings.Builder
	if in.OutputName != "" {
		b.WriteString(in.OutputName)
		b.WriteString(" = ")
	}
	b.WriteString(in.Command)
	b.WriteString("(")
	for i, name := range in.Args.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		v, _ := in.Args.Get(name)
		b.WriteString(name)
		b.WriteString(" = ")
		b.WriteString(formatValue(v))
	}
	b.WriteString(")")
	// The downstream metadata parser cannot tolerate quoted tokens
	// mixed with unquoted ones on the same line.
	return strings.ReplaceAll(b.String(), `"`, "")
}

// SchemaResolver is the engine capability the builder consumes: given
// a command name, return its declared argument order, or fail when the
// engine does not recognize the name.
type SchemaResolver interface {
	ArgOrder(command string) ([]string, error)
}

// Builder appends compiled instructions to a command file. Each append
// constructs a fresh single-instruction representation purely to
// perform name and schema resolution; only the serialized line is
// persisted, so one node's invocation can never re-emit earlier nodes'
// instructions.
type Builder struct {
	path     string
	resolver SchemaResolver
}

// NewBuilder creates a builder appending to the command file at path.
func NewBuilder(path string, resolver SchemaResolver) *Builder {
	return &Builder{path: path, resolver: resolver}
}

// Path returns the command file path the builder appends to.
func (b *Builder) Path() string { return b.path }

// Append resolves commandName against the engine's declared schema,
// serializes one instruction line and appends it to the command file.
// Arguments are reordered to the schema's declared order; an argument
// the schema does not declare is an error.
func (b *Builder) Append(commandName, outputFieldName string, args *Args) error {
	order, err := b.resolver.ArgOrder(commandName)
	if err != nil {
		return err
	}

	declared := make(map[string]bool, len(order))
	for _, n := range order {
		declared[n] = true
	}
	for _, n := range args.Names() {
		if !declared[n] {
			return fmt.Errorf("command %s does not declare argument %q", commandName, n)
		}
	}

	ordered := NewArgs()
	for _, n := range order {
		if v, ok := args.Get(n); ok {
			ordered.Set(n, v)
		}
	}

	in := &Instruction{Command: commandName, OutputName: outputFieldName, Args: ordered}
	return b.appendLine(in.Serialize())
}

// appendLine adds one line to the command file, creating it on first
// use. Lines are never rewritten or removed once appended.
func (b *Builder) appendLine(line string) error {
	f, err := os.OpenFile(b.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open command file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append instruction: %w", err)
	}
	return nil
}

// WriteHeader starts a new command file with a comment header naming
// the model. Truncates any previous contents, so it runs once, before
// the first append of a compilation pass.
func (b *Builder) WriteHeader(modelName string) error {
	header := ""
	if modelName != "" {
		header = "# " + strings.ReplaceAll(modelName, `"`, "") + "\n"
	}
	if err := os.WriteFile(b.path, []byte(header), 0644); err != nil {
		return fmt.Errorf("write command file header: %w", err)
	}
	return nil
}
