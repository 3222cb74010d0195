package compiler

import (
	"fmt"

	"github.com/cascadia-geo/fuzzgraph/pkg/dataset"
	"github.com/cascadia-geo/fuzzgraph/pkg/engine"
	"github.com/cascadia-geo/fuzzgraph/pkg/model"
	"github.com/cascadia-geo/fuzzgraph/pkg/program"
)

// Result of compiling a model file.
type Result struct {
	Model   *model.Model
	Source  *dataset.Memory
	Outputs []string
	Program string // command file path
}

// CompileFile validates a model file, opens its dataset reference and
// compiles the full instruction program to outPath.
func CompileFile(modelPath, outPath string, msg dataset.Messenger) (*Result, error) {
	m, errs := model.ValidateFile(modelPath)
	var fatal []*model.ValidationError
	for _, e := range errs {
		if e.Severity == "warning" {
			if msg != nil {
				msg.Warn(e.Error())
			}
			continue
		}
		fatal = append(fatal, e)
	}
	if len(fatal) > 0 {
		return nil, fmt.Errorf("model validation failed: %d error(s), first: %v", len(fatal), fatal[0])
	}

	src, err := model.OpenDataset(m.Dataset)
	if err != nil {
		return nil, err
	}

	builder := program.NewBuilder(outPath, engine.Schemas{})
	c := New(m, src, builder, msg)
	if err := c.Compile(); err != nil {
		return nil, err
	}
	return &Result{Model: m, Source: src, Outputs: c.Outputs(), Program: outPath}, nil
}
