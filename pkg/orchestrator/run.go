// Package orchestrator drives one full model run: snapshot the input
// dataset, retarget the compiled program at the snapshot, execute the
// external engine, and join computed columns back onto a spatial
// shell.
//
// The five stages are strictly sequential with no retries between
// them. Any stage failure aborts the run with no partial results
// committed; a retry restarts from stage 1, because the shell produced
// there is already partially populated.
package orchestrator

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cascadia-geo/fuzzgraph/pkg/dataset"
	"github.com/cascadia-geo/fuzzgraph/pkg/engine"
	"github.com/cascadia-geo/fuzzgraph/pkg/program"
)

// StageError reports which run stage failed. Fatal to the entire run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// GenerateRunID creates a run ID in format YYYYMMDDTHHmmss-xxxxxxxx,
// with an 8-character random hex suffix.
func GenerateRunID() string {
	ts := time.Now().Format("20060102T150405")
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("%s-%x", ts, suffix)
}

// Orchestrator owns the artifacts of a single run. The snapshot and
// the rewritten program are transient and single-owner, never shared
// across concurrent runs.
type Orchestrator struct {
	Source      *dataset.Memory
	ProgramPath string
	Outputs     []string // computed output field names, in program order
	Runner      engine.Runner
	Msg         dataset.Messenger
	BaseDir     string // .fuzzgraph/runs/<run_id>/
	RunID       string

	trace    *StageTrace
	manifest *RunManifest
}

// New prepares a run directory and trace writer for one model run.
func New(src *dataset.Memory, programPath string, outputs []string, runner engine.Runner, msg dataset.Messenger) (*Orchestrator, error) {
	if msg == nil {
		msg = dataset.ConsoleMessenger{}
	}
	runID := GenerateRunID()
	baseDir := filepath.Join(".fuzzgraph", "runs", runID)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	trace, err := NewStageTrace(filepath.Join(baseDir, "trace.jsonl"), runID)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		Source:      src,
		ProgramPath: programPath,
		Outputs:     outputs,
		Runner:      runner,
		Msg:         msg,
		BaseDir:     baseDir,
		RunID:       runID,
		trace:       trace,
		manifest:    newManifest(runID, programPath),
	}, nil
}

// SnapshotPath returns the tabular snapshot file for this run.
func (o *Orchestrator) SnapshotPath() string {
	return filepath.Join(o.BaseDir, "snapshot.csv")
}

// rewrittenPath is the run-local copy of the program with dataset
// references retargeted and bootstrap instructions appended.
func (o *Orchestrator) rewrittenPath() string {
	return filepath.Join(o.BaseDir, "program.mpt")
}

// Run executes the five stages in order and returns the joined output
// dataset. A failed run returns the StageError of the stage that
// failed; nothing is committed.
func (o *Orchestrator) Run(ctx context.Context) (*dataset.Memory, error) {
	defer o.trace.Close()

	var shell *dataset.Memory
	var rewritten string

	stages := []struct {
		name string
		fn   func() error
	}{
		{"duplicate spatial shell", func() error {
			shell = dataset.CopyShell(o.Source, o.Source.Path()+"_results")
			return nil
		}},
		{"export snapshot", func() error {
			return dataset.ExportCSV(o.Source, o.SnapshotPath())
		}},
		{"rewrite program", func() error {
			var err error
			rewritten, err = o.rewriteProgram()
			return err
		}},
		{"bootstrap and execute", func() error {
			return o.execute(ctx, rewritten)
		}},
		{"join results", func() error {
			return o.join(shell)
		}},
	}

	for i, stage := range stages {
		o.Msg.Info(stageBanner(i+1, len(stages), stage.name))
		start := time.Now()
		err := stage.fn()
		o.trace.Write(stage.name, err, time.Since(start))
		o.manifest.record(stage.name, err)
		if err != nil {
			serr := &StageError{Stage: stage.name, Err: err}
			o.Msg.Warn(stageFailed(stage.name, err))
			o.writeManifest("failed")
			return nil, serr
		}
		o.Msg.Info(stageDone(stage.name))
	}

	o.writeManifest("completed")
	o.Msg.Info(runComplete(o.BaseDir))
	return shell, nil
}

// rewriteProgram reads the compiled program text and substitutes every
// literal occurrence of the authoring-time dataset path with the
// snapshot path. Compilation recorded the logical reference; the
// snapshot did not exist yet.
func (o *Orchestrator) rewriteProgram() (string, error) {
	data, err := os.ReadFile(o.ProgramPath)
	if err != nil {
		return "", fmt.Errorf("read program: %w", err)
	}
	return strings.ReplaceAll(string(data), o.Source.Path(), o.SnapshotPath()), nil
}

// execute parses the rewritten program, appends the bootstrap read for
// the canonical row identifier and the write listing every computed
// output, persists the run-local program, and invokes the engine.
func (o *Orchestrator) execute(ctx context.Context, rewritten string) error {
	prog, err := engine.ParseProgram(rewritten)
	if err != nil {
		return fmt.Errorf("parse program: %w", err)
	}

	readArgs := program.NewArgs().
		Set("InFileName", o.SnapshotPath()).
		Set("InFieldName", dataset.CanonicalID).
		Set("ReturnType", "Integer")
	prog.Append(&program.Instruction{
		Command:    "EEMSRead",
		OutputName: dataset.CanonicalID,
		Args:       readArgs,
	})

	outFields := append(append([]string{}, o.Outputs...), dataset.CanonicalID)
	writeArgs := program.NewArgs().
		Set("OutFileName", o.SnapshotPath()).
		Set("OutFieldNames", outFields)
	prog.Append(&program.Instruction{
		Command: "EEMSWrite",
		Args:    writeArgs,
	})

	if err := os.WriteFile(o.rewrittenPath(), []byte(prog.Serialize()), 0644); err != nil {
		return fmt.Errorf("write run program: %w", err)
	}
	return o.Runner.Run(ctx, o.rewrittenPath())
}

// join loads the augmented snapshot and attaches every computed column
// onto the shell by row identifier.
func (o *Orchestrator) join(shell *dataset.Memory) error {
	table, err := dataset.LoadCSV(o.SnapshotPath())
	if err != nil {
		return err
	}
	return dataset.Join(shell, table)
}

func (o *Orchestrator) writeManifest(outcome string) {
	o.manifest.Outcome = outcome
	o.manifest.EndedAt = time.Now().Format(time.RFC3339)
	if err := o.manifest.save(filepath.Join(o.BaseDir, "run.yaml")); err != nil {
		o.Msg.Warn(fmt.Sprintf("write run manifest: %v", err))
	}
}
