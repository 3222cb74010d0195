package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Runner is the engine's run entry point. Implementations execute the
// instructions in a command file against the tabular snapshot the file
// references. The run is synchronous; a nil return means the snapshot
// has been augmented in place.
type Runner interface {
	Run(ctx context.Context, commandFile string) error
}

// ExecRunner invokes the engine as an external binary, passing the
// command file path as the final argument.
type ExecRunner struct {
	Binary string
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner for the engine binary at path.
func NewExecRunner(binary string, args ...string) *ExecRunner {
	return &ExecRunner{Binary: binary, Args: args, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes the engine over the command file.
func (r *ExecRunner) Run(ctx context.Context, commandFile string) error {
	if r.Binary == "" {
		return fmt.Errorf("no engine binary configured")
	}
	argv := append(append([]string{}, r.Args...), commandFile)
	cmd := exec.CommandContext(ctx, r.Binary, argv...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("engine run: %w", err)
	}
	return nil
}
