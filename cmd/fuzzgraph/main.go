package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cascadia-geo/fuzzgraph/pkg/compiler"
	"github.com/cascadia-geo/fuzzgraph/pkg/dataset"
	"github.com/cascadia-geo/fuzzgraph/pkg/engine"
	"github.com/cascadia-geo/fuzzgraph/pkg/model"
	"github.com/cascadia-geo/fuzzgraph/pkg/orchestrator"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fuzzgraph",
	Short: "Fuzzy-logic model compiler and run orchestrator",
	Long:  "fuzzgraph compiles authored fuzzy-logic model graphs into engine command files and orchestrates full model runs against tabular snapshots.",
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [model.yaml]",
	Short: "Validate a model YAML file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	m, errs := model.ValidateFile(args[0])
	if len(errs) > 0 {
		var errors, warnings []*model.ValidationError
		for _, e := range errs {
			if e.Severity == "warning" {
				warnings = append(warnings, e)
			} else {
				errors = append(errors, e)
			}
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", w.Phase, w.Message)
			if w.Path != "" {
				fmt.Fprintf(os.Stderr, "    at: %s\n", w.Path)
			}
		}
		if len(errors) > 0 {
			fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", len(errors))
			for i, e := range errors {
				fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
				if e.Path != "" {
					fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
				}
			}
			return fmt.Errorf("validation failed with %d error(s)", len(errors))
		}
	}
	fmt.Printf("✓ %s is valid (%d nodes)\n", m.Meta.Name, len(m.Nodes))
	return nil
}

// --- compile ---

var compileOut string

var compileCmd = &cobra.Command{
	Use:   "compile [model.yaml]",
	Short: "Compile a model into an engine command file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	out := compileOut
	if out == "" {
		out = withExt(args[0], ".mpt")
	}
	res, err := compiler.CompileFile(args[0], out, dataset.ConsoleMessenger{})
	if err != nil {
		return err
	}
	fmt.Printf("✓ compiled %s → %s (%d outputs)\n", res.Model.Meta.Name, res.Program, len(res.Outputs))
	return nil
}

// --- run ---

var runEngine string

var runCmd = &cobra.Command{
	Use:   "run [model.yaml]",
	Short: "Compile and run a model through the external engine",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	binary := runEngine
	if binary == "" {
		binary = os.Getenv("FUZZGRAPH_ENGINE")
	}
	if binary == "" {
		return fmt.Errorf("no engine binary: pass --engine or set $FUZZGRAPH_ENGINE")
	}

	msg := dataset.ConsoleMessenger{}
	res, err := compiler.CompileFile(args[0], withExt(args[0], ".mpt"), msg)
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(res.Source, res.Program, res.Outputs, engine.NewExecRunner(binary), msg)
	if err != nil {
		return err
	}
	out, err := orch.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("✓ run %s complete: %d rows, %d computed fields\n", orch.RunID, out.NumRows(), len(res.Outputs))
	return nil
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Export the model JSON Schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := model.GenerateJSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fuzzgraph %s (%s)\n", version, commit)
	},
}

func withExt(path, ext string) string {
	if i := strings.LastIndex(path, "."); i > 0 {
		return path[:i] + ext
	}
	return path + ext
}

func init() {
	compileCmd.Flags().StringVar(&compileOut, "out", "", "command file output path")
	runCmd.Flags().StringVar(&runEngine, "engine", "", "engine binary to execute the program with")
	rootCmd.AddCommand(validateCmd, compileCmd, runCmd, schemaCmd, versionCmd)
}
