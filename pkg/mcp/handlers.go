package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cascadia-geo/fuzzgraph/pkg/compiler"
	"github.com/cascadia-geo/fuzzgraph/pkg/engine"
	"github.com/cascadia-geo/fuzzgraph/pkg/model"
	"github.com/cascadia-geo/fuzzgraph/pkg/orchestrator"
	"github.com/mark3labs/mcp-go/mcp"
)

// silentMessenger collects warnings for the tool result instead of
// writing to the server process's stdio.
type silentMessenger struct {
	warnings []string
}

func (m *silentMessenger) Info(string)     {}
func (m *silentMessenger) Warn(msg string) { m.warnings = append(m.warnings, msg) }
func (m *silentMessenger) summary() string {
	if len(m.warnings) == 0 {
		return ""
	}
	return "\nwarnings:\n  " + strings.Join(m.warnings, "\n  ")
}

// HandleValidate implements the fuzzgraph/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	m, errs := model.ValidateFile(path)
	if hasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}
	return textResult(fmt.Sprintf("✓ %s is valid (%d nodes)", m.Meta.Name, len(m.Nodes))), nil
}

// HandleCompile implements the fuzzgraph/compile MCP tool.
func HandleCompile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	out, _ := args["out"].(string)
	if out == "" {
		out = defaultOut(path)
	}

	msg := &silentMessenger{}
	res, err := compiler.CompileFile(path, out, msg)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(fmt.Sprintf("✓ compiled %s → %s (%d outputs)%s",
		res.Model.Meta.Name, res.Program, len(res.Outputs), msg.summary())), nil
}

// HandleRun implements the fuzzgraph/run MCP tool. Dry run is the
// default: an agent gets the compiled program and output list without
// touching the engine, and opts into execution with dry_run=false.
func HandleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	dryRun := true
	if v, ok := args["dry_run"].(bool); ok {
		dryRun = v
	}

	msg := &silentMessenger{}
	res, err := compiler.CompileFile(path, defaultOut(path), msg)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if dryRun {
		return textResult(fmt.Sprintf("✓ dry run: compiled %s → %s (outputs: %s); pass dry_run=false to execute%s",
			res.Model.Meta.Name, res.Program, strings.Join(res.Outputs, ", "), msg.summary())), nil
	}

	binary, _ := args["engine"].(string)
	if binary == "" {
		binary = os.Getenv("FUZZGRAPH_ENGINE")
	}
	if binary == "" {
		return errorResult("no engine binary: pass 'engine' or set $FUZZGRAPH_ENGINE"), nil
	}

	orch, err := orchestrator.New(res.Source, res.Program, res.Outputs, engine.NewExecRunner(binary), msg)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	out, err := orch.Run(ctx)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(fmt.Sprintf("✓ run %s complete: %d rows, %d computed fields (artifacts: %s)%s",
		orch.RunID, out.NumRows(), len(res.Outputs), orch.BaseDir, msg.summary())), nil
}

// HandleSchema implements the fuzzgraph/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := model.GenerateJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func defaultOut(modelPath string) string {
	if i := strings.LastIndex(modelPath, "."); i > 0 {
		return modelPath[:i] + ".mpt"
	}
	return modelPath + ".mpt"
}

func hasErrors(errs []*model.ValidationError) bool {
	for _, e := range errs {
		if e.Severity != "warning" {
			return true
		}
	}
	return false
}

func formatErrors(errs []*model.ValidationError) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("validation failed: %d finding(s)\n", len(errs)))
	for i, e := range errs {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, e.Error()))
	}
	return b.String()
}

func textResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

func errorResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultError(text)
}
