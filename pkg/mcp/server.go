// Package mcp exposes the compiler and orchestrator to the hosting
// authoring canvas (or any MCP-speaking agent) as tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with fuzzgraph tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"fuzzgraph",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("fuzzgraph/validate",
			mcp.WithDescription("Validate a fuzzgraph model YAML file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the model YAML file")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("fuzzgraph/compile",
			mcp.WithDescription("Compile a fuzzgraph model into an engine command file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the model YAML file")),
			mcp.WithString("out", mcp.Description("Command file output path (default: model path with .mpt extension)")),
		),
		HandleCompile,
	)

	s.AddTool(
		mcp.NewTool("fuzzgraph/run",
			mcp.WithDescription("Compile a fuzzgraph model and, unless dry_run, execute it through the external engine"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the model YAML file")),
			mcp.WithBoolean("dry_run", mcp.DefaultBool(true), mcp.Description("Stop after compiling; report the program and outputs without executing")),
			mcp.WithString("engine", mcp.Description("Engine binary (default: $FUZZGRAPH_ENGINE)")),
		),
		HandleRun,
	)

	s.AddTool(
		mcp.NewTool("fuzzgraph/schema",
			mcp.WithDescription("Export the fuzzgraph model JSON Schema"),
		),
		HandleSchema,
	)

	return s
}
