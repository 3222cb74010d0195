// Package main provides the fuzzgraph-mcp binary, an MCP server for
// authoring canvases and agents.
package main

import (
	"fmt"
	"os"

	fmcp "github.com/cascadia-geo/fuzzgraph/pkg/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var version = "dev"

func main() {
	s := fmcp.NewServer(version)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
