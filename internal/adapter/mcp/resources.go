package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const (
	resourceSolvers = "planforge://solvers"
	resourceRuns    = "planforge://runs"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			resourceSolvers,
			"Solvers",
			mcplib.WithResourceDescription("Registered solvers and their availability"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleSolversResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			resourceRuns,
			"Recent Runs",
			mcplib.WithResourceDescription("Summaries of recent planning runs"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleRunsResource,
	)
}

func (s *Server) handleSolversResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Planner == nil {
		return notConfigured(req.Params.URI), nil
	}
	return jsonContents(req.Params.URI, s.deps.Planner.Solvers())
}

func (s *Server) handleRunsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Planner == nil {
		return notConfigured(req.Params.URI), nil
	}
	sums, err := s.deps.Planner.ListReports(ctx, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, sums)
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
	}, nil
}

func notConfigured(uri string) []mcplib.ResourceContents {
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{URI: uri, MIMEType: "application/json", Text: `{"error":"planner not configured"}`},
	}
}
