package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/planforge/internal/domain/run"
)

const defaultListLimit = 20

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.listSolversTool(),
		s.planTool(),
		s.getRunTool(),
		s.listRunsTool(),
	)
}

func (s *Server) listSolversTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_solvers",
		mcplib.WithDescription("List the registered PDDL solvers and whether each is installed"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListSolvers}
}

func (s *Server) planTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("plan",
		mcplib.WithDescription("Solve a PDDL planning problem with one or more solvers and return one outcome per solver"),
		mcplib.WithString("domain",
			mcplib.Required(),
			mcplib.Description("PDDL domain description"),
		),
		mcplib.WithString("problem",
			mcplib.Required(),
			mcplib.Description("PDDL problem description"),
		),
		mcplib.WithString("action_extensions",
			mcplib.Description("Extra action definitions appended to the domain"),
		),
		mcplib.WithArray("solvers",
			mcplib.Description("Solver names in the order outcomes should be reported; defaults to the configured solver"),
			mcplib.Items(map[string]any{"type": "string"}),
		),
		mcplib.WithNumber("timeout_seconds",
			mcplib.Description("Per-solver time budget in seconds"),
		),
		mcplib.WithString("mode",
			mcplib.Description("Dispatch mode"),
			mcplib.Enum(string(run.ModeParallel), string(run.ModeSequential)),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handlePlan}
}

func (s *Server) getRunTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_run",
		mcplib.WithDescription("Get the report of a finished planning run by ID"),
		mcplib.WithString("run_id",
			mcplib.Required(),
			mcplib.Description("The run ID to look up"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetRun}
}

func (s *Server) listRunsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_runs",
		mcplib.WithDescription("List recent planning runs, newest first"),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum number of runs (default 20)"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListRuns}
}

func (s *Server) handleListSolvers(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Planner == nil {
		return mcplib.NewToolResultError("planner not configured"), nil
	}
	return toolResultJSON(s.deps.Planner.Solvers())
}

func (s *Server) handlePlan(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Planner == nil {
		return mcplib.NewToolResultError("planner not configured"), nil
	}
	args := req.GetArguments()

	solvers, err := stringSlice(args, "solvers")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	r := run.Request{
		Domain:           stringArg(args, "domain"),
		Problem:          stringArg(args, "problem"),
		ActionExtensions: stringArg(args, "action_extensions"),
		Solvers:          solvers,
		Mode:             run.Mode(stringArg(args, "mode")),
	}
	if secs, ok := args["timeout_seconds"].(float64); ok {
		if r.Timeout, err = run.TimeoutFromSeconds(secs); err != nil {
			return mcplib.NewToolResultErrorFromErr("plan request rejected", err), nil
		}
	}

	rep, err := s.deps.Planner.Run(ctx, r)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("plan request rejected", err), nil
	}
	return toolResultJSON(rep)
}

func (s *Server) handleGetRun(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Planner == nil {
		return mcplib.NewToolResultError("planner not configured"), nil
	}
	runID := stringArg(req.GetArguments(), "run_id")
	if runID == "" {
		return mcplib.NewToolResultError("run_id is required"), nil
	}
	rep, err := s.deps.Planner.GetReport(ctx, runID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get run %s", runID), err), nil
	}
	return toolResultJSON(rep)
}

func (s *Server) handleListRuns(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Planner == nil {
		return mcplib.NewToolResultError("planner not configured"), nil
	}
	limit := defaultListLimit
	if n, ok := req.GetArguments()["limit"].(float64); ok && n >= 1 {
		limit = int(n)
	}
	sums, err := s.deps.Planner.ListReports(ctx, limit)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list runs", err), nil
	}
	return toolResultJSON(sums)
}

// toolResultJSON marshals v into a text result.
func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// stringSlice reads an optional array of strings.
func stringSlice(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", key, i)
			}
			out[i] = str
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s must be an array of strings", key)
}
