// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/tautline/taut/internal/adapters/server/common"
	"github.com/tautline/taut/internal/timeunit"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter over the scheduling service.
func NewHandler(cfg Config, scheduling common.SchedulingService) (*Handler, error) {
	if scheduling == nil {
		return nil, fmt.Errorf("scheduling service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerProjectTools(mcpSrv, scheduling)
	registerAnalysisTools(mcpSrv, scheduling)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "taut"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// timeUnitNames lists the accepted time_unit values for tool schemas.
func timeUnitNames() []string {
	units := timeunit.Units()
	names := make([]string, 0, len(units))
	for _, u := range units {
		names = append(names, u.String())
	}
	return names
}

// registerProjectTools registers project creation and activity tools.
func registerProjectTools(srv *mcpserver.MCPServer, scheduling common.SchedulingService) {
	srv.AddTool(
		mcp.NewTool(
			"taut.create_project",
			mcp.WithDescription("Create an empty project for schedule analysis."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Project name")),
			mcp.WithString("time_unit", mcp.Description("Display time unit (defaults to days)"), mcp.Enum(timeUnitNames()...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := scheduling.CreateProject(ctx, common.CreateProjectRequest{
				Name:     name,
				TimeUnit: req.GetString("time_unit", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode create_project result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taut.add_activity",
			mcp.WithDescription("Add one activity to a project. Provide either duration or all of optimistic, most_likely, pessimistic, in the project's time unit."),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
			mcp.WithString("id", mcp.Required(), mcp.Description("Activity identifier")),
			mcp.WithString("description", mcp.Description("Activity description")),
			mcp.WithNumber("optimistic", mcp.Description("Optimistic estimate")),
			mcp.WithNumber("most_likely", mcp.Description("Most likely estimate")),
			mcp.WithNumber("pessimistic", mcp.Description("Pessimistic estimate")),
			mcp.WithNumber("duration", mcp.Description("Single duration estimate")),
			mcp.WithArray("depends_on", mcp.Description("Activity ids this activity depends on"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				ProjectID   string   `json:"project_id"`
				ID          string   `json:"id"`
				Description string   `json:"description"`
				Optimistic  *float64 `json:"optimistic"`
				MostLikely  *float64 `json:"most_likely"`
				Pessimistic *float64 `json:"pessimistic"`
				Duration    *float64 `json:"duration"`
				DependsOn   []string `json:"depends_on"`
			}
			if err := req.BindArguments(&args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := scheduling.AddActivity(ctx, common.AddActivityRequest{
				ProjectID:   args.ProjectID,
				ID:          args.ID,
				Description: args.Description,
				Optimistic:  args.Optimistic,
				MostLikely:  args.MostLikely,
				Pessimistic: args.Pessimistic,
				Duration:    args.Duration,
				DependsOn:   args.DependsOn,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode add_activity result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taut.load_sample",
			mcp.WithDescription("Load the built-in sample project (four activities, days)."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := scheduling.LoadSample(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode load_sample result: %w", err)
			}
			return result, nil
		},
	)
}

// registerAnalysisTools registers schedule computation and statistics tools.
func registerAnalysisTools(srv *mcpserver.MCPServer, scheduling common.SchedulingService) {
	srv.AddTool(
		mcp.NewTool(
			"taut.run_analysis",
			mcp.WithDescription("Run the schedule analysis and return the computed schedule."),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := req.RequireString("project_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := scheduling.RunAnalysis(ctx, projectID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode run_analysis result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taut.critical_path",
			mcp.WithDescription("Return the zero-slack activities of an analyzed project."),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := req.RequireString("project_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := scheduling.CriticalPath(ctx, projectID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode critical_path result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taut.pert_statistics",
			mcp.WithDescription("Return the probabilistic schedule statistics, optionally against a target completion time."),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
			mcp.WithNumber("target", mcp.Description("Target completion time in the project's time unit")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := req.RequireString("project_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := scheduling.Statistics(ctx, common.StatisticsRequest{
				ProjectID: projectID,
				Target:    req.GetFloat("target", 0),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode pert_statistics result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest),
		errors.Is(err, common.ErrUnknownDependency),
		errors.Is(err, common.ErrCyclicDependency),
		errors.Is(err, common.ErrEmptyProject):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrDuplicateActivity), errors.Is(err, common.ErrAnalysisRequired):
		return mcp.NewToolResultError("conflict: " + err.Error())
	case errors.Is(err, common.ErrNotImplemented):
		return mcp.NewToolResultError("not_implemented: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
