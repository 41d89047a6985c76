// Package mcp exposes the prompt analysis pipeline as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stitchlabs/promptdash/internal/analytics"
	"github.com/stitchlabs/promptdash/internal/analyzer"
	"github.com/stitchlabs/promptdash/models"
	"github.com/stitchlabs/promptdash/types"
)

// AnalysisService abstracts the analyzer so tools can be tested with a fake.
type AnalysisService interface {
	Analyze(ctx context.Context, req analyzer.Request) (models.AnalysisResult, error)
}

// Deps bundles the services the MCP tools operate on.
type Deps struct {
	Analyzer  AnalysisService
	Analytics *analytics.Store
}

// AnalyzeResponse is the structured result of the analyze-prompt tool.
type AnalyzeResponse struct {
	AnalysisID int64                 `json:"analysis_id"`
	Result     models.AnalysisResult `json:"result"`
}

// HistoryResponse is the structured result of the get-analysis-history tool.
type HistoryResponse struct {
	Analyses []analytics.InteractionRow `json:"analyses"`
	Count    int                        `json:"count"`
}

const analyzeToolDescription = "Analyze a prompt for quality. Scores 5 dimensions (clarity, token efficiency, goal alignment, structure, vagueness index), identifies common mistakes, and returns an improved rewrite. Args: prompt (required), context, project_id, source_agent, target_agent."

// RegisterTools registers the prompt analysis tools on the MCP server.
func RegisterTools(server *mcpsdk.Server, deps Deps) error {
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "analyze-prompt",
		Description: analyzeToolDescription,
	}, analyzePromptHandler(deps))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "get-analysis-history",
		Description: "Retrieve recent prompt analyses. Args: limit (default 10, max 50), project_id to filter by project.",
	}, analysisHistoryHandler(deps))

	return nil
}

func analyzePromptHandler(deps Deps) mcpsdk.ToolHandlerFor[types.AnalyzeRequest, AnalyzeResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[types.AnalyzeRequest]) (*mcpsdk.CallToolResultFor[AnalyzeResponse], error) {
		args := params.Arguments

		if strings.TrimSpace(args.Prompt) == "" {
			return nil, types.NewMCPError("MISSING_PROMPT", "A prompt to analyze is required", map[string]interface{}{
				"field": "prompt",
			})
		}

		result, err := deps.Analyzer.Analyze(ctx, analyzer.Request{
			Prompt:      args.Prompt,
			Context:     args.Context,
			ProjectID:   args.ProjectID,
			SourceAgent: args.SourceAgent,
			TargetAgent: args.TargetAgent,
		})
		if err != nil {
			return nil, types.NewMCPError("ANALYSIS_FAILED", fmt.Sprintf("Analysis failed: %s", err.Error()), nil)
		}

		var id int64
		if deps.Analytics != nil {
			if storedID, err := deps.Analytics.StoreResult(result); err == nil {
				id = storedID
			}
		}

		summary := fmt.Sprintf("Prompt scored %d/100. %d mistake(s) found, token savings %.1f%%.",
			result.OverallScore, len(result.Mistakes), result.TokenComparison.SavingsPercent)

		return &mcpsdk.CallToolResultFor[AnalyzeResponse]{
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{
					Text: summary,
				},
			},
			StructuredContent: AnalyzeResponse{
				AnalysisID: id,
				Result:     result,
			},
			IsError: false,
		}, nil
	}
}

func analysisHistoryHandler(deps Deps) mcpsdk.ToolHandlerFor[types.HistoryRequest, HistoryResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[types.HistoryRequest]) (*mcpsdk.CallToolResultFor[HistoryResponse], error) {
		args := params.Arguments

		limit := args.Limit
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		if deps.Analytics == nil {
			return nil, types.NewMCPError("STORE_UNAVAILABLE", "Analytics store is not configured", nil)
		}

		rows, err := deps.Analytics.Interactions(limit, 0, args.ProjectID)
		if err != nil {
			return nil, types.NewMCPError("QUERY_FAILED", fmt.Sprintf("Failed to load history: %s", err.Error()), nil)
		}

		return &mcpsdk.CallToolResultFor[HistoryResponse]{
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{
					Text: fmt.Sprintf("Found %d analyses", len(rows)),
				},
			},
			StructuredContent: HistoryResponse{
				Analyses: rows,
				Count:    len(rows),
			},
			IsError: false,
		}, nil
	}
}
