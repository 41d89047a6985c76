package types

// AnalyzeRequest is the request payload for prompt analysis, shared by the
// HTTP API and the MCP tools.
type AnalyzeRequest struct {
	Prompt      string `json:"prompt" validate:"required,min=1"`
	Context     string `json:"context,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
	SourceAgent string `json:"source_agent,omitempty"`
	TargetAgent string `json:"target_agent,omitempty"`
}

// RewriteChoiceRequest records whether the user kept the rewritten prompt.
type RewriteChoiceRequest struct {
	AnalysisID  int64 `json:"analysis_id" validate:"required"`
	UsedRewrite bool  `json:"used_rewrite"`
}

// HistoryRequest is the MCP payload for retrieving past analyses.
type HistoryRequest struct {
	Limit     int    `json:"limit,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
}
