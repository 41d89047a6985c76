package server

import (
	"github.com/stitchlabs/promptdash/internal/analytics"
	"github.com/stitchlabs/promptdash/internal/contextstore"
	"github.com/stitchlabs/promptdash/models"
)

// AnalyzeResponse is the response for POST /api/analyze.
// AnalysisID is 0 when the result could not be recorded.
type AnalyzeResponse struct {
	AnalysisID int64                 `json:"analysis_id"`
	Result     models.AnalysisResult `json:"result"`
}

// InteractionsResponse is the paginated response for /api/dashboard/interactions.
type InteractionsResponse struct {
	Interactions []analytics.InteractionRow `json:"interactions"`
	Total        int                        `json:"total"`
	Limit        int                        `json:"limit"`
	Offset       int                        `json:"offset"`
}

// contextProfile is the wire form of a project profile.
type contextProfile struct {
	Name        string `json:"name,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description,omitempty"`
}

func (p contextProfile) toStore() contextstore.Profile {
	return contextstore.Profile{
		Name:        p.Name,
		Domain:      p.Domain,
		Description: p.Description,
	}
}
