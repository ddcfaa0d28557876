package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/shrule/internal/db"
	"github.com/hpungsan/shrule/internal/ruleset"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Workspace string // optional, empty lists every workspace
	Limit     int    // default: 20, max: 100
	Offset    int    // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []ruleset.Summary `json:"items"`
	Pagination Pagination        `json:"pagination"`
	Sort       string            `json:"sort"`
}

// List retrieves rule set summaries with pagination.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	workspace := ruleset.Normalize(input.Workspace)

	// Apply limit defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	offset := max(input.Offset, 0)

	summaries, total, err := db.ListRuleSets(ctx, database, workspace, limit, offset)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if summaries == nil {
		summaries = []ruleset.Summary{}
	}

	return &ListOutput{
		Items: summaries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(summaries) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
