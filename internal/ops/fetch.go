package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/db"
	"github.com/hpungsan/shrule/internal/ruleset"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID               string
	IncludeSnakefile *bool // default: true (nil means default)
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	ruleset.RuleSet        // embedded (copy, not pointer)
	Snakefile       string `json:"snakefile,omitempty"`
}

// Fetch retrieves a rule set by ID and renders it with the configured printer.
func Fetch(ctx context.Context, database *sql.DB, cfg *config.Config, input FetchInput) (*FetchOutput, error) {
	id, err := ValidateID(input.ID)
	if err != nil {
		return nil, err
	}

	rs, err := db.GetRuleSet(ctx, database, id)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{RuleSet: *rs}
	if input.IncludeSnakefile == nil || *input.IncludeSnakefile {
		output.Snakefile = Printer(cfg).Snakefile(rs.ToRules())
	}
	return output, nil
}
