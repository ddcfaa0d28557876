package ops

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/db"
	"github.com/hpungsan/shrule/internal/errors"
	"github.com/hpungsan/shrule/internal/journal"
	"github.com/hpungsan/shrule/internal/rule"
	"github.com/hpungsan/shrule/internal/ruleset"
)

// ConvertInput contains parameters for the Convert operation.
type ConvertInput struct {
	Input io.Reader // required, shournal JSON output

	// Overrides for the corresponding config settings (nil means use config).
	KeepReadsOutsideCwd  *bool
	KeepWritesOutsideCwd *bool
	RulePrefix           string

	Save      bool    // store the result as a rule set
	Workspace string  // default: "default", only used with Save
	Title     *string // optional, only used with Save
}

// ConvertOutput contains the result of the Convert operation.
type ConvertOutput struct {
	ID         string          `json:"id,omitempty"` // set when saved
	WorkingDir string          `json:"working_dir"`
	Commands   int             `json:"commands"` // commands read from the stream
	Rules      []ruleset.Entry `json:"rules"`
	Snakefile  string          `json:"snakefile"`
}

// Convert turns a shournal stream into Snakemake rules, one per accepted command.
func Convert(ctx context.Context, database *sql.DB, cfg *config.Config, log *zap.Logger, input ConvertInput) (*ConvertOutput, error) {
	if input.Input == nil {
		return nil, errors.NewInvalidRequest("input is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log = nopIfNil(log)

	stream, err := journal.Decode(input.Input)
	if err != nil {
		return nil, err
	}

	loader := journal.NewLoader(log)
	loader.KeepReadsOutsideCwd = cfg.KeepReadsOutsideCwd()
	loader.KeepWritesOutsideCwd = cfg.KeepWritesOutsideCwd()
	if input.KeepReadsOutsideCwd != nil {
		loader.KeepReadsOutsideCwd = *input.KeepReadsOutsideCwd
	}
	if input.KeepWritesOutsideCwd != nil {
		loader.KeepWritesOutsideCwd = *input.KeepWritesOutsideCwd
	}
	for _, cmd := range stream.Commands {
		loader.Add(cmd)
	}

	prefix := strings.TrimSpace(input.RulePrefix)
	if prefix == "" {
		prefix = cfg.RulePrefix
	}
	opts := ruleOptions(cfg, log)

	rules := make([]*rule.Rule, 0, len(loader.Commands()))
	for i, cmd := range loader.Commands() {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("convert")
		default:
		}

		r, err := rule.New(fmt.Sprintf("%s_%d", prefix, i+1), cmd, opts)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	output := &ConvertOutput{
		WorkingDir: loader.WorkingDir,
		Commands:   len(stream.Commands),
		Rules:      ruleset.FromRules(rules),
		Snakefile:  Printer(cfg).Snakefile(rules),
	}

	if !input.Save {
		return output, nil
	}
	if database == nil {
		return nil, errors.NewInternal(fmt.Errorf("save requested without a database"))
	}
	if len(rules) == 0 {
		return nil, errors.NewInvalidRequest("nothing to save: no command produced a rule")
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	workspace := input.Workspace
	if strings.TrimSpace(workspace) == "" {
		workspace = "default"
	}
	rs := &ruleset.RuleSet{
		ID:            id,
		WorkspaceRaw:  workspace,
		WorkspaceNorm: ruleset.NormalizeWorkspace(workspace),
		Title:         cleanOptionalString(input.Title),
		WorkingDir:    loader.WorkingDir,
		Rules:         output.Rules,
		CreatedAt:     time.Now().Unix(),
	}
	if err := db.InsertRuleSet(ctx, database, rs); err != nil {
		return nil, err
	}
	log.Info("stored rule set", zap.String("id", id), zap.Int("rules", len(rules)))

	output.ID = id
	return output, nil
}

// cleanOptionalString trims s and maps blank to nil.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
