package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/hpungsan/shrule/internal/errors"
	"github.com/hpungsan/shrule/internal/ruleset"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertRuleSet stores a rule set and its rules in one transaction.
func InsertRuleSet(ctx context.Context, database *sql.DB, rs *ruleset.RuleSet) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rulesets (
			id, workspace_raw, workspace_norm, title, working_dir, rule_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rs.ID, rs.WorkspaceRaw, rs.WorkspaceNorm, toNullString(rs.Title), rs.WorkingDir, len(rs.Rules), rs.CreatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}

	for i, e := range rs.Rules {
		if err := insertEntry(ctx, tx, rs.ID, i, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func insertEntry(ctx context.Context, q Querier, id string, position int, e ruleset.Entry) error {
	inputs, err := json.Marshal(e.Inputs)
	if err != nil {
		return errors.NewInternal(err)
	}
	outputs, err := json.Marshal(e.Outputs)
	if err != nil {
		return errors.NewInternal(err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO rules (
			ruleset_id, position, name, raw, shell, inputs_json, outputs_json, opaque
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, position, e.Name, e.Raw, e.Shell, string(inputs), string(outputs), e.Opaque)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetRuleSet retrieves a rule set with its rules by ULID.
func GetRuleSet(ctx context.Context, q Querier, id string) (*ruleset.RuleSet, error) {
	var (
		rs    ruleset.RuleSet
		title sql.NullString
		count int
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, workspace_raw, workspace_norm, title, working_dir, rule_count, created_at
		FROM rulesets
		WHERE id = ?
	`, id).Scan(&rs.ID, &rs.WorkspaceRaw, &rs.WorkspaceNorm, &title, &rs.WorkingDir, &count, &rs.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	rs.Title = fromNullString(title)

	rows, err := q.QueryContext(ctx, `
		SELECT name, raw, shell, inputs_json, outputs_json, opaque
		FROM rules
		WHERE ruleset_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	rs.Rules = make([]ruleset.Entry, 0, count)
	for rows.Next() {
		var (
			e               ruleset.Entry
			inputs, outputs string
		)
		if err := rows.Scan(&e.Name, &e.Raw, &e.Shell, &inputs, &outputs, &e.Opaque); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := json.Unmarshal([]byte(inputs), &e.Inputs); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := json.Unmarshal([]byte(outputs), &e.Outputs); err != nil {
			return nil, errors.NewInternal(err)
		}
		rs.Rules = append(rs.Rules, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &rs, nil
}

// ListRuleSets returns summaries for a normalized workspace, newest first, and the
// total count. An empty workspace lists all workspaces.
func ListRuleSets(ctx context.Context, q Querier, workspaceNorm string, limit, offset int) ([]ruleset.Summary, int, error) {
	where := ""
	args := []any{}
	if workspaceNorm != "" {
		where = "WHERE workspace_norm = ?"
		args = append(args, workspaceNorm)
	}

	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM rulesets "+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, workspace_raw, workspace_norm, title, working_dir, rule_count, created_at
		FROM rulesets `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var summaries []ruleset.Summary
	for rows.Next() {
		var (
			s     ruleset.Summary
			title sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Workspace, &s.WorkspaceNorm, &title, &s.WorkingDir, &s.RuleCount, &s.CreatedAt); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		s.Title = fromNullString(title)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return summaries, total, nil
}

// DeleteRuleSet removes a rule set and its rules.
func DeleteRuleSet(ctx context.Context, database *sql.DB, id string) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM rules WHERE ruleset_id = ?", id); err != nil {
		return errors.NewInternal(err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM rulesets WHERE id = ?", id)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
