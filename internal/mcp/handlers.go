package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/errors"
	"github.com/hpungsan/shrule/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
	log *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{db: db, cfg: cfg, log: log}
}

// Request types for each tool

// TokenizeRequest represents the arguments for rule_tokenize.
type TokenizeRequest struct {
	Command string `json:"command"`
}

// RewriteRequest represents the arguments for rule_rewrite.
type RewriteRequest struct {
	Command    string   `json:"command"`
	WorkingDir string   `json:"working_dir"`
	Reads      []string `json:"reads,omitempty"`
	Writes     []string `json:"writes,omitempty"`
	Name       string   `json:"name,omitempty"`
}

// ConvertRequest represents the arguments for rule_convert.
type ConvertRequest struct {
	Stream           string  `json:"stream"`
	RFilesOutsideCwd *bool   `json:"rfiles_outside_cwd,omitempty"`
	WFilesOutsideCwd *bool   `json:"wfiles_outside_cwd,omitempty"`
	RulePrefix       string  `json:"rule_prefix,omitempty"`
	Save             bool    `json:"save,omitempty"`
	Workspace        string  `json:"workspace,omitempty"`
	Title            *string `json:"title,omitempty"`
}

// ListRequest represents the arguments for ruleset_list.
type ListRequest struct {
	Workspace string `json:"workspace,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// FetchRequest represents the arguments for ruleset_fetch.
type FetchRequest struct {
	ID               string `json:"id"`
	IncludeSnakefile *bool  `json:"include_snakefile,omitempty"`
}

// ExportRequest represents the arguments for ruleset_export.
type ExportRequest struct {
	ID   string `json:"id"`
	Path string `json:"path,omitempty"`
}

// DeleteRequest represents the arguments for ruleset_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// Handler implementations

// HandleTokenize handles the rule_tokenize tool call.
func (h *Handlers) HandleTokenize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TokenizeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Tokenize(h.cfg, ops.TokenizeInput{Command: input.Command})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRewrite handles the rule_rewrite tool call.
func (h *Handlers) HandleRewrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RewriteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Rewrite(h.cfg, h.log, ops.RewriteInput{
		Command:    input.Command,
		WorkingDir: input.WorkingDir,
		Reads:      input.Reads,
		Writes:     input.Writes,
		Name:       input.Name,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleConvert handles the rule_convert tool call.
func (h *Handlers) HandleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ConvertRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Stream) == "" {
		return errorResult(errors.NewInvalidRequest("stream is required")), nil
	}

	result, err := ops.Convert(ctx, h.db, h.cfg, h.log, ops.ConvertInput{
		Input:                strings.NewReader(input.Stream),
		KeepReadsOutsideCwd:  input.RFilesOutsideCwd,
		KeepWritesOutsideCwd: input.WFilesOutsideCwd,
		RulePrefix:           input.RulePrefix,
		Save:                 input.Save,
		Workspace:            input.Workspace,
		Title:                input.Title,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the ruleset_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Workspace: input.Workspace,
		Limit:     input.Limit,
		Offset:    input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the ruleset_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, h.cfg, ops.FetchInput{
		ID:               input.ID,
		IncludeSnakefile: input.IncludeSnakefile,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the ruleset_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		ID:   input.ID,
		Path: input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the ruleset_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var sErr *errors.ShruleError
	if stderrors.As(err, &sErr) {
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": errorMessage(err, sErr),
			"status":  sErr.Status,
		}
		if sErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// errorMessage keeps wrapper context such as "rules[2]: " in front of the message.
func errorMessage(err error, sErr *errors.ShruleError) string {
	if err == error(sErr) {
		return sErr.Message
	}
	return strings.TrimSuffix(err.Error(), sErr.Error()) + sErr.Message
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
