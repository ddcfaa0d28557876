package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mitchellh/mapstructure"
)

// decode maps MCP request arguments onto a typed request using its json tags.
// JSON numbers arrive as float64 and are narrowed to the target field type.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &result,
		ErrorUnused: true,
	})
	if err != nil {
		return result, fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(req.GetArguments()); err != nil {
		return result, fmt.Errorf("invalid arguments: %w", err)
	}
	return result, nil
}
