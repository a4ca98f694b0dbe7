package tools

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// QueryTagInput is the input for threatfox_query_tag.
type QueryTagInput struct {
	Tag   string `json:"tag" jsonschema:"Tag to look up, e.g. Magecart"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max IOCs to return (default: 100, max: 1000)"`
	JQ    string `json:"jq,omitempty" jsonschema:"Optional jq expression applied to the whole response"`
}

// ToolQueryTag retrieves IOCs carrying a tag.
func ToolQueryTag(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryTagInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryTagInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
		tag := strings.TrimSpace(input.Tag)
		if tag == "" {
			return nil, ResponseOutput{}, ErrInvalidInput("tag is required")
		}
		limit, err := d.Limit(input.Limit)
		if err != nil {
			return nil, ResponseOutput{}, err
		}
		if err := d.validateJQ(input.JQ); err != nil {
			return nil, ResponseOutput{}, err
		}

		resp, err := d.Client.QueryTag(ctx, tag, limit)
		if err != nil {
			return nil, ResponseOutput{}, WrapThreatFoxError(err)
		}
		out, err := d.buildOutput(resp, input.JQ)
		return nil, out, err
	}
}

// ToolTagList lists the tags known to ThreatFox.
func ToolTagList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
		if err := d.validateJQ(input.JQ); err != nil {
			return nil, ResponseOutput{}, err
		}

		resp, err := d.Client.GetTagList(ctx)
		if err != nil {
			return nil, ResponseOutput{}, WrapThreatFoxError(err)
		}
		out, err := d.buildOutput(resp, input.JQ)
		return nil, out, err
	}
}
