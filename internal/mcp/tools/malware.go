package tools

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// QueryMalwareInput is the input for threatfox_query_malware.
type QueryMalwareInput struct {
	Malware string `json:"malware" jsonschema:"Malware family, e.g. Cobalt Strike or win.emotet"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Max IOCs to return (default: 100, max: 1000)"`
	JQ      string `json:"jq,omitempty" jsonschema:"Optional jq expression applied to the whole response"`
}

// SearchMalwareFamiliesInput is the input for threatfox_search_malware_families.
type SearchMalwareFamiliesInput struct {
	Malware  string `json:"malware" jsonschema:"Malware name, label or alias to resolve"`
	Platform string `json:"platform,omitempty" jsonschema:"Restrict to a platform: win, osx, apk, jar or elf"`
	JQ       string `json:"jq,omitempty" jsonschema:"Optional jq expression applied to the whole response"`
}

// ToolQueryMalware retrieves IOCs for a malware family.
func ToolQueryMalware(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryMalwareInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryMalwareInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
		malware := strings.TrimSpace(input.Malware)
		if malware == "" {
			return nil, ResponseOutput{}, ErrInvalidInput("malware is required")
		}
		limit, err := d.Limit(input.Limit)
		if err != nil {
			return nil, ResponseOutput{}, err
		}
		if err := d.validateJQ(input.JQ); err != nil {
			return nil, ResponseOutput{}, err
		}

		resp, err := d.Client.QueryMalwareIOCs(ctx, malware, limit)
		if err != nil {
			return nil, ResponseOutput{}, WrapThreatFoxError(err)
		}
		out, err := d.buildOutput(resp, input.JQ)
		return nil, out, err
	}
}

// ToolSearchMalwareFamilies resolves a malware name to Malpedia labels.
func ToolSearchMalwareFamilies(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchMalwareFamiliesInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchMalwareFamiliesInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
		malware := strings.TrimSpace(input.Malware)
		if malware == "" {
			return nil, ResponseOutput{}, ErrInvalidInput("malware is required")
		}
		if !validPlatform(input.Platform) {
			return nil, ResponseOutput{}, ErrInvalidInput("platform must be one of win, osx, apk, jar, elf")
		}
		if err := d.validateJQ(input.JQ); err != nil {
			return nil, ResponseOutput{}, err
		}

		resp, err := d.Client.SearchMalwareFamilies(ctx, malware, input.Platform)
		if err != nil {
			return nil, ResponseOutput{}, WrapThreatFoxError(err)
		}
		out, err := d.buildOutput(resp, input.JQ)
		return nil, out, err
	}
}

// ToolMalwareList lists the malware families known to ThreatFox.
func ToolMalwareList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
		if err := d.validateJQ(input.JQ); err != nil {
			return nil, ResponseOutput{}, err
		}

		resp, err := d.Client.GetMalwareList(ctx)
		if err != nil {
			return nil, ResponseOutput{}, WrapThreatFoxError(err)
		}
		out, err := d.buildOutput(resp, input.JQ)
		return nil, out, err
	}
}
