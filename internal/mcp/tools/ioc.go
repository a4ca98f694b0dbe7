package tools

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/threatfox/pkg/client"
)

// GetIOCsInput is the input for threatfox_get_iocs.
type GetIOCsInput struct {
	Days int    `json:"days,omitempty" jsonschema:"Only IOCs first seen within this many days (1-90, default: API default of 3)"`
	JQ   string `json:"jq,omitempty" jsonschema:"Optional jq expression applied to the whole response, e.g. [.data[].ioc]"`
}

// GetIOCInput is the input for threatfox_get_ioc.
type GetIOCInput struct {
	ID int64  `json:"id" jsonschema:"ThreatFox IOC ID"`
	JQ string `json:"jq,omitempty" jsonschema:"Optional jq expression applied to the whole response"`
}

// SearchIOCInput is the input for threatfox_search_ioc.
type SearchIOCInput struct {
	SearchTerm string `json:"search_term" jsonschema:"IOC to search for: IP:port, domain or URL"`
	JQ         string `json:"jq,omitempty" jsonschema:"Optional jq expression applied to the whole response"`
}

// SearchHashInput is the input for threatfox_search_hash.
type SearchHashInput struct {
	Hash string `json:"hash" jsonschema:"MD5 or SHA256 hash of a malware sample"`
	JQ   string `json:"jq,omitempty" jsonschema:"Optional jq expression applied to the whole response"`
}

// ListInput is the input for the parameterless list tools.
type ListInput struct {
	JQ string `json:"jq,omitempty" jsonschema:"Optional jq expression applied to the whole response"`
}

// ToolGetIOCs retrieves recent IOCs.
func ToolGetIOCs(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetIOCsInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetIOCsInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
		if input.Days != 0 && (input.Days < client.MinDays || input.Days > client.MaxDays) {
			return nil, ResponseOutput{}, ErrInvalidInput("days must be between 1 and 90")
		}
		if err := d.validateJQ(input.JQ); err != nil {
			return nil, ResponseOutput{}, err
		}

		resp, err := d.Client.GetIOCs(ctx, input.Days)
		if err != nil {
			return nil, ResponseOutput{}, WrapThreatFoxError(err)
		}
		out, err := d.buildOutput(resp, input.JQ)
		return nil, out, err
	}
}

// ToolGetIOC retrieves one IOC by ID.
func ToolGetIOC(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetIOCInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetIOCInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
		if input.ID <= 0 {
			return nil, ResponseOutput{}, ErrInvalidInput("id must be a positive ThreatFox IOC ID")
		}
		if err := d.validateJQ(input.JQ); err != nil {
			return nil, ResponseOutput{}, err
		}

		resp, err := d.Client.GetIOCByID(ctx, input.ID)
		if err != nil {
			return nil, ResponseOutput{}, WrapThreatFoxError(err)
		}
		out, err := d.buildOutput(resp, input.JQ)
		return nil, out, err
	}
}

// ToolSearchIOC searches IOCs by value.
func ToolSearchIOC(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchIOCInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchIOCInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
		term := strings.TrimSpace(input.SearchTerm)
		if term == "" {
			return nil, ResponseOutput{}, ErrInvalidInput("search_term is required")
		}
		if err := d.validateJQ(input.JQ); err != nil {
			return nil, ResponseOutput{}, err
		}

		resp, err := d.Client.SearchIOC(ctx, term)
		if err != nil {
			return nil, ResponseOutput{}, WrapThreatFoxError(err)
		}
		out, err := d.buildOutput(resp, input.JQ)
		return nil, out, err
	}
}

// ToolSearchHash searches IOCs by file hash.
func ToolSearchHash(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchHashInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchHashInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
		hash := strings.TrimSpace(input.Hash)
		if !hashPattern.MatchString(hash) {
			return nil, ResponseOutput{}, ErrInvalidInput("hash must be an MD5 or SHA256 hex digest")
		}
		if err := d.validateJQ(input.JQ); err != nil {
			return nil, ResponseOutput{}, err
		}

		resp, err := d.Client.SearchHash(ctx, hash)
		if err != nil {
			return nil, ResponseOutput{}, WrapThreatFoxError(err)
		}
		out, err := d.buildOutput(resp, input.JQ)
		return nil, out, err
	}
}

// ToolThreatTypes lists the supported IOC and threat types.
func ToolThreatTypes(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
		if err := d.validateJQ(input.JQ); err != nil {
			return nil, ResponseOutput{}, err
		}

		resp, err := d.Client.GetIOCThreatTypes(ctx)
		if err != nil {
			return nil, ResponseOutput{}, WrapThreatFoxError(err)
		}
		out, err := d.buildOutput(resp, input.JQ)
		return nil, out, err
	}
}
