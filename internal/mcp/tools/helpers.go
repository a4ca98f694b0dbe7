// Package tools contains MCP tool implementations for ThreatFox.
package tools

import (
	"regexp"
	"slices"

	"github.com/usestring/threatfox/internal/query"
	"github.com/usestring/threatfox/pkg/client"
)

// ResponseOutput is the output of every ThreatFox tool.
type ResponseOutput struct {
	QueryStatus string   `json:"query_status" jsonschema:"ThreatFox query status, e.g. ok or no_result"`
	Count       int      `json:"count" jsonschema:"Number of entries when data is a list"`
	Data        any      `json:"data,omitempty" jsonschema:"The data member of the ThreatFox response (omitted when jq is set)"`
	Values      []any    `json:"values,omitzero" jsonschema:"Values produced by the jq expression"`
	Errors      []string `json:"errors,omitzero" jsonschema:"jq runtime errors"`
}

// hashPattern matches MD5 and SHA256 hex digests.
var hashPattern = regexp.MustCompile(`^([0-9a-fA-F]{32}|[0-9a-fA-F]{64})$`)

// buildOutput converts a response into tool output, applying expr when set.
func (d *Deps) buildOutput(resp client.Response, expr string) (ResponseOutput, error) {
	out := ResponseOutput{
		QueryStatus: resp.QueryStatus(),
		Count:       len(resp.DataList()),
	}
	if expr == "" {
		out.Data = resp.Data()
		return out, nil
	}

	engine := d.Query
	if engine == nil {
		engine = query.NewEngine()
	}
	res, err := engine.Apply(resp, expr, query.Options{KeepNulls: true})
	if err != nil {
		return ResponseOutput{}, ErrInvalidInput(err.Error())
	}
	out.Values = res.Values
	out.Errors = res.Errors
	return out, nil
}

// validateJQ rejects an invalid expression before any request is sent.
func (d *Deps) validateJQ(expr string) error {
	if expr == "" {
		return nil
	}
	engine := d.Query
	if engine == nil {
		engine = query.NewEngine()
	}
	if err := engine.ValidateExpression(expr); err != nil {
		return ErrInvalidInput(err.Error())
	}
	return nil
}

func validPlatform(p string) bool {
	return p == "" || slices.Contains(client.Platforms, p)
}
