package tools

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/threatfox/pkg/client"
)

// SubmitIOCsInput is the input for threatfox_submit_iocs.
type SubmitIOCsInput struct {
	ThreatType      string   `json:"threat_type" jsonschema:"Threat type, see threatfox_threat_types (e.g. botnet_cc, payload_delivery)"`
	IOCType         string   `json:"ioc_type" jsonschema:"IOC type, see threatfox_threat_types (e.g. ip:port, domain, url, md5_hash)"`
	Malware         string   `json:"malware" jsonschema:"Malpedia malware name, e.g. win.emotet"`
	IOCs            []string `json:"iocs" jsonschema:"IOC values of ioc_type"`
	ConfidenceLevel *int     `json:"confidence_level,omitempty" jsonschema:"Confidence 0-100 (default: 50)"`
	Reference       string   `json:"reference,omitempty" jsonschema:"Reference URL"`
	Comment         string   `json:"comment,omitempty" jsonschema:"Comment for the submission"`
	Anonymous       bool     `json:"anonymous,omitempty" jsonschema:"Submit anonymously (default: false)"`
	Tags            []string `json:"tags,omitempty" jsonschema:"Tags to attach"`
}

// ToolSubmitIOCs submits IOCs to ThreatFox. Per-IOC outcomes (ok, duplicated,
// ignored) are returned in data.
func ToolSubmitIOCs(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SubmitIOCsInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SubmitIOCsInput) (*sdkmcp.CallToolResult, ResponseOutput, error) {
		switch {
		case strings.TrimSpace(input.ThreatType) == "":
			return nil, ResponseOutput{}, ErrInvalidInput("threat_type is required")
		case strings.TrimSpace(input.IOCType) == "":
			return nil, ResponseOutput{}, ErrInvalidInput("ioc_type is required")
		case strings.TrimSpace(input.Malware) == "":
			return nil, ResponseOutput{}, ErrInvalidInput("malware is required")
		case len(input.IOCs) == 0:
			return nil, ResponseOutput{}, ErrInvalidInput("at least one ioc is required")
		}
		if c := input.ConfidenceLevel; c != nil && (*c < 0 || *c > 100) {
			return nil, ResponseOutput{}, ErrInvalidInput("confidence_level must be between 0 and 100")
		}

		resp, err := d.Client.SubmitIOCs(ctx, client.SubmitRequest{
			ThreatType:      input.ThreatType,
			IOCType:         input.IOCType,
			Malware:         input.Malware,
			IOCs:            input.IOCs,
			ConfidenceLevel: input.ConfidenceLevel,
			Reference:       input.Reference,
			Comment:         input.Comment,
			Anonymous:       input.Anonymous,
			Tags:            input.Tags,
		})
		if err != nil {
			return nil, ResponseOutput{}, WrapThreatFoxError(err)
		}
		out, err := d.buildOutput(resp, "")
		return nil, out, err
	}
}
