package prompts

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var hashRE = regexp.MustCompile(`^([0-9a-fA-F]{32}|[0-9a-fA-F]{64})$`)

// HandleInvestigateIOC implements the IOC investigation workflow.
func HandleInvestigateIOC(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		args := req.Params.Arguments

		ioc := strings.TrimSpace(args["ioc"])
		if ioc == "" {
			return nil, fmt.Errorf("argument ioc is required")
		}
		observed := strings.TrimSpace(args["context"])

		var sb strings.Builder

		sb.WriteString("# Investigate Indicator with ThreatFox\n\n")
		sb.WriteString("You are a threat intelligence analyst. Determine whether the indicator below is known to ThreatFox, ")
		sb.WriteString("which malware family it belongs to, and how confident the community is.\n\n")
		fmt.Fprintf(&sb, "**Indicator**: `%s`\n", ioc)
		if observed != "" {
			fmt.Fprintf(&sb, "**Observed**: %s\n", observed)
		}
		sb.WriteString("\n")

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **Look up the indicator**\n")
		if hashRE.MatchString(ioc) {
			fmt.Fprintf(&sb, "   - `threatfox_search_hash(hash: \"%s\")`\n", ioc)
		} else {
			fmt.Fprintf(&sb, "   - `threatfox_search_ioc(search_term: \"%s\")`\n", ioc)
			sb.WriteString("   - For IPs, try both the bare address and `IP:port` forms\n")
		}
		sb.WriteString("   - `query_status: no_result` means ThreatFox does not know it; say so and stop pivoting\n\n")
		sb.WriteString("2. **Read the matches**\n")
		sb.WriteString("   - Note `threat_type`, `malware_printable`, `confidence_level`, `first_seen`, `last_seen` and `tags`\n")
		sb.WriteString("   - Use `threatfox_get_ioc(id: ...)` for the reference and reporter of the strongest match\n\n")
		sb.WriteString("3. **Pivot**\n")
		sb.WriteString("   - `threatfox_query_malware(malware: \"<malware_printable>\", jq: \"[.data[] | {ioc, ioc_type, first_seen}]\")` for related infrastructure\n")
		sb.WriteString("   - `threatfox_query_tag(tag: \"<tag>\")` for campaigns sharing a tag\n")
		sb.WriteString("   - `threatfox_search_malware_families(malware: \"<name>\")` when the family name is ambiguous\n")
		if cfg != nil && cfg.MaxResultConstraint > 0 {
			fmt.Fprintf(&sb, "   - Result counts are capped at %d by the local configuration\n", cfg.MaxResultConstraint)
		}
		sb.WriteString("\n")

		sb.WriteString("## Report\n\n")
		sb.WriteString("- Verdict: known malicious, suspicious, or unknown\n")
		sb.WriteString("- Malware family and threat type, with confidence\n")
		sb.WriteString("- Related indicators worth blocking (keep the list short)\n")
		sb.WriteString("- ThreatFox IOC IDs so the findings can be reproduced\n")

		if cfg != nil && cfg.CanSubmit {
			sb.WriteString("\n## Submitting\n\n")
			sb.WriteString("If you have strong evidence the indicator is malicious and ThreatFox does not know it, ")
			sb.WriteString("propose a `threatfox_submit_iocs` call (check `threatfox_threat_types` first) and ask the user to confirm before submitting.\n")
		}

		return &sdkmcp.GetPromptResult{
			Description: "Guide for investigating an indicator with ThreatFox",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
