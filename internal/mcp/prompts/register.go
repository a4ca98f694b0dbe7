package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "investigate_ioc",
		Description: "Investigate an indicator (IP:port, domain, URL or file hash) with ThreatFox: look it up, pivot to its malware family and tags, and summarize the findings.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "ioc",
				Description: "Indicator to investigate",
				Required:    true,
			},
			{
				Name:        "context",
				Description: "Where the indicator was observed (e.g. 'outbound connection from a build server')",
				Required:    false,
			},
		},
	}, HandleInvestigateIOC(cfg))
}
