// Package prompts contains MCP prompt implementations for ThreatFox.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	CanSubmit           bool // an API key is configured
	MaxResultConstraint int  // 0 when unset
}
