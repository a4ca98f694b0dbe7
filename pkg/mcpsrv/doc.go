// Package mcpsrv provides an extensible MCP server for ThreatFox.
//
// This package exposes a high-level API for creating and running an MCP server
// with all builtin ThreatFox tools and prompts. Users can extend the server
// with custom tools and prompts using functional options.
//
// # Basic Usage
//
// Create a server with default configuration:
//
//	c, err := client.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	server, err := mcpsrv.NewServer(c)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	server.Run(ctx)
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	type MyInput struct {
//	    Malware string `json:"malware"`
//	}
//
//	type MyOutput struct {
//	    Count int `json:"count"`
//	}
//
//	func myHandler(d *mcpsrv.Deps) func(ctx context.Context, req *mcp.CallToolRequest, input MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	    return func(ctx context.Context, req *mcp.CallToolRequest, input MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	        resp, err := d.Client.QueryMalwareIOCs(ctx, input.Malware, 100)
//	        if err != nil {
//	            return nil, MyOutput{}, err
//	        }
//	        return nil, MyOutput{Count: len(resp.DataList())}, nil
//	    }
//	}
//
//	server, err := mcpsrv.NewServer(
//	    c,
//	    mcpsrv.WithDepsTool(&mcp.Tool{Name: "my_tool", Description: "My tool"}, myHandler),
//	)
//
// # Metrics
//
// When the client was opened with [client.WithMetrics], pass the same registry
// to [WithMetrics] to serve it on /metrics while the server runs:
//
//	reg := prometheus.NewRegistry()
//	c, _ := client.Open(client.WithMetrics(reg))
//	server, _ := mcpsrv.NewServer(c, mcpsrv.WithMetrics(":9464", reg))
package mcpsrv
