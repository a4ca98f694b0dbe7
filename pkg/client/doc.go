// Package client provides a Go SDK for the abuse.ch ThreatFox API.
//
// ThreatFox exposes a single JSON-over-HTTPS endpoint. Every operation is a
// POST whose body carries a "query" discriminator (for example "search_ioc"
// or "taginfo") plus operation-specific fields. Responses are JSON envelopes
// with a "query_status" string and a "data" member.
//
// # Quick Start
//
// Open a client, use it, and close it:
//
//	c, err := client.Open(client.WithAPIKey(key))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	resp, err := c.SearchIOC(ctx, "94.103.84.81:443")
//
// Or let WithClient manage the lifecycle:
//
//	err := client.WithClient(ctx, func(ctx context.Context, c *client.Client) error {
//	    resp, err := c.GetIOCs(ctx, 1)
//	    ...
//	}, client.WithAPIKey(key))
//
// # Configuration
//
// Options passed to Open take precedence over the configured Source. The
// default Source reads THREATFOX_API_KEY and THREATFOX_API_URL from the
// environment; callers that persist configuration on disk supply their own
// Source with WithSource.
//
// # Low-level Requests
//
// Execute sends an arbitrary payload and returns the raw status code and
// body. ExecuteAndReturnObject additionally requires a 200 status and decodes
// the body as JSON:
//
//	status, body, err := c.Execute(ctx, http.MethodPost, client.Payload{"query": "types"})
//
// Per-call options override the client defaults:
//
//	resp, err := c.GetTagList(ctx, client.WithRequestProxy("http://proxy:3128"))
//
// # Errors
//
// A non-200 response is reported as *StatusError, an undecodable body as
// *DecodeError, and a payload rejected by local validation (see
// WithValidation) as *ValidationError. Transport errors are returned wrapped
// but otherwise untouched.
//
// # Working with Responses
//
// Response is the decoded envelope. Use DataList or DataObject for generic
// access, or DecodeData to convert the data member into typed values:
//
//	var iocs []client.IOC
//	if err := resp.DecodeData(&iocs); err != nil {
//	    return err
//	}
package client
