package client

import (
	"context"
	"fmt"
	"net/http"
)

// GetIOCs retrieves the recent IOC dataset.
// days filters on first_seen (1-90); zero omits the filter and the API
// applies its own default.
func (c *Client) GetIOCs(ctx context.Context, days int, opts ...RequestOption) (Response, error) {
	p := Payload{"query": QueryGetIOCs}
	if days != 0 {
		p["days"] = days
	}
	return c.query(ctx, p, opts...)
}

// GetIOCByID retrieves a single IOC by its ThreatFox ID.
func (c *Client) GetIOCByID(ctx context.Context, id int64, opts ...RequestOption) (Response, error) {
	return c.query(ctx, Payload{
		"query": QueryIOC,
		"id":    id,
	}, opts...)
}

// SearchIOC searches for an IOC by value (IP:port, domain, URL, ...).
// File hashes have their own query, see SearchHash.
func (c *Client) SearchIOC(ctx context.Context, term string, opts ...RequestOption) (Response, error) {
	return c.query(ctx, Payload{
		"query":       QuerySearchIOC,
		"search_term": term,
	}, opts...)
}

// SearchHash searches for IOCs associated with an MD5 or SHA256 file hash.
func (c *Client) SearchHash(ctx context.Context, hash string, opts ...RequestOption) (Response, error) {
	return c.query(ctx, Payload{
		"query": QuerySearchHash,
		"hash":  hash,
	}, opts...)
}

// QueryTag retrieves IOCs carrying the given tag.
// limit defaults to 100 when zero; the API caps it at 1000.
func (c *Client) QueryTag(ctx context.Context, tag string, limit int, opts ...RequestOption) (Response, error) {
	return c.query(ctx, Payload{
		"query": QueryTagInfo,
		"tag":   tag,
		"limit": limitOrDefault(limit),
	}, opts...)
}

// QueryMalwareIOCs retrieves IOCs associated with a malware family.
// limit defaults to 100 when zero; the API caps it at 1000.
func (c *Client) QueryMalwareIOCs(ctx context.Context, malware string, limit int, opts ...RequestOption) (Response, error) {
	return c.query(ctx, Payload{
		"query":   QueryMalwareInfo,
		"malware": malware,
		"limit":   limitOrDefault(limit),
	}, opts...)
}

// SubmitRequest describes IOCs to submit to ThreatFox.
type SubmitRequest struct {
	ThreatType string   // e.g. "payload_delivery", see GetIOCThreatTypes
	IOCType    string   // e.g. "url", "domain", "ip:port"
	Malware    string   // Malpedia name, e.g. "win.emotet"
	IOCs       []string // IOC values of IOCType

	ConfidenceLevel *int     // 0-100, nil sends the default of 50
	Reference       string   // reference URL, empty sends null
	Comment         string   // empty sends null
	Anonymous       bool     // hide the submitter
	Tags            []string // nil sends an empty list
}

// Payload builds the submit_ioc query body for r.
func (r SubmitRequest) Payload() Payload {
	confidence := DefaultConfidenceLevel
	if r.ConfidenceLevel != nil {
		confidence = *r.ConfidenceLevel
	}
	anonymous := 0
	if r.Anonymous {
		anonymous = 1
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	iocs := r.IOCs
	if iocs == nil {
		iocs = []string{}
	}

	return Payload{
		"query":            QuerySubmitIOC,
		"threat_type":      r.ThreatType,
		"ioc_type":         r.IOCType,
		"malware":          r.Malware,
		"confidence_level": confidence,
		"reference":        nullIfEmpty(r.Reference),
		"comment":          nullIfEmpty(r.Comment),
		"anonymous":        anonymous,
		"tags":             tags,
		"iocs":             iocs,
	}
}

// SubmitIOCs submits IOCs. Per-IOC outcomes are reported inside the
// response data (see SubmitResult) and are not interpreted here.
func (c *Client) SubmitIOCs(ctx context.Context, req SubmitRequest, opts ...RequestOption) (Response, error) {
	return c.query(ctx, req.Payload(), opts...)
}

// SearchMalwareFamilies looks up the Malpedia family name for a malware
// name, label or alias. platform is optional, see Platforms.
func (c *Client) SearchMalwareFamilies(ctx context.Context, malware, platform string, opts ...RequestOption) (Response, error) {
	p := Payload{
		"query":   QueryGetLabel,
		"malware": malware,
	}
	if platform != "" {
		p["platform"] = platform
	}
	return c.query(ctx, p, opts...)
}

// GetMalwareList retrieves the malware families known to ThreatFox.
func (c *Client) GetMalwareList(ctx context.Context, opts ...RequestOption) (Response, error) {
	return c.query(ctx, Payload{"query": QueryMalwareList}, opts...)
}

// GetIOCThreatTypes retrieves the supported IOC and threat types.
func (c *Client) GetIOCThreatTypes(ctx context.Context, opts ...RequestOption) (Response, error) {
	return c.query(ctx, Payload{"query": QueryTypes}, opts...)
}

// GetTagList retrieves the tags known to ThreatFox.
func (c *Client) GetTagList(ctx context.Context, opts ...RequestOption) (Response, error) {
	return c.query(ctx, Payload{"query": QueryTagList}, opts...)
}

// query validates p when enabled, posts it and returns the envelope.
func (c *Client) query(ctx context.Context, p Payload, opts ...RequestOption) (Response, error) {
	if c.validator != nil {
		if err := c.validator.validate(p); err != nil {
			return nil, err
		}
	}

	obj, err := c.ExecuteAndReturnObject(ctx, http.MethodPost, p, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", p.Query(), err)
	}

	m, ok := obj.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s query: %w", p.Query(), &DecodeError{Message: fmt.Sprintf("expected a JSON object envelope, got %T", obj)})
	}
	return Response(m), nil
}

func limitOrDefault(limit int) int {
	if limit == 0 {
		return DefaultLimit
	}
	return limit
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
