package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Query discriminators understood by the ThreatFox API.
const (
	QueryGetIOCs     = "get_iocs"
	QueryIOC         = "ioc"
	QuerySearchIOC   = "search_ioc"
	QuerySearchHash  = "search_hash"
	QueryTagInfo     = "taginfo"
	QueryMalwareInfo = "malwareinfo"
	QuerySubmitIOC   = "submit_ioc"
	QueryGetLabel    = "get_label"
	QueryMalwareList = "malware_list"
	QueryTypes       = "types"
	QueryTagList     = "tag_list"
)

// Limits and defaults documented by the ThreatFox API.
const (
	DefaultLimit           = 100
	MaxLimit               = 1000
	MinDays                = 1
	MaxDays                = 90
	DefaultConfidenceLevel = 50
)

// Malware platforms accepted by SearchMalwareFamilies.
const (
	PlatformWindows = "win"
	PlatformMacOS   = "osx"
	PlatformAndroid = "apk"
	PlatformJava    = "jar"
	PlatformLinux   = "elf"
)

// Platforms lists every platform value accepted by the API.
var Platforms = []string{PlatformWindows, PlatformMacOS, PlatformAndroid, PlatformJava, PlatformLinux}

// Payload is a query body. It always carries a "query" discriminator.
type Payload map[string]any

// Query returns the discriminator of the payload.
func (p Payload) Query() string {
	s, _ := p["query"].(string)
	return s
}

// RequestOptions are the per-request settings merged from the client defaults
// and call-level overrides.
type RequestOptions struct {
	URL     string
	Headers http.Header
	Proxy   string

	// proxySet marks Proxy as given by the call, so "" can clear a default.
	proxySet bool
}

// merge returns o overlaid with the fields set in call. Headers are replaced
// as a whole, never merged key by key.
func (o RequestOptions) merge(call RequestOptions) RequestOptions {
	out := o
	if call.URL != "" {
		out.URL = call.URL
	}
	if call.Headers != nil {
		out.Headers = call.Headers
	}
	if call.proxySet || call.Proxy != "" {
		out.Proxy = call.Proxy
	}
	return out
}

// RequestOption overrides a client default for a single call.
type RequestOption func(*RequestOptions)

// WithURL sends the request to u instead of the client's base URL.
func WithURL(u string) RequestOption {
	return func(o *RequestOptions) {
		o.URL = u
	}
}

// WithHeaders replaces the client's default headers for this call.
// The API key is still injected when h does not carry one.
func WithHeaders(h http.Header) RequestOption {
	return func(o *RequestOptions) {
		o.Headers = h
	}
}

// WithHeader adds one header to the call-level header set. Like WithHeaders,
// a call-level set replaces the client's default headers.
func WithHeader(key, value string) RequestOption {
	return func(o *RequestOptions) {
		if o.Headers == nil {
			o.Headers = http.Header{}
		}
		o.Headers.Add(key, value)
	}
}

// WithRequestProxy routes this call through the given proxy URL.
// An empty proxy sends the call directly, even when the client has a default proxy.
func WithRequestProxy(proxy string) RequestOption {
	return func(o *RequestOptions) {
		o.Proxy = strings.TrimSpace(proxy)
		o.proxySet = true
	}
}

// WithoutProxy sends this call directly, bypassing the client's default proxy.
func WithoutProxy() RequestOption {
	return WithRequestProxy("")
}

// Response is a decoded ThreatFox envelope, kept verbatim.
type Response map[string]any

// QueryStatus returns the "query_status" member, e.g. "ok" or "no_result".
func (r Response) QueryStatus() string {
	s, _ := r["query_status"].(string)
	return s
}

// OK reports whether the query status is "ok".
func (r Response) OK() bool {
	return r.QueryStatus() == "ok"
}

// Data returns the raw "data" member.
func (r Response) Data() any {
	return r["data"]
}

// DataList returns "data" when it is a JSON array, nil otherwise.
func (r Response) DataList() []any {
	l, _ := r["data"].([]any)
	return l
}

// DataObject returns "data" when it is a JSON object, nil otherwise.
func (r Response) DataObject() map[string]any {
	m, _ := r["data"].(map[string]any)
	return m
}

// DecodeData converts the "data" member into v (for example *[]IOC).
func (r Response) DecodeData(v any) error {
	b, err := json.Marshal(r["data"])
	if err != nil {
		return fmt.Errorf("encoding data: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return &DecodeError{Message: "data does not match the requested type", Cause: err}
	}
	return nil
}

// IOC is an indicator of compromise as returned by the search and listing queries.
type IOC struct {
	ID               string   `json:"id"`
	IOC              string   `json:"ioc"`
	ThreatType       string   `json:"threat_type"`
	ThreatTypeDesc   string   `json:"threat_type_desc"`
	IOCType          string   `json:"ioc_type"`
	IOCTypeDesc      string   `json:"ioc_type_desc"`
	Malware          string   `json:"malware"`
	MalwarePrintable string   `json:"malware_printable"`
	MalwareAlias     *string  `json:"malware_alias"`
	MalpediaURL      *string  `json:"malware_malpedia"`
	ConfidenceLevel  int      `json:"confidence_level"`
	FirstSeen        string   `json:"first_seen"`
	LastSeen         *string  `json:"last_seen"`
	Reference        *string  `json:"reference"`
	Reporter         string   `json:"reporter"`
	Tags             []string `json:"tags"`
}

// MalwareLabel is one entry of a get_label response.
type MalwareLabel struct {
	MalwarePrintable string `json:"malware_printable"`
	Malware          string `json:"malware"`
}

// SubmitResult is the data member of a submit_ioc response.
type SubmitResult struct {
	OK         []string `json:"ok"`
	Duplicated []string `json:"duplicated"`
	Ignored    []string `json:"ignored"`
	Reward     int      `json:"reward"`
}
