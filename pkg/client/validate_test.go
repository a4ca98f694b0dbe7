package client

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidation_RejectsBeforeSending(t *testing.T) {
	ctx := context.Background()
	tooHigh := 101

	tests := []struct {
		name    string
		call    func(c *Client) error
		problem string
	}{
		{
			name:    "days above range",
			call:    func(c *Client) error { _, err := c.GetIOCs(ctx, 91); return err },
			problem: "/days",
		},
		{
			name:    "negative days",
			call:    func(c *Client) error { _, err := c.GetIOCs(ctx, -1); return err },
			problem: "/days",
		},
		{
			name:    "ioc id zero",
			call:    func(c *Client) error { _, err := c.GetIOCByID(ctx, 0); return err },
			problem: "/id",
		},
		{
			name:    "empty search term",
			call:    func(c *Client) error { _, err := c.SearchIOC(ctx, ""); return err },
			problem: "/search_term",
		},
		{
			name:    "malformed hash",
			call:    func(c *Client) error { _, err := c.SearchHash(ctx, "not-a-hash"); return err },
			problem: "/hash",
		},
		{
			name:    "tag limit above max",
			call:    func(c *Client) error { _, err := c.QueryTag(ctx, "Emotet", 1001); return err },
			problem: "/limit",
		},
		{
			name:    "malware limit negative",
			call:    func(c *Client) error { _, err := c.QueryMalwareIOCs(ctx, "Emotet", -5); return err },
			problem: "/limit",
		},
		{
			name:    "unknown platform",
			call:    func(c *Client) error { _, err := c.SearchMalwareFamilies(ctx, "emotet", "bsd"); return err },
			problem: "/platform",
		},
		{
			name: "confidence above range",
			call: func(c *Client) error {
				_, err := c.SubmitIOCs(ctx, SubmitRequest{
					ThreatType:      "botnet_cc",
					IOCType:         "domain",
					Malware:         "win.emotet",
					IOCs:            []string{"a.example"},
					ConfidenceLevel: &tooHigh,
				})
				return err
			},
			problem: "/confidence_level",
		},
		{
			name: "no iocs",
			call: func(c *Client) error {
				_, err := c.SubmitIOCs(ctx, SubmitRequest{
					ThreatType: "botnet_cc",
					IOCType:    "domain",
					Malware:    "win.emotet",
				})
				return err
			},
			problem: "/iocs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder(t, http.StatusOK, `{"query_status":"ok"}`)
			c := openTestClient(t, rec.srv.URL, WithValidation())

			err := tt.call(c)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.NotEmpty(t, ve.Problems)
			assert.Contains(t, strings.Join(ve.Problems, "\n"), tt.problem)
			assert.Equal(t, 0, rec.count(), "invalid payload must not be sent")
		})
	}
}

func TestValidation_AcceptsValidPayloads(t *testing.T) {
	ctx := context.Background()

	rec := newRecorder(t, http.StatusOK, `{"query_status":"ok","data":[]}`)
	c := openTestClient(t, rec.srv.URL, WithValidation())

	calls := []func() error{
		func() error { _, err := c.GetIOCs(ctx, 0); return err },
		func() error { _, err := c.GetIOCs(ctx, 90); return err },
		func() error { _, err := c.GetIOCByID(ctx, 41); return err },
		func() error { _, err := c.SearchIOC(ctx, "gaga.com"); return err },
		func() error { _, err := c.SearchHash(ctx, "2151c4b970eff0071948dbbc19066aa4"); return err },
		func() error {
			_, err := c.SearchHash(ctx, "c4ca4238a0b923820dcc509a6f75849bc4ca4238a0b923820dcc509a6f75849b")
			return err
		},
		func() error { _, err := c.QueryTag(ctx, "Magecart", 0); return err },
		func() error { _, err := c.QueryMalwareIOCs(ctx, "Cobalt Strike", MaxLimit); return err },
		func() error { _, err := c.SearchMalwareFamilies(ctx, "cobalt", ""); return err },
		func() error { _, err := c.SearchMalwareFamilies(ctx, "cobalt", PlatformLinux); return err },
		func() error { _, err := c.GetMalwareList(ctx); return err },
		func() error { _, err := c.GetIOCThreatTypes(ctx); return err },
		func() error { _, err := c.GetTagList(ctx); return err },
		func() error {
			_, err := c.SubmitIOCs(ctx, SubmitRequest{
				ThreatType: "payload_delivery",
				IOCType:    "url",
				Malware:    "win.qakbot",
				IOCs:       []string{"http://bad.example/payload.exe"},
				Anonymous:  true,
			})
			return err
		},
		func() error {
			_, err := c.SubmitIOCs(ctx, SubmitRequest{
				ThreatType: "botnet_cc",
				IOCType:    "ip:port",
				Malware:    "win.emotet",
				IOCs:       []string{"192.0.2.1:443"},
				Reference:  "https://example.com/report",
				Comment:    "seen in the wild",
				Tags:       []string{"Emotet", "epoch5"},
			})
			return err
		},
	}

	for i, call := range calls {
		require.NoError(t, call(), "call %d", i)
	}
	assert.Equal(t, len(calls), rec.count())
}

func TestValidation_DisabledByDefault(t *testing.T) {
	rec := newRecorder(t, http.StatusOK, `{"query_status":"illegal_days"}`)
	c := openTestClient(t, rec.srv.URL)

	resp, err := c.GetIOCs(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, "illegal_days", resp.QueryStatus())
	assert.Equal(t, 1, rec.count())
}

func TestValidator_UnknownQuery(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	err = v.validate(Payload{"query": "drop_everything"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "drop_everything", ve.Query)
	assert.Contains(t, ve.Error(), "unknown query")
}

func TestValidator_RejectsUnexpectedFields(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	err = v.validate(Payload{"query": QueryTagList, "limit": 5})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}
