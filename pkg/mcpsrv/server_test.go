package mcpsrv

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/threatfox/internal/config"
	"github.com/usestring/threatfox/pkg/client"
)

type countInput struct {
	Malware string `json:"malware" jsonschema:"Malware family"`
}

type countOutput struct {
	Count int `json:"count"`
}

func countHandler(d *Deps) func(context.Context, *mcp.CallToolRequest, countInput) (*mcp.CallToolResult, countOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, in countInput) (*mcp.CallToolResult, countOutput, error) {
		resp, err := d.Client.QueryMalwareIOCs(ctx, in.Malware, 10)
		if err != nil {
			return nil, countOutput{}, err
		}
		return nil, countOutput{Count: len(resp.DataList())}, nil
	}
}

func openClient(t *testing.T, opts ...client.Option) *client.Client {
	t.Helper()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"query_status":"ok","data":[{"id":"1"},{"id":"2"}]}`)
	}))
	t.Cleanup(api.Close)

	opts = append([]client.Option{
		client.WithAPIKey("fakeapikey"),
		client.WithBaseURL(api.URL),
		client.WithSource(config.NewResolver(config.NewStore())),
	}, opts...)
	c, err := client.Open(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	st, ct := mcp.NewInMemoryTransports()
	ss, err := s.MCPServer().Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	cs, err := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0.0.1"}, nil).Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestNewServer_NilClient(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
}

func TestNewServer_Deps(t *testing.T) {
	c := openClient(t)
	r := config.NewResolver(config.NewStore())

	s, err := NewServer(c, WithResolver(r))
	require.NoError(t, err)
	assert.Same(t, c, s.Deps().Client)
	assert.Same(t, r, s.Deps().Resolver)
	assert.NotNil(t, s.Deps().Query)
	assert.Nil(t, s.MetricsHandler())
}

func TestNewServer_BuiltinTools(t *testing.T) {
	s, err := NewServer(openClient(t))
	require.NoError(t, err)

	res, err := connect(t, s).ListTools(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Tools, 11)
}

func TestWithDepsTool(t *testing.T) {
	s, err := NewServer(openClient(t),
		WithoutBuiltinTools(),
		WithoutBuiltinPrompts(),
		WithDepsTool(&mcp.Tool{Name: "count_iocs", Description: "Count IOCs"}, countHandler),
	)
	require.NoError(t, err)
	cs := connect(t, s)

	tools, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	assert.Equal(t, "count_iocs", tools.Tools[0].Name)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "count_iocs",
		Arguments: map[string]any{"malware": "win.emotet"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, map[string]any{"count": float64(2)}, res.StructuredContent)
}

func TestWithToolAndPrompt(t *testing.T) {
	s, err := NewServer(openClient(t),
		WithoutBuiltinTools(),
		WithoutBuiltinPrompts(),
		WithTool(&mcp.Tool{Name: "static", Description: "Static count"},
			func(ctx context.Context, req *mcp.CallToolRequest, in countInput) (*mcp.CallToolResult, countOutput, error) {
				return nil, countOutput{Count: 7}, nil
			}),
		WithPrompt(&mcp.Prompt{Name: "hello"},
			func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
				return &mcp.GetPromptResult{
					Messages: []*mcp.PromptMessage{{Role: "user", Content: &mcp.TextContent{Text: "hi"}}},
				}, nil
			}),
	)
	require.NoError(t, err)
	cs := connect(t, s)

	prompts, err := cs.ListPrompts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, prompts.Prompts, 1)
	assert.Equal(t, "hello", prompts.Prompts[0].Name)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "static",
		Arguments: map[string]any{"malware": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": float64(7)}, res.StructuredContent)
}

func TestWithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := openClient(t, client.WithMetrics(reg))

	s, err := NewServer(c, WithMetrics("127.0.0.1:0", reg))
	require.NoError(t, err)
	require.NotNil(t, s.MetricsHandler())

	_, err = c.GetTagList(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `threatfox_client_requests_total{query="tag_list",status="200"} 1`)
}

func TestWithMetrics_EmptyAddrDisables(t *testing.T) {
	s, err := NewServer(openClient(t), WithMetrics("", prometheus.NewRegistry()))
	require.NoError(t, err)
	assert.Nil(t, s.MetricsHandler())
}
