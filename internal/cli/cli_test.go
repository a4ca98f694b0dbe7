package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/threatfox/internal/config"
)

const sampleBody = `{"query_status":"ok","data":[{"id":"41","ioc":"gaga.com"}]}`

type fakeAPI struct {
	mu      sync.Mutex
	status  int
	body    string
	payload map[string]any
	apiKey  string
	calls   int
	srv     *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{status: http.StatusOK, body: sampleBody}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(raw, &payload)

		f.mu.Lock()
		f.calls++
		f.payload = payload
		f.apiKey = r.Header.Get("api-key")
		status, body := f.status, f.body
		f.mu.Unlock()

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) last() (map[string]any, string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payload, f.apiKey, f.calls
}

// env points the CLI at f and an isolated config file, which is returned.
func env(t *testing.T, f *fakeAPI, ini string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	if ini != "" {
		require.NoError(t, os.WriteFile(path, []byte(ini), 0o600))
	}
	t.Setenv("THREATFOX_CONFIG", path)
	t.Setenv("THREATFOX_API_URL", f.srv.URL)
	t.Setenv("THREATFOX_API_KEY", "fakeapikey")
	t.Setenv("LOG_FILE", "")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), config.Load(), args, &out, &errOut)
	return out.String(), err
}

func TestIOC_Queries(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want map[string]any
	}{
		{"by id", []string{"ioc", "-i", "41"}, map[string]any{"query": "ioc", "id": float64(41)}},
		{"search", []string{"ioc", "--search-ioc", "gaga.com"}, map[string]any{"query": "search_ioc", "search_term": "gaga.com"}},
		{"hash", []string{"i", "--search-hash", "2151c4b970eff0071948dbbc19066aa4"}, map[string]any{"query": "search_hash", "hash": "2151c4b970eff0071948dbbc19066aa4"}},
		{"types", []string{"ioc", "-t"}, map[string]any{"query": "types"}},
		{"days", []string{"ioc", "-b", "3"}, map[string]any{"query": "get_iocs", "days": float64(3)}},
		{"all", []string{"ioc", "--get-all-available-iocs"}, map[string]any{"query": "get_iocs", "days": float64(90)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAPI(t)
			env(t, f, "")

			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.JSONEq(t, sampleBody, out)
			assert.Contains(t, out, "\n  \"query_status\": \"ok\"")

			payload, key, _ := f.last()
			assert.Equal(t, tt.want, payload)
			assert.Equal(t, "fakeapikey", key)
		})
	}
}

func TestIOC_AllRefusedWithConstraint(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "[default]\nmax_result_constraint = 50\n")

	_, err := run(t, "ioc", "--get-all-available-iocs")
	assert.ErrorIs(t, err, errAllIOCsConstrained)

	_, _, calls := f.last()
	assert.Zero(t, calls)
}

func TestMalware_LimitAndConstraint(t *testing.T) {
	tests := []struct {
		name string
		ini  string
		want float64
	}{
		{"unconstrained", "", 1000},
		{"constrained", "[default]\nmax_result_constraint = 50\n", 50},
		{"constraint above max", "[default]\nmax_result_constraint = 5000\n", 1000},
		{"malformed constraint", "[default]\nmax_result_constraint = lots\n", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAPI(t)
			env(t, f, tt.ini)

			_, err := run(t, "malware", "-q", "win.emotet")
			require.NoError(t, err)

			payload, _, _ := f.last()
			assert.Equal(t, map[string]any{"query": "malwareinfo", "malware": "win.emotet", "limit": tt.want}, payload)
		})
	}
}

func TestMalware_Families(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "")

	_, err := run(t, "m", "-s", "emotet", "--platform", "win")
	require.NoError(t, err)
	payload, _, _ := f.last()
	assert.Equal(t, map[string]any{"query": "get_label", "malware": "emotet", "platform": "win"}, payload)

	_, err = run(t, "malware", "-g")
	require.NoError(t, err)
	payload, _, _ = f.last()
	assert.Equal(t, map[string]any{"query": "malware_list"}, payload)
}

func TestMalware_InvalidPlatform(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "")

	_, err := run(t, "malware", "-s", "emotet", "--platform", "amiga")
	assert.ErrorContains(t, err, "--platform")

	_, _, calls := f.last()
	assert.Zero(t, calls)
}

func TestTag(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "[default]\nmax_result_constraint = 10\n")

	_, err := run(t, "tag", "-t", "Emotet")
	require.NoError(t, err)
	payload, _, _ := f.last()
	assert.Equal(t, map[string]any{"query": "taginfo", "tag": "Emotet", "limit": float64(10)}, payload)

	_, err = run(t, "t", "-l")
	require.NoError(t, err)
	payload, _, _ = f.last()
	assert.Equal(t, map[string]any{"query": "tag_list"}, payload)
}

func TestSubmit(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "")

	_, err := run(t, "submit",
		"--threat-type", "botnet_cc",
		"--ioc-type", "ip:port",
		"-m", "win.qakbot",
		"-i", "1.2.3.4:443",
		"-i", "5.6.7.8:995",
		"-t", "Qakbot",
		"-r", "https://example.com/report",
		"--make-anonymous",
	)
	require.NoError(t, err)

	payload, _, _ := f.last()
	assert.Equal(t, map[string]any{
		"query":            "submit_ioc",
		"threat_type":      "botnet_cc",
		"ioc_type":         "ip:port",
		"malware":          "win.qakbot",
		"confidence_level": float64(50),
		"reference":        "https://example.com/report",
		"comment":          nil,
		"anonymous":        float64(1),
		"tags":             []any{"Qakbot"},
		"iocs":             []any{"1.2.3.4:443", "5.6.7.8:995"},
	}, payload)
}

func TestSubmit_InvalidInput(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "")

	_, err := run(t, "submit", "--threat-type", "botnet_cc", "--ioc-type", "url", "-m", "win.qakbot")
	assert.ErrorContains(t, err, "ioc-value")

	_, err = run(t, "submit", "--threat-type", "botnet_cc", "--ioc-type", "url", "-m", "win.qakbot",
		"-i", "http://gaga.com/", "--confidence-level", "101")
	assert.ErrorContains(t, err, "--confidence-level")

	_, _, calls := f.last()
	assert.Zero(t, calls)
}

func TestStatusErrorPrintsFalse(t *testing.T) {
	f := newFakeAPI(t)
	f.status = http.StatusInternalServerError
	f.body = "boom"
	env(t, f, "")

	out, err := run(t, "tag", "-l")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestJQ(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "")

	out, err := run(t, "--jq", ".data[] | .ioc", "ioc", "-s", "gaga.com")
	require.NoError(t, err)
	assert.Equal(t, "\"gaga.com\"\n", out)
}

func TestJQ_InvalidExpression(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "")

	_, err := run(t, "ioc", "-t", "--jq", ".data[")
	assert.ErrorContains(t, err, "--jq")

	_, _, calls := f.last()
	assert.Zero(t, calls)
}

func TestStrictRejectsBeforeSending(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "")

	_, err := run(t, "--strict", "ioc", "-b", "500")
	assert.Error(t, err)

	_, _, calls := f.last()
	assert.Zero(t, calls)
}

func TestAPIKeyFlagOverridesEnvironment(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "")

	_, err := run(t, "--api-key", "flagkey", "ioc", "-t")
	require.NoError(t, err)
	_, key, _ := f.last()
	assert.Equal(t, "flagkey", key)
}

func TestSaveAPIKey(t *testing.T) {
	f := newFakeAPI(t)
	path := env(t, f, "")
	t.Setenv("THREATFOX_API_KEY", "")

	out, err := run(t, "--save-api-key", "savedkey")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, _, calls := f.last()
	assert.Zero(t, calls)

	store, err := config.LoadStore(path)
	require.NoError(t, err)
	got, ok := store.Get(config.KeyAPIKey)
	require.True(t, ok)
	assert.Equal(t, "savedkey", got)

	_, err = run(t, "ioc", "-t")
	require.NoError(t, err)
	_, key, _ := f.last()
	assert.Equal(t, "savedkey", key)
}

func TestSaveAPIURL(t *testing.T) {
	f := newFakeAPI(t)
	path := env(t, f, "")
	t.Setenv("THREATFOX_API_URL", "")

	_, err := run(t, "--save-api-url", f.srv.URL)
	require.NoError(t, err)

	store, err := config.LoadStore(path)
	require.NoError(t, err)
	got, _ := store.Get(config.KeyAPIURL)
	assert.Equal(t, f.srv.URL, got)

	_, err = run(t, "tag", "-l")
	require.NoError(t, err)
	_, _, calls := f.last()
	assert.Equal(t, 1, calls)
}

func TestRootWithoutCommandPrintsHelp(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "")

	out, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "threatfox")
	assert.Contains(t, out, "submit")
}

func TestMCPServerMetrics(t *testing.T) {
	f := newFakeAPI(t)
	env(t, f, "")

	var buf bytes.Buffer
	d := &deps{cfg: config.Load(), out: &buf, errOut: &buf}
	require.NoError(t, d.setup())
	defer d.close()

	srv, closeClient, err := d.newMCPServer("")
	require.NoError(t, err)
	assert.Nil(t, srv.MetricsHandler())
	closeClient()

	srv, closeClient, err = d.newMCPServer("127.0.0.1:0")
	require.NoError(t, err)
	defer closeClient()
	require.NotNil(t, srv.MetricsHandler())

	rec := httptest.NewRecorder()
	srv.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLoggingConfig(t *testing.T) {
	var errOut bytes.Buffer

	d := &deps{cfg: &config.Config{LogLevel: "warn", LogMaxSizeMB: 50}, errOut: &errOut}
	lc := d.loggingConfig()
	assert.Equal(t, "warn", lc.Level)
	assert.Equal(t, "text", lc.Format)
	assert.Equal(t, 50, lc.MaxSizeMB)
	assert.Equal(t, 5, lc.MaxBackups)
	assert.Equal(t, 28, lc.MaxAgeDays)
	assert.Same(t, &errOut, lc.Output)

	d.debug = true
	assert.Equal(t, "debug", d.loggingConfig().Level)
}
