package config

import (
	"os"
	"strings"
	"sync"

	"github.com/usestring/threatfox/pkg/client"
)

// Resolver resolves client settings from the environment and a Store.
//
// Values read from the store are cached; Set* calls override the cache
// without touching the process environment.
type Resolver struct {
	store  *Store
	getenv func(string) string

	mu     sync.Mutex
	apiKey *string
	apiURL *string
}

// NewResolver returns a Resolver backed by store and the process environment.
// A nil store behaves as an empty one.
func NewResolver(store *Store) *Resolver {
	if store == nil {
		store = NewStore()
	}
	return &Resolver{store: store, getenv: os.Getenv}
}

// Store returns the underlying store.
func (r *Resolver) Store() *Store {
	return r.store
}

// APIKey returns the API key: a value set with SetAPIKey, then
// THREATFOX_API_KEY, then api_key from the store. The first result is cached,
// environment value included, so later changes to THREATFOX_API_KEY or the
// store are not seen until Invalidate.
func (r *Resolver) APIKey() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.apiKey == nil {
		v := strings.TrimSpace(r.getenv(client.EnvAPIKey))
		if v == "" {
			v, _ = r.store.Get(KeyAPIKey)
		}
		r.apiKey = &v
	}
	return *r.apiKey, *r.apiKey != ""
}

// SetAPIKey makes key the value returned by later APIKey calls.
func (r *Resolver) SetAPIKey(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key = strings.TrimSpace(key)
	r.apiKey = &key
}

// APIURL returns the base URL: a value set with SetAPIURL, then
// THREATFOX_API_URL, then api_url from the store, then client.DefaultBaseURL.
// Like APIKey, the result is cached until Invalidate, environment value included.
func (r *Resolver) APIURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.apiURL == nil {
		v := strings.TrimSpace(r.getenv(client.EnvAPIURL))
		if v == "" {
			v, _ = r.store.Get(KeyAPIURL)
		}
		if v == "" {
			v = client.DefaultBaseURL
		}
		r.apiURL = &v
	}
	return *r.apiURL
}

// SetAPIURL makes url the value returned by later APIURL calls.
func (r *Resolver) SetAPIURL(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	url = strings.TrimSpace(url)
	r.apiURL = &url
}

// Invalidate drops cached and overridden values.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apiKey = nil
	r.apiURL = nil
}

// Proxy returns the proxy URL configured in the store. There is no
// environment fallback.
func (r *Resolver) Proxy() (string, bool) {
	return r.store.Get(KeyProxy)
}

// MaxResultConstraint returns the optional cap on the number of results the
// CLI may request. A value that is not an integer is an error.
func (r *Resolver) MaxResultConstraint() (int, bool, error) {
	return r.store.Int(KeyMaxResultConstraint)
}

var _ client.Source = (*Resolver)(nil)
