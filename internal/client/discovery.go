package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DiscoveryDocument is the part of an OpenID Provider configuration the
// client credentials login needs.
type DiscoveryDocument struct {
	Issuer        string `json:"issuer"`
	TokenEndpoint string `json:"token_endpoint"`
	JWKSURI       string `json:"jwks_uri"`
}

type cachedDiscovery struct {
	doc       *DiscoveryDocument
	expiresAt time.Time
}

// DiscoveryCache fetches and caches discovery documents per issuer.
type DiscoveryCache struct {
	httpClient *http.Client
	ttl        time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]*cachedDiscovery
}

// NewDiscoveryCache creates a cache keeping documents for ttl. A nil hc uses
// http.DefaultClient.
func NewDiscoveryCache(hc *http.Client, ttl time.Duration) *DiscoveryCache {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &DiscoveryCache{
		httpClient: hc,
		ttl:        ttl,
		now:        time.Now,
		cache:      make(map[string]*cachedDiscovery),
	}
}

// Get returns the discovery document for issuer, fetching it on a miss.
func (c *DiscoveryCache) Get(ctx context.Context, issuer string) (*DiscoveryDocument, error) {
	issuer = strings.TrimRight(issuer, "/")

	c.mu.RLock()
	cached, ok := c.cache[issuer]
	c.mu.RUnlock()
	if ok && c.now().Before(cached.expiresAt) {
		return cached.doc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have filled it while we waited
	if cached, ok = c.cache[issuer]; ok && c.now().Before(cached.expiresAt) {
		return cached.doc, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery returned status %d", resp.StatusCode)
	}

	var doc DiscoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	if doc.TokenEndpoint == "" {
		return nil, fmt.Errorf("discovery document from %s has no token_endpoint", issuer)
	}

	c.cache[issuer] = &cachedDiscovery{doc: &doc, expiresAt: c.now().Add(c.ttl)}
	return &doc, nil
}
