package client

import (
	"crypto/sha256"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/mr-tron/base58"
)

const anonymousCacheKey = "anonymous"

// cachingTransport is an RFC 7234 cache partitioned by Authorization header,
// so a response stored for one token is never served to another. Only GET
// responses carrying cache headers are stored, paginated POST queries always
// reach the server. Cached responses are marked with the X-From-Cache header.
type cachingTransport struct {
	cacheDir string
	next     http.RoundTripper

	mu     sync.Mutex
	caches map[string]*httpcache.Transport
}

func newCachingTransport(cacheDir string, next http.RoundTripper) *cachingTransport {
	return &cachingTransport{
		cacheDir: cacheDir,
		next:     next,
		caches:   make(map[string]*httpcache.Transport),
	}
}

func (t *cachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.transportFor(req.Header.Get("Authorization")).RoundTrip(req)
}

func (t *cachingTransport) transportFor(authorization string) *httpcache.Transport {
	key := cacheKey(authorization)

	t.mu.Lock()
	defer t.mu.Unlock()

	if transport, ok := t.caches[key]; ok {
		return transport
	}

	var cache httpcache.Cache = httpcache.NewMemoryCache()
	if t.cacheDir != "" {
		// Use disk-based cache for persistence across invocations
		cache = diskcache.New(filepath.Join(t.cacheDir, key))
	}

	transport := httpcache.NewTransport(cache)
	transport.Transport = t.next
	transport.MarkCachedResponses = true

	t.caches[key] = transport
	return transport
}

// cacheKey names the partition of an Authorization header without exposing the token.
func cacheKey(authorization string) string {
	if authorization == "" {
		return anonymousCacheKey
	}
	hash := sha256.Sum256([]byte(authorization))
	return base58.Encode(hash[:])
}
