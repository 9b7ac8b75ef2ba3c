package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultKeyTTL = 15 * time.Minute

type jwksDocument struct {
	Keys []jwkKey `json:"keys"`
}

type jwkKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type cachedKey struct {
	key       *rsa.PublicKey
	fetchedAt time.Time
}

// KeyCache resolves RSA signing keys from the identity provider's JWKS
// endpoint, cached per key ID. Entries expire after a TTL because provider
// keys rotate; concurrent refreshes for the same kid are collapsed into one
// upstream fetch.
type KeyCache struct {
	jwksURL string
	ttl     time.Duration
	client  *http.Client
	now     func() time.Time

	mu    sync.RWMutex
	keys  map[string]cachedKey
	group singleflight.Group
}

// NewKeyCache builds a cache for https://{domain}/.well-known/jwks.json.
func NewKeyCache(domain string) *KeyCache {
	return &KeyCache{
		jwksURL: fmt.Sprintf("https://%s/.well-known/jwks.json", domain),
		ttl:     defaultKeyTTL,
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
		keys:    make(map[string]cachedKey),
	}
}

// SigningKey returns the RSA public key for kid, fetching the JWKS document
// when the key is unknown or its cache entry has expired.
func (c *KeyCache) SigningKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	entry, ok := c.keys[kid]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.key, nil
	}

	v, err, _ := c.group.Do(kid, func() (any, error) {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		c.mu.RLock()
		entry, ok := c.keys[kid]
		c.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unable to find appropriate key %q", kid)
		}
		return entry.key, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*rsa.PublicKey), nil
}

func (c *KeyCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("build jwks request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	fetched := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		c.keys[k.Kid] = cachedKey{key: pub, fetchedAt: fetched}
	}
	return nil
}

func (k jwkKey) publicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
