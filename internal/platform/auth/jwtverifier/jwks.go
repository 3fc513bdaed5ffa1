package jwtverifier

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"

	"go.uber.org/zap"
)

func (v *Verifier) key(kid string) *rsa.PublicKey {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.keys[kid]
}

// ensureKeys refreshes the key set when the refresh interval has elapsed, or when kid is
// unknown and the last refresh is older than the minimum refresh interval.
// Concurrent callers share one in-flight fetch.
func (v *Verifier) ensureKeys(ctx context.Context, kid string) error {
	now := v.clock.Now()

	v.mu.Lock()
	since := now.Sub(v.lastRefresh)
	never := v.lastRefresh.IsZero()
	stale := !never && v.cfg.JWKSRefreshInterval > 0 && since >= v.cfg.JWKSRefreshInterval
	unknown := v.keys[kid] == nil && (never || v.cfg.JWKSMinRefreshInterval <= 0 || since >= v.cfg.JWKSMinRefreshInterval)
	v.mu.Unlock()

	if !stale && !unknown {
		return nil
	}

	ch := v.fetch.DoChan("jwks", func() (any, error) {
		return nil, v.refresh(ctx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("jwks fetch failed: status=%d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	keys, err := parseKeySet(body)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.keys = keys
	v.lastRefresh = v.clock.Now()
	v.mu.Unlock()

	v.log.Debug("jwks refreshed", zap.Int("keys", len(keys)))
	return nil
}

type keySet struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

// parseKeySet keeps the RSA keys of a JWKS document, indexed by kid.
func parseKeySet(b []byte) (map[string]*rsa.PublicKey, error) {
	var set keySet
	if err := json.Unmarshal(b, &set); err != nil {
		return nil, err
	}
	out := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" || k.N == "" || k.E == "" {
			continue
		}
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("jwk %s modulus: %w", k.Kid, err)
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("jwk %s exponent: %w", k.Kid, err)
		}
		exp := new(big.Int).SetBytes(e)
		if !exp.IsInt64() || exp.Int64() <= 0 || exp.Int64() > int64(^uint(0)>>1) {
			return nil, fmt.Errorf("jwk %s: invalid exponent", k.Kid)
		}
		out[k.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}
	}
	if len(out) == 0 {
		return nil, errors.New("no usable jwks keys")
	}
	return out, nil
}
