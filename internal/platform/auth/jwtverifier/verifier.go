// Package jwtverifier authenticates bearer tokens issued by the identity provider.
// Only RS256 tokens signed by a key in the configured JWKS are accepted.
package jwtverifier

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cardshare/digital-card-api/internal/platform/config"
	"github.com/cardshare/digital-card-api/internal/ports/out/clock"
)

var ErrUnauthorized = errors.New("unauthorized")

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	Subject string
	// Email is the `email` claim when the provider includes it.
	Email string
}

type Options struct {
	HTTPClient *http.Client
	Clock      clock.Clock
	Logger     *zap.Logger
}

type Verifier struct {
	cfg    config.JWTConfig
	client *http.Client
	clock  clock.Clock
	log    *zap.Logger

	fetch singleflight.Group

	mu          sync.Mutex
	keys        map[string]*rsa.PublicKey
	lastRefresh time.Time
}

func New(cfg config.JWTConfig, opts Options) *Verifier {
	v := &Verifier{
		cfg:    cfg,
		client: opts.HTTPClient,
		clock:  opts.Clock,
		log:    opts.Logger,
		keys:   map[string]*rsa.PublicKey{},
	}
	if v.client == nil {
		v.client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if v.clock == nil {
		v.clock = wallClock{}
	}
	if v.log == nil {
		v.log = zap.NewNop()
	}
	return v
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

type header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

type claims struct {
	Iss   string          `json:"iss"`
	Sub   string          `json:"sub"`
	Aud   json.RawMessage `json:"aud"`
	Exp   *int64          `json:"exp"`
	Nbf   *int64          `json:"nbf"`
	Email string          `json:"email"`
}

// Verify checks the signature and the iss, aud, exp and nbf claims of token.
// Every failure is reported as ErrUnauthorized.
func (v *Verifier) Verify(ctx context.Context, token string) (Identity, error) {
	tok, err := splitToken(token)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	if tok.header.Alg != "RS256" || tok.header.Kid == "" {
		return Identity{}, ErrUnauthorized
	}

	if err := v.ensureKeys(ctx, tok.header.Kid); err != nil {
		v.log.Warn("jwks refresh failed", zap.String("jwks_url", v.cfg.JWKSURL), zap.Error(err))
		return Identity{}, ErrUnauthorized
	}
	pub := v.key(tok.header.Kid)
	if pub == nil {
		return Identity{}, ErrUnauthorized
	}

	sum := sha256.Sum256([]byte(tok.signingInput))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, sum[:], tok.signature); err != nil {
		return Identity{}, ErrUnauthorized
	}
	if err := v.checkClaims(tok.claims); err != nil {
		v.log.Debug("token rejected", zap.Error(err))
		return Identity{}, ErrUnauthorized
	}
	return Identity{Subject: tok.claims.Sub, Email: tok.claims.Email}, nil
}

func (v *Verifier) checkClaims(c claims) error {
	now := v.clock.Now()
	skew := v.cfg.ClockSkew

	switch {
	case c.Sub == "":
		return errors.New("missing sub")
	case c.Iss != v.cfg.Issuer:
		return errors.New("iss mismatch")
	case !audienceContains(c.Aud, v.cfg.Audience):
		return errors.New("aud mismatch")
	case c.Exp == nil:
		return errors.New("missing exp")
	case now.After(time.Unix(*c.Exp, 0).Add(skew)):
		return errors.New("token expired")
	case c.Nbf != nil && now.Before(time.Unix(*c.Nbf, 0).Add(-skew)):
		return errors.New("token not yet valid")
	}
	return nil
}

type parsedToken struct {
	header       header
	claims       claims
	signingInput string
	signature    []byte
}

func splitToken(token string) (parsedToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return parsedToken{}, fmt.Errorf("want 3 segments, got %d", len(parts))
	}
	var out parsedToken
	if err := decodeSegment(parts[0], &out.header); err != nil {
		return parsedToken{}, fmt.Errorf("header: %w", err)
	}
	if err := decodeSegment(parts[1], &out.claims); err != nil {
		return parsedToken{}, fmt.Errorf("claims: %w", err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return parsedToken{}, fmt.Errorf("signature: %w", err)
	}
	out.signingInput = parts[0] + "." + parts[1]
	out.signature = sig
	return out, nil
}

func decodeSegment(seg string, dst any) error {
	b, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// aud may be a single string or an array of strings.
func audienceContains(raw json.RawMessage, want string) bool {
	if len(raw) == 0 {
		return false
	}
	var one string
	if json.Unmarshal(raw, &one) == nil {
		return one == want
	}
	var many []string
	if json.Unmarshal(raw, &many) != nil {
		return false
	}
	for _, a := range many {
		if a == want {
			return true
		}
	}
	return false
}
