package jwtverifier_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/cardshare/digital-card-api/internal/adapters/memory/clock"
	"github.com/cardshare/digital-card-api/internal/platform/auth/jwks_testutil"
	"github.com/cardshare/digital-card-api/internal/platform/auth/jwtverifier"
	"github.com/cardshare/digital-card-api/internal/platform/config"
)

type fixture struct {
	clk    *clock.ManualClock
	cfg    config.JWTConfig
	v      *jwtverifier.Verifier
	setKey func([]jwks_testutil.Keypair)
}

func newFixture(t *testing.T, refresh time.Duration) fixture {
	t.Helper()
	srv, setKeys := jwks_testutil.NewRotatingJWKSServer()
	t.Cleanup(srv.Close)

	clk := clock.NewManualClock(time.Unix(1700000000, 0))
	cfg := config.JWTConfig{
		Issuer:              "test-iss",
		Audience:            "test-aud",
		JWKSURL:             srv.URL,
		JWKSRefreshInterval: refresh,
		HTTPTimeout:         2 * time.Second,
	}
	return fixture{
		clk:    clk,
		cfg:    cfg,
		v:      jwtverifier.New(cfg, jwtverifier.Options{Clock: clk}),
		setKey: setKeys,
	}
}

func (f fixture) mint(t *testing.T, kp jwks_testutil.Keypair, tok jwks_testutil.Token) string {
	t.Helper()
	if tok.Issuer == "" {
		tok.Issuer = f.cfg.Issuer
	}
	if tok.Audience == nil {
		tok.Audience = f.cfg.Audience
	}
	if tok.IssuedAt.IsZero() {
		tok.IssuedAt = f.clk.Now()
	}
	if tok.TTL == 0 {
		tok.TTL = 5 * time.Minute
	}
	jwt, err := jwks_testutil.MintRS256JWT(kp, tok)
	if err != nil {
		t.Fatalf("MintRS256JWT: %v", err)
	}
	return jwt
}

func mustKeypair(t *testing.T, kid string) jwks_testutil.Keypair {
	t.Helper()
	kp, err := jwks_testutil.GenerateRSAKeypair(kid)
	if err != nil {
		t.Fatalf("GenerateRSAKeypair: %v", err)
	}
	return kp
}

func TestVerifier_Verify_ValidToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10*time.Minute)
	kp := mustKeypair(t, "kid-1")
	f.setKey([]jwks_testutil.Keypair{kp})

	jwt := f.mint(t, kp, jwks_testutil.Token{Subject: "user-123", Email: "jane@example.com"})
	id, err := f.v.Verify(context.Background(), jwt)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Subject != "user-123" || id.Email != "jane@example.com" {
		t.Fatalf("identity mismatch: %+v", id)
	}
}

func TestVerifier_Verify_AudienceArray(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10*time.Minute)
	kp := mustKeypair(t, "kid-1")
	f.setKey([]jwks_testutil.Keypair{kp})

	jwt := f.mint(t, kp, jwks_testutil.Token{Subject: "user-123", Audience: []string{"other", "test-aud"}})
	if _, err := f.v.Verify(context.Background(), jwt); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifier_Verify_Rejections(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10*time.Minute)
	kp := mustKeypair(t, "kid-1")
	f.setKey([]jwks_testutil.Keypair{kp})

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	future := 2 * time.Minute

	cases := map[string]string{
		"expired":       f.mint(t, kp, jwks_testutil.Token{Subject: "u", TTL: -time.Minute}),
		"wrong issuer":  f.mint(t, kp, jwks_testutil.Token{Subject: "u", Issuer: "wrong-iss"}),
		"wrong aud":     f.mint(t, kp, jwks_testutil.Token{Subject: "u", Audience: "wrong-aud"}),
		"not yet valid": f.mint(t, kp, jwks_testutil.Token{Subject: "u", NotBefore: &future}),
		"missing sub":   f.mint(t, kp, jwks_testutil.Token{}),
		"bad signature": f.mint(t, jwks_testutil.Keypair{Kid: "kid-1", Private: other}, jwks_testutil.Token{Subject: "u"}),
		"unknown kid":   f.mint(t, mustKeypair(t, "kid-9"), jwks_testutil.Token{Subject: "u"}),
		"garbage":       "not.a.jwt",
	}
	for name, jwt := range cases {
		if _, err := f.v.Verify(context.Background(), jwt); !errors.Is(err, jwtverifier.ErrUnauthorized) {
			t.Fatalf("%s: err=%v, want ErrUnauthorized", name, err)
		}
	}
}

func TestVerifier_Verify_JWKSRotation_OldKidRejected_NewKidAccepted(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Second)
	k1 := mustKeypair(t, "kid-1")
	k2 := mustKeypair(t, "kid-2")
	f.setKey([]jwks_testutil.Keypair{k1})

	jwt1 := f.mint(t, k1, jwks_testutil.Token{Subject: "user-123"})
	if _, err := f.v.Verify(context.Background(), jwt1); err != nil {
		t.Fatalf("expected jwt1 to verify: %v", err)
	}

	f.setKey([]jwks_testutil.Keypair{k2})
	f.clk.Advance(2 * time.Second)

	if _, err := f.v.Verify(context.Background(), jwt1); err == nil {
		t.Fatalf("expected jwt1 to be rejected after rotation")
	}

	jwt2 := f.mint(t, k2, jwks_testutil.Token{Subject: "user-456"})
	id, err := f.v.Verify(context.Background(), jwt2)
	if err != nil {
		t.Fatalf("expected jwt2 to verify: %v", err)
	}
	if id.Subject != "user-456" {
		t.Fatalf("sub mismatch: got %q", id.Subject)
	}
}
