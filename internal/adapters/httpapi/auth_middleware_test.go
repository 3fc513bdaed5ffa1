package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	memclock "github.com/cardshare/digital-card-api/internal/adapters/memory/clock"
	"github.com/cardshare/digital-card-api/internal/platform/auth/jwks_testutil"
	"github.com/cardshare/digital-card-api/internal/platform/auth/jwtverifier"
	"github.com/cardshare/digital-card-api/internal/platform/config"
)

func newTestAuthRouter(t *testing.T) (http.Handler, func(sub, email string) string) {
	t.Helper()

	jwksSrv, setKeys := jwks_testutil.NewRotatingJWKSServer()
	t.Cleanup(jwksSrv.Close)

	kp, err := jwks_testutil.GenerateRSAKeypair("kid-1")
	if err != nil {
		t.Fatalf("GenerateRSAKeypair: %v", err)
	}
	setKeys([]jwks_testutil.Keypair{kp})

	cfg := config.JWTConfig{
		Issuer:                 "test-iss",
		Audience:               "test-aud",
		JWKSURL:                jwksSrv.URL,
		ClockSkew:              0,
		JWKSRefreshInterval:    10 * time.Minute,
		JWKSMinRefreshInterval: 0,
		HTTPTimeout:            2 * time.Second,
	}

	now := time.Unix(1700000000, 0)
	v := jwtverifier.New(cfg, jwtverifier.Options{Clock: memclock.NewManualClock(now)})

	mint := func(sub, email string) string {
		jwt, err := jwks_testutil.MintRS256JWT(kp, jwks_testutil.Token{
			Issuer:   cfg.Issuer,
			Audience: cfg.Audience,
			Subject:  sub,
			Email:    email,
			IssuedAt: now,
			TTL:      5 * time.Minute,
		})
		if err != nil {
			t.Fatalf("MintRS256JWT: %v", err)
		}
		return jwt
	}

	h := NewRouterWithOptions(newTestServer(t), RouterOptions{
		AuthMiddleware: NewAuthMiddleware(v),
	})
	return h, mint
}

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/accounts/me", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if er.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("code: got %q", er.Error.Code)
	}
	if !er.Error.RequestId.IsSpecified() || er.Error.RequestId.IsNull() {
		t.Fatalf("expected requestId to be set")
	}
	if rid, err := er.Error.RequestId.Get(); err != nil || rid == "" {
		t.Fatalf("expected requestId to be a non-empty string")
	}
}

func TestAuthMiddleware_MalformedHeader_401(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthRouter(t)
	for _, authz := range []string{"Basic abc", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/accounts/me", nil)
		req.Header.Set("Authorization", authz)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: status got %d want %d", authz, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestAuthMiddleware_PublicRoutesNeedNoToken(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthRouter(t)
	for path, want := range map[string]int{
		"/healthz":               http.StatusOK,
		"/cards/Acme/Jane-Doe":   http.StatusNotFound,
		"/cards/Acme/a-b-c-d/qr": http.StatusBadRequest,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("%s: status got %d want %d body=%s", path, rec.Code, want, rec.Body.String())
		}
	}
}

func TestAuthMiddleware_ValidToken_SetsSubjectAndEmail(t *testing.T) {
	t.Parallel()

	h, mint := newTestAuthRouter(t)
	token := mint("member-123", "owner@example.com")

	// Authenticated but not yet provisioned.
	req := httptest.NewRequest(http.MethodGet, "/accounts/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d want %d body=%s", rec.Code, http.StatusNotFound, rec.Body.String())
	}

	// Signup without an email in the body falls back to the token's claim.
	req = httptest.NewRequest(http.MethodPost, "/companies", bytes.NewBufferString(`{"companyName":"Acme","logo":"data:image/png;base64,AAAA"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d want %d body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var got AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Account.Email != "owner@example.com" || got.Company.CreatedBy != "owner@example.com" {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestRequestDecodeError_Is422JSON(t *testing.T) {
	t.Parallel()

	h, mint := newTestAuthRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/companies", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+mint("member-123", ""))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d want %d body=%s", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if er.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("code: got %q", er.Error.Code)
	}
}
