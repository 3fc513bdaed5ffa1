package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cardshare/digital-card-api/internal/adapters/storage"
	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/platform/config"
	idempotencyport "github.com/cardshare/digital-card-api/internal/ports/out/idempotency"
)

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.db")
	st, err := storage.Open(context.Background(), config.StorageConfig{Backend: config.BackendSQLite, SQLitePath: path}, "dev", nil)
	if err != nil {
		t.Fatalf("storage.Open err=%v", err)
	}
	defer st.Close()

	now := time.Unix(100, 0).UTC()
	if err := st.Accounts.Create(context.Background(), domain.Account{
		ID:        "a1",
		Subject:   "sub-1",
		Email:     "jane@example.com",
		CompanyID: "c1",
		Profile: &domain.Profile{
			FirstName:    "Jane",
			LastName:     "Doe",
			FullName:     "Jane Doe",
			CompanyName:  "Acme",
			ContactPhone: "555-1234",
		},
		ProfileSetupComplete: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestSlug(t *testing.T) {
	out, _, err := run(t, "slug", "John-Q-Smith")
	if err != nil {
		t.Fatalf("slug err=%v", err)
	}
	if !strings.Contains(out, "first:  John") || !strings.Contains(out, "middle: Q") || !strings.Contains(out, "last:   Smith") {
		t.Fatalf("out=%q", out)
	}
	if _, _, err := run(t, "slug", "a-b-c-d"); err == nil {
		t.Fatalf("expected error for a 4-part slug")
	}
}

func TestResolve(t *testing.T) {
	db := seedDB(t)

	out, _, err := run(t, "--store", "sqlite", "--sqlite", db, "--base-url", "https://cards.example.com", "resolve", "Acme", "Jane-Doe")
	if err != nil {
		t.Fatalf("resolve err=%v", err)
	}
	if !strings.Contains(out, "name:      Jane Doe") || !strings.Contains(out, "url:       https://cards.example.com/card/Acme/Jane-Doe") {
		t.Fatalf("out=%q", out)
	}

	out, _, err = run(t, "--store", "sqlite", "--sqlite", db, "resolve", "Acme", "Jane-Smith")
	if err != nil || !strings.Contains(out, "no matching profile") {
		t.Fatalf("out=%q err=%v", out, err)
	}
}

func TestExportAndQR(t *testing.T) {
	db := seedDB(t)
	dir := t.TempDir()

	out, _, err := run(t, "--store", "sqlite", "--sqlite", db, "export", "Acme", "Jane-Doe", "--out", dir, "--no-clipboard")
	if err != nil {
		t.Fatalf("export err=%v", err)
	}
	if !strings.Contains(out, "Jane Doe.vcf") {
		t.Fatalf("out=%q", out)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Jane Doe.vcf"))
	if err != nil {
		t.Fatalf("ReadFile err=%v", err)
	}
	if !strings.Contains(string(data), "TEL;TYPE=WORK:555-1234") {
		t.Fatalf("card=%q", data)
	}

	if _, _, err := run(t, "--store", "sqlite", "--sqlite", db, "export", "Acme", "Nobody-Here", "--out", dir, "--no-clipboard"); err == nil {
		t.Fatalf("expected error for unknown card")
	}

	png := filepath.Join(dir, "card.png")
	if _, _, err := run(t, "--store", "sqlite", "--sqlite", db, "qr", "Acme", "Jane-Doe", "--out", png); err != nil {
		t.Fatalf("qr err=%v", err)
	}
	b, err := os.ReadFile(png)
	if err != nil || !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("png not written: err=%v", err)
	}
	if _, _, err := run(t, "--store", "sqlite", "--sqlite", db, "qr", "Acme", "Jane-Doe"); err == nil {
		t.Fatalf("expected error without --out")
	}
}

func TestPurgeIdempotency(t *testing.T) {
	db := seedDB(t)

	// cardctl scopes records to the configured auth issuer; dev mode uses "dev".
	t.Setenv("AUTH_MODE", "dev")
	t.Setenv("DEV_ISSUER", "dev")

	st, err := storage.Open(context.Background(), config.StorageConfig{Backend: config.BackendSQLite, SQLitePath: db}, "dev", nil)
	if err != nil {
		t.Fatalf("storage.Open err=%v", err)
	}
	fp := idempotencyport.Fingerprint{Key: "k1", Subject: "sub-1", Method: "PATCH", Route: "/profiles/me"}
	if err := st.Idempotency.Put(context.Background(), fp, idempotencyport.Record{
		ContentType: "text/plain",
		Body:        []byte("hash"),
		CreatedAt:   time.Now().Add(-72 * time.Hour),
	}); err != nil {
		t.Fatalf("Put err=%v", err)
	}
	st.Close()

	out, _, err := run(t, "--store", "sqlite", "--sqlite", db, "purge-idempotency", "--older-than", "48h")
	if err != nil {
		t.Fatalf("purge err=%v", err)
	}
	if !strings.Contains(out, "purged 1 records") {
		t.Fatalf("out=%q", out)
	}

	out, _, err = run(t, "--store", "sqlite", "--sqlite", db, "purge-idempotency")
	if err != nil || !strings.Contains(out, "purged 0 records older than 24h0m0s") {
		t.Fatalf("out=%q err=%v", out, err)
	}
}
