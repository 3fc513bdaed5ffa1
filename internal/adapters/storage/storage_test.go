package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/platform/config"
	accountrepoport "github.com/cardshare/digital-card-api/internal/ports/out/accountrepo"
)

func TestOpen_SQLitePersistsAcrossOpens(t *testing.T) {
	t.Parallel()

	cfg := config.StorageConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "cards.db")}
	ctx := context.Background()

	st, err := Open(ctx, cfg, "iss", nil)
	if err != nil {
		t.Fatalf("Open err=%v", err)
	}
	now := time.Unix(100, 0).UTC()
	if err := st.Accounts.Create(ctx, domain.Account{ID: "a1", Subject: "sub-1", Email: "a@example.com", CompanyID: "c1", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	st.Close()

	st, err = Open(ctx, cfg, "iss", nil)
	if err != nil {
		t.Fatalf("reopen err=%v", err)
	}
	t.Cleanup(st.Close)
	if _, err := st.Accounts.GetBySubject(ctx, "sub-1"); err != nil {
		t.Fatalf("GetBySubject err=%v", err)
	}

	// Subjects are scoped to the issuer they were stored under.
	other, err := Open(ctx, cfg, "other-iss", nil)
	if err != nil {
		t.Fatalf("open other issuer err=%v", err)
	}
	t.Cleanup(other.Close)
	if _, err := other.Accounts.GetBySubject(ctx, "sub-1"); !errors.Is(err, accountrepoport.ErrNotFound) {
		t.Fatalf("GetBySubject(other issuer) err=%v, want ErrNotFound", err)
	}
}

func TestOpen_MemoryAndUnknown(t *testing.T) {
	t.Parallel()

	st, err := Open(context.Background(), config.StorageConfig{Backend: config.BackendMemory}, "", nil)
	if err != nil || st.Accounts == nil || st.Companies == nil || st.Idempotency == nil {
		t.Fatalf("memory stores=%+v err=%v", st, err)
	}
	st.Close()

	if _, err := Open(context.Background(), config.StorageConfig{Backend: "etcd"}, "", nil); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
