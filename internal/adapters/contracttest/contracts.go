package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/cardshare/digital-card-api/internal/domain"
	accountrepoport "github.com/cardshare/digital-card-api/internal/ports/out/accountrepo"
	companyrepoport "github.com/cardshare/digital-card-api/internal/ports/out/companyrepo"
	idempotencyport "github.com/cardshare/digital-card-api/internal/ports/out/idempotency"
)

type CleanupFunc = func()

type AccountRepoFactory func(t *testing.T) (accountrepoport.Repository, CleanupFunc)
type CompanyRepoFactory func(t *testing.T) (companyrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Subject:  domain.SubjectID("sub-1"),
		Method:   "PATCH",
		Route:    "/profiles/me",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// Purge drops records older than the cutoff and keeps newer ones.
	fresh := fp
	fresh.Key = idempotencyport.Key("k-" + uuid.NewString())
	freshRec := rec
	freshRec.CreatedAt = time.Unix(5000, 0).UTC()
	if err := store.Put(ctx, fresh, freshRec); err != nil {
		t.Fatalf("Put fresh: %v", err)
	}
	n, err := store.Purge(ctx, time.Unix(1000, 0).UTC())
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n < 1 {
		t.Fatalf("Purge removed %d records, want at least 1", n)
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get after Purge: ok=%v err=%v, want purged", ok, err)
	}
	if _, ok, err := store.Get(ctx, fresh); err != nil || !ok {
		t.Fatalf("Get fresh after Purge: ok=%v err=%v, want kept", ok, err)
	}
}

func RunCompanyRepo(t *testing.T, newRepo CompanyRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	c := domain.Company{
		ID:        domain.CompanyID(uuid.NewString()),
		Name:      "Acme Corp",
		Logo:      "data:image/png;base64,AAAA",
		CreatedBy: "owner@example.com",
		CreatedAt: time.Unix(1000, 0).UTC(),
	}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Fatalf("GetByID mismatch (-want +got):\n%s", diff)
	}
	if err := repo.Create(ctx, c); !errors.Is(err, companyrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Create err=%v, want ErrAlreadyExists", err)
	}
	if _, err := repo.GetByID(ctx, domain.CompanyID(uuid.NewString())); !errors.Is(err, companyrepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}
}

func RunAccountRepo(t *testing.T, newRepo AccountRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	// Unique per run so shared databases do not collide across runs.
	company := "Acme-" + uuid.NewString()
	companyID := domain.CompanyID(uuid.NewString())

	aID := domain.AccountID(uuid.NewString())
	sub := domain.SubjectID("sub-" + uuid.NewString())
	if err := repo.Create(ctx, domain.Account{
		ID:        aID,
		Subject:   sub,
		Email:     "jane@example.com",
		CompanyID: companyID,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	got, err := repo.GetBySubject(ctx, sub)
	if err != nil {
		t.Fatalf("GetBySubject: %v", err)
	}
	if got.ID != aID || got.Profile != nil || got.ProfileSetupComplete {
		t.Fatalf("unexpected new account: %+v", got)
	}

	// Subject uniqueness.
	if err := repo.Create(ctx, domain.Account{
		ID:        domain.AccountID(uuid.NewString()),
		Subject:   sub,
		Email:     "jane2@example.com",
		CompanyID: companyID,
		CreatedAt: now,
		UpdatedAt: now,
	}); !errors.Is(err, accountrepoport.ErrSubjectAlreadyBound) {
		t.Fatalf("expected subject uniqueness error, got %v", err)
	}

	// Accounts without a profile are not listed.
	if ps, err := repo.ListProfilesByCompany(ctx, company); err != nil || len(ps) != 0 {
		t.Fatalf("ListProfilesByCompany before setup: %v err=%v", ps, err)
	}

	dob := time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)
	profile := domain.Profile{
		FirstName:        "Jane",
		LastName:         "Doe",
		FullName:         "Jane Doe",
		CompanyName:      company,
		JobTitle:         "Engineer",
		ContactPhone:     "555-1234",
		ContactEmail:     "jane@example.com",
		DateOfBirth:      &dob,
		SocialLinks:      domain.SocialLinks{domain.SocialLinkedIn: "https://linkedin.com/in/jane"},
		ProfilePicture:   "https://example.com/jane.png",
		ContactTelephone: "",
	}
	got.Profile = &profile
	got.ProfileSetupComplete = true
	got.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := repo.GetByID(ctx, aID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !reloaded.ProfileSetupComplete || reloaded.Profile == nil {
		t.Fatalf("profile not persisted: %+v", reloaded)
	}
	want := profile.Clone()
	want.SocialLinks = want.SocialLinks.Complete()
	if diff := cmp.Diff(want, *reloaded.Profile); diff != "" {
		t.Fatalf("profile round trip (-want +got):\n%s", diff)
	}

	// Second profile in another company and one with a middle name in the same company.
	other := domain.Account{
		ID:        domain.AccountID(uuid.NewString()),
		Subject:   domain.SubjectID("sub-" + uuid.NewString()),
		Email:     "john@example.com",
		CompanyID: companyID,
		Profile: &domain.Profile{
			FirstName:   "John",
			MiddleName:  "Q",
			LastName:    "Smith",
			CompanyName: company,
		},
		ProfileSetupComplete: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("Create other: %v", err)
	}
	elsewhere := domain.Account{
		ID:        domain.AccountID(uuid.NewString()),
		Subject:   domain.SubjectID("sub-" + uuid.NewString()),
		Email:     "jane@elsewhere.example",
		CompanyID: domain.CompanyID(uuid.NewString()),
		Profile: &domain.Profile{
			FirstName:   "Jane",
			LastName:    "Doe",
			CompanyName: company + "-elsewhere",
		},
		ProfileSetupComplete: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := repo.Create(ctx, elsewhere); err != nil {
		t.Fatalf("Create elsewhere: %v", err)
	}

	ps, err := repo.ListProfilesByCompany(ctx, company)
	if err != nil {
		t.Fatalf("ListProfilesByCompany: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("ListProfilesByCompany returned %d profiles, want 2: %+v", len(ps), ps)
	}
	for _, p := range ps {
		if p.CompanyName != company {
			t.Fatalf("profile from another company leaked: %+v", p)
		}
		if len(p.SocialLinks) != len(domain.SocialPlatforms) {
			t.Fatalf("socialLinks not defaulted: %+v", p.SocialLinks)
		}
	}

	all, err := repo.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(all) < 3 {
		t.Fatalf("ListProfiles returned %d profiles, want at least 3", len(all))
	}

	if _, err := repo.GetByID(ctx, domain.AccountID(uuid.NewString())); !errors.Is(err, accountrepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}
}
