package accountrepo

import (
	"context"
	"sync"

	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/ports/out/accountrepo"
)

// Repo is an in-memory implementation of accountrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID    map[domain.AccountID]domain.Account
	idBySub map[domain.SubjectID]domain.AccountID
	// order is creation order, the order profiles are listed in.
	order []domain.AccountID
}

func NewRepo() *Repo {
	return &Repo{
		byID:    make(map[domain.AccountID]domain.Account),
		idBySub: make(map[domain.SubjectID]domain.AccountID),
	}
}

func (r *Repo) Create(ctx context.Context, a domain.Account) error {
	_ = ctx
	if a.ID == "" {
		return accountrepo.ErrAlreadyExists // treat empty ID as invalid
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; ok {
		return accountrepo.ErrAlreadyExists
	}
	if existingID, ok := r.idBySub[a.Subject]; ok && existingID != "" {
		return accountrepo.ErrSubjectAlreadyBound
	}

	r.byID[a.ID] = cloneAccount(a)
	r.idBySub[a.Subject] = a.ID
	r.order = append(r.order, a.ID)
	return nil
}

func (r *Repo) Update(ctx context.Context, a domain.Account) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[a.ID]
	if !ok {
		return accountrepo.ErrNotFound
	}
	// Subject binding is immutable.
	if existing.Subject != a.Subject {
		return accountrepo.ErrSubjectAlreadyBound
	}

	r.byID[a.ID] = cloneAccount(a)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return domain.Account{}, accountrepo.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idBySub[subject]
	if !ok {
		return domain.Account{}, accountrepo.ErrNotFound
	}
	a, ok := r.byID[id]
	if !ok {
		return domain.Account{}, accountrepo.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (r *Repo) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	return r.listProfiles(ctx, func(domain.Profile) bool { return true })
}

func (r *Repo) ListProfilesByCompany(ctx context.Context, companyName string) ([]domain.Profile, error) {
	return r.listProfiles(ctx, func(p domain.Profile) bool { return p.CompanyName == companyName })
}

func (r *Repo) listProfiles(ctx context.Context, keep func(domain.Profile) bool) ([]domain.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Profile, 0)
	for _, id := range r.order {
		a := r.byID[id]
		if a.Profile == nil || !keep(*a.Profile) {
			continue
		}
		out = append(out, defaultProfile(*a.Profile))
	}
	return out, nil
}

func cloneAccount(a domain.Account) domain.Account {
	out := a
	if a.Profile != nil {
		p := defaultProfile(*a.Profile)
		out.Profile = &p
	}
	return out
}

func defaultProfile(p domain.Profile) domain.Profile {
	out := p.Clone()
	out.SocialLinks = p.SocialLinks.Complete()
	return out
}
