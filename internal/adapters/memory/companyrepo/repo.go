package companyrepo

import (
	"context"
	"sync"

	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/ports/out/companyrepo"
)

// Repo is an in-memory implementation of companyrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.CompanyID]domain.Company
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.CompanyID]domain.Company)}
}

func (r *Repo) Create(ctx context.Context, c domain.Company) error {
	_ = ctx
	if c.ID == "" {
		return companyrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; ok {
		return companyrepo.ErrAlreadyExists
	}
	r.byID[c.ID] = c
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.CompanyID) (domain.Company, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return domain.Company{}, companyrepo.ErrNotFound
	}
	return c, nil
}
