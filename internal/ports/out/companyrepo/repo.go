package companyrepo

import (
	"context"

	"github.com/cardshare/digital-card-api/internal/domain"
)

// Repository provides access to persisted companies.
type Repository interface {
	Create(ctx context.Context, c domain.Company) error
	GetByID(ctx context.Context, id domain.CompanyID) (domain.Company, error)
}
