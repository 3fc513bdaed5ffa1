package accountrepo

import (
	"context"

	"github.com/cardshare/digital-card-api/internal/domain"
)

// Repository provides access to persisted accounts and the profiles they own.
//
// Adapters own the store-boundary defaulting of profiles: every Profile they return
// has "" for unset strings and a complete SocialLinks set.
type Repository interface {
	Create(ctx context.Context, a domain.Account) error
	Update(ctx context.Context, a domain.Account) error

	GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error)
	GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.Account, error)

	// ListProfiles returns every set-up profile. Order is unspecified.
	ListProfiles(ctx context.Context) ([]domain.Profile, error)

	// ListProfilesByCompany returns set-up profiles whose CompanyName equals companyName
	// exactly. Order is unspecified.
	ListProfilesByCompany(ctx context.Context, companyName string) ([]domain.Profile, error)
}
