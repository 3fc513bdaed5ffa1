package accountrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/cardshare/digital-card-api/internal/adapters/postgres"
	"github.com/cardshare/digital-card-api/internal/adapters/profiledoc"
	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/ports/out/accountrepo"
)

// Repo is a Postgres implementation of accountrepo.Repository.
// Profiles are stored as a JSONB document on the account row.
type Repo struct {
	pool   *pgxpool.Pool
	issuer string
}

func NewRepo(pool *pgxpool.Pool, jwtIssuer string) *Repo {
	return &Repo{pool: pool, issuer: jwtIssuer}
}

const selectAccount = `
	SELECT
		external_id,
		subject_sub,
		email,
		company_external_id,
		profile,
		profile_setup_complete,
		created_at,
		updated_at
	FROM accounts
`

func (r *Repo) Create(ctx context.Context, a domain.Account) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(a.ID))
	if err != nil {
		return fmt.Errorf("invalid account id: %w", err)
	}
	companyID, err := uuid.Parse(string(a.CompanyID))
	if err != nil {
		return fmt.Errorf("invalid company id: %w", err)
	}
	doc, err := encodeProfile(a.Profile)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO accounts (
			external_id,
			subject_iss,
			subject_sub,
			email,
			company_external_id,
			profile,
			profile_setup_complete,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		id,
		r.issuer,
		string(a.Subject),
		a.Email,
		companyID,
		doc,
		a.ProfileSetupComplete,
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			switch pe.ConstraintName {
			case "accounts_subject_unique":
				return accountrepo.ErrSubjectAlreadyBound
			case "accounts_external_id_unique":
				return accountrepo.ErrAlreadyExists
			}
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, a domain.Account) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(a.ID))
	if err != nil {
		return accountrepo.ErrNotFound
	}
	doc, err := encodeProfile(a.Profile)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		existing, err := scanAccount(tx.QueryRow(ctx, selectAccount+` WHERE external_id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if existing.Subject != a.Subject {
			return accountrepo.ErrSubjectAlreadyBound
		}

		ct, err := tx.Exec(ctx, `
			UPDATE accounts
			SET email = $2,
			    profile = $3,
			    profile_setup_complete = $4,
			    updated_at = $5
			WHERE external_id = $1
		`,
			id,
			a.Email,
			doc,
			a.ProfileSetupComplete,
			a.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return accountrepo.ErrNotFound
		}
		return nil
	})
}

func (r *Repo) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	if r.pool == nil {
		return domain.Account{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Account{}, accountrepo.ErrNotFound
	}
	return scanAccount(r.pool.QueryRow(ctx, selectAccount+` WHERE external_id = $1`, uid))
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.Account, error) {
	if r.pool == nil {
		return domain.Account{}, errors.New("nil postgres pool")
	}
	return scanAccount(r.pool.QueryRow(ctx, selectAccount+` WHERE subject_iss = $1 AND subject_sub = $2`, r.issuer, string(subject)))
}

func (r *Repo) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	return r.listProfiles(ctx, `
		SELECT profile FROM accounts
		WHERE profile IS NOT NULL
		ORDER BY created_at ASC, external_id ASC
	`)
}

func (r *Repo) ListProfilesByCompany(ctx context.Context, companyName string) ([]domain.Profile, error) {
	return r.listProfiles(ctx, `
		SELECT profile FROM accounts
		WHERE profile IS NOT NULL AND profile ->> 'companyName' = $1
		ORDER BY created_at ASC, external_id ASC
	`, companyName)
}

func (r *Repo) listProfiles(ctx context.Context, query string, args ...any) ([]domain.Profile, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Profile, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		p, err := profiledoc.Decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// --- helpers ---

func encodeProfile(p *domain.Profile) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return profiledoc.Encode(*p)
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		externalID uuid.UUID
		sub        string
		email      string
		companyID  uuid.UUID
		doc        []byte
		setup      bool
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := row.Scan(
		&externalID,
		&sub,
		&email,
		&companyID,
		&doc,
		&setup,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, accountrepo.ErrNotFound
		}
		return domain.Account{}, err
	}
	a := domain.Account{
		ID:                   domain.AccountID(externalID.String()),
		Subject:              domain.SubjectID(sub),
		Email:                email,
		CompanyID:            domain.CompanyID(companyID.String()),
		ProfileSetupComplete: setup,
		CreatedAt:            createdAt.UTC(),
		UpdatedAt:            updatedAt.UTC(),
	}
	if doc != nil {
		p, err := profiledoc.Decode(doc)
		if err != nil {
			return domain.Account{}, err
		}
		a.Profile = &p
	}
	return a, nil
}
