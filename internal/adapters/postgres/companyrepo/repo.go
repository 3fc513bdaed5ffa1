package companyrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/cardshare/digital-card-api/internal/adapters/postgres"
	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/ports/out/companyrepo"
)

// Repo is a Postgres implementation of companyrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, c domain.Company) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(c.ID))
	if err != nil {
		return fmt.Errorf("invalid company id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO companies (external_id, name, logo, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, c.Name, c.Logo, c.CreatedBy, c.CreatedAt.UTC())
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return companyrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.CompanyID) (domain.Company, error) {
	if r.pool == nil {
		return domain.Company{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Company{}, companyrepo.ErrNotFound
	}
	var (
		c         domain.Company
		createdAt time.Time
	)
	err = r.pool.QueryRow(ctx, `
		SELECT name, logo, created_by, created_at
		FROM companies
		WHERE external_id = $1
	`, uid).Scan(&c.Name, &c.Logo, &c.CreatedBy, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Company{}, companyrepo.ErrNotFound
		}
		return domain.Company{}, err
	}
	c.ID = domain.CompanyID(uid.String())
	c.CreatedAt = createdAt.UTC()
	return c, nil
}
