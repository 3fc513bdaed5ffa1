package companyrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cardshare/digital-card-api/internal/adapters/sqlite"
	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/ports/out/companyrepo"
)

// Repo is a SQLite implementation of companyrepo.Repository.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, c domain.Company) error {
	if r.db == nil {
		return errors.New("nil sqlite db")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO companies (external_id, name, logo, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(c.ID), c.Name, c.Logo, c.CreatedBy, sqlite.FormatTime(c.CreatedAt))
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return companyrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.CompanyID) (domain.Company, error) {
	if r.db == nil {
		return domain.Company{}, errors.New("nil sqlite db")
	}
	var (
		c         domain.Company
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT external_id, name, logo, created_by, created_at
		FROM companies
		WHERE external_id = ?
	`, string(id)).Scan(&c.ID, &c.Name, &c.Logo, &c.CreatedBy, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Company{}, companyrepo.ErrNotFound
		}
		return domain.Company{}, err
	}
	if c.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return domain.Company{}, err
	}
	return c, nil
}
