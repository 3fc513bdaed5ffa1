package accountrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cardshare/digital-card-api/internal/adapters/profiledoc"
	"github.com/cardshare/digital-card-api/internal/adapters/sqlite"
	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/ports/out/accountrepo"
)

// Repo is a SQLite implementation of accountrepo.Repository.
type Repo struct {
	db     *sql.DB
	issuer string
}

func NewRepo(db *sql.DB, jwtIssuer string) *Repo {
	return &Repo{db: db, issuer: jwtIssuer}
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

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Repo) Create(ctx context.Context, a domain.Account) error {
	if r.db == nil {
		return errors.New("nil sqlite db")
	}
	doc, companyName, err := encodeProfile(a.Profile)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := getAccount(ctx, tx, ` WHERE external_id = ?`, string(a.ID)); err == nil {
		return accountrepo.ErrAlreadyExists
	} else if !errors.Is(err, accountrepo.ErrNotFound) {
		return err
	}
	if _, err := getAccount(ctx, tx, ` WHERE subject_iss = ? AND subject_sub = ?`, r.issuer, string(a.Subject)); err == nil {
		return accountrepo.ErrSubjectAlreadyBound
	} else if !errors.Is(err, accountrepo.ErrNotFound) {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (
			external_id,
			subject_iss,
			subject_sub,
			email,
			company_external_id,
			profile,
			profile_company_name,
			profile_setup_complete,
			created_at,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(a.ID),
		r.issuer,
		string(a.Subject),
		a.Email,
		string(a.CompanyID),
		doc,
		companyName,
		a.ProfileSetupComplete,
		sqlite.FormatTime(a.CreatedAt),
		sqlite.FormatTime(a.UpdatedAt),
	)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return accountrepo.ErrAlreadyExists
		}
		return err
	}
	return tx.Commit()
}

func (r *Repo) Update(ctx context.Context, a domain.Account) error {
	if r.db == nil {
		return errors.New("nil sqlite db")
	}
	doc, companyName, err := encodeProfile(a.Profile)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := getAccount(ctx, tx, ` WHERE external_id = ?`, string(a.ID))
	if err != nil {
		return err
	}
	if existing.Subject != a.Subject {
		return accountrepo.ErrSubjectAlreadyBound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET email = ?,
		    profile = ?,
		    profile_company_name = ?,
		    profile_setup_complete = ?,
		    updated_at = ?
		WHERE external_id = ?
	`,
		a.Email,
		doc,
		companyName,
		a.ProfileSetupComplete,
		sqlite.FormatTime(a.UpdatedAt),
		string(a.ID),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repo) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	if r.db == nil {
		return domain.Account{}, errors.New("nil sqlite db")
	}
	return getAccount(ctx, r.db, ` WHERE external_id = ?`, string(id))
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.Account, error) {
	if r.db == nil {
		return domain.Account{}, errors.New("nil sqlite db")
	}
	return getAccount(ctx, r.db, ` WHERE subject_iss = ? AND subject_sub = ?`, r.issuer, string(subject))
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
		WHERE profile IS NOT NULL AND profile_company_name = ?
		ORDER BY created_at ASC, external_id ASC
	`, companyName)
}

func (r *Repo) listProfiles(ctx context.Context, query string, args ...any) ([]domain.Profile, error) {
	if r.db == nil {
		return nil, errors.New("nil sqlite db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Profile, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		p, err := profiledoc.Decode([]byte(doc))
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

// encodeProfile returns the document and the denormalized company name used for lookups.
func encodeProfile(p *domain.Profile) (sql.NullString, sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, sql.NullString{}, nil
	}
	b, err := profiledoc.Encode(*p)
	if err != nil {
		return sql.NullString{}, sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, sql.NullString{String: p.CompanyName, Valid: true}, nil
}

func getAccount(ctx context.Context, q queryRower, where string, args ...any) (domain.Account, error) {
	var (
		a         domain.Account
		doc       sql.NullString
		createdAt string
		updatedAt string
	)
	err := q.QueryRowContext(ctx, selectAccount+where, args...).Scan(
		&a.ID,
		&a.Subject,
		&a.Email,
		&a.CompanyID,
		&doc,
		&a.ProfileSetupComplete,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, accountrepo.ErrNotFound
		}
		return domain.Account{}, err
	}
	if a.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return domain.Account{}, err
	}
	if a.UpdatedAt, err = sqlite.ParseTime(updatedAt); err != nil {
		return domain.Account{}, err
	}
	if doc.Valid {
		p, err := profiledoc.Decode([]byte(doc.String))
		if err != nil {
			return domain.Account{}, err
		}
		a.Profile = &p
	}
	return a, nil
}
