package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/cardshare/digital-card-api/internal/adapters/postgres"
	"github.com/cardshare/digital-card-api/internal/ports/out/idempotency"
)

var errNilPool = errors.New("idempotency store: nil postgres pool")

// Store keeps PATCH replay records in idempotency_keys. Every row carries the issuer the
// store was opened for, so two identity providers sharing a database never see each
// other's records.
type Store struct {
	pool   *pgxpool.Pool
	issuer string
}

func NewStore(pool *pgxpool.Pool, jwtIssuer string) *Store {
	return &Store{pool: pool, issuer: jwtIssuer}
}

// keyArgs are the primary-key values of fp in column order:
// idempotency_key, subject_iss, subject_sub, method, route, body_hash.
func (s *Store) keyArgs(fp idempotency.Fingerprint) []any {
	return []any{string(fp.Key), s.issuer, string(fp.Subject), fp.Method, fp.Route, fp.BodyHash}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.pool == nil {
		return idempotency.Record{}, false, errNilPool
	}
	var rec idempotency.Record
	err := s.pool.QueryRow(ctx, `
		SELECT status_code, content_type, body, created_at
		FROM idempotency_keys
		WHERE (idempotency_key, subject_iss, subject_sub, method, route, body_hash) = ($1, $2, $3, $4, $5, $6)
	`, s.keyArgs(fp)...).Scan(&rec.StatusCode, &rec.ContentType, &rec.Body, &rec.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return idempotency.Record{}, false, nil
	case err != nil:
		return idempotency.Record{}, false, fmt.Errorf("load replay record %q: %w", fp.Key, err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, true, nil
}

// Put upserts: a later response for the same fingerprint replaces the earlier one.
func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.pool == nil {
		return errNilPool
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.Body == nil {
		rec.Body = []byte{}
	}
	args := append(s.keyArgs(fp), rec.StatusCode, rec.ContentType, rec.Body, rec.CreatedAt.UTC())
	_, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_keys
			(idempotency_key, subject_iss, subject_sub, method, route, body_hash,
			 status_code, content_type, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT idempotency_keys_pkey DO UPDATE
		SET (status_code, content_type, body, created_at) =
			(EXCLUDED.status_code, EXCLUDED.content_type, EXCLUDED.body, EXCLUDED.created_at)
	`, args...)
	if err == nil {
		return nil
	}
	if pe, ok := postgres.AsPgError(err); ok {
		return fmt.Errorf("save replay record %q (sqlstate %s): %w", fp.Key, pe.Code, err)
	}
	return fmt.Errorf("save replay record %q: %w", fp.Key, err)
}

// Purge deletes this issuer's records created before the cutoff.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	if s.pool == nil {
		return 0, errNilPool
	}
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM idempotency_keys
		WHERE subject_iss = $1 AND created_at < $2
	`, s.issuer, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge replay records: %w", err)
	}
	return tag.RowsAffected(), nil
}
