package idempotency

import (
	"context"
	"time"

	"github.com/cardshare/digital-card-api/internal/domain"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies a request for idempotency purposes: key + subject + route + body hash.
// Route is the HTTP method plus the route template (e.g. "PATCH /profiles/me").
type Fingerprint struct {
	Key      Key
	Subject  domain.SubjectID
	Method   string
	Route    string
	BodyHash string
}

// Record is the stored response replayed for a duplicate request.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
	// Purge deletes records created before the cutoff and reports how many were removed.
	Purge(ctx context.Context, before time.Time) (int64, error)
}
