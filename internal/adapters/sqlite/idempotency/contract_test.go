package idempotency

import (
	"testing"

	"github.com/cardshare/digital-card-api/internal/adapters/contracttest"
	"github.com/cardshare/digital-card-api/internal/adapters/sqlite/testutil"
	idempotencyport "github.com/cardshare/digital-card-api/internal/ports/out/idempotency"
)

func TestContract_SQLiteIdempotencyStore(t *testing.T) {
	t.Parallel()

	contracttest.RunIdempotencyStore(t, func(t *testing.T) (idempotencyport.Store, func()) {
		t.Helper()
		return NewStore(testutil.OpenTempDB(t), "https://issuer.test"), nil
	})
}
