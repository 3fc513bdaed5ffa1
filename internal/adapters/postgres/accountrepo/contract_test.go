package accountrepo

import (
	"testing"

	"github.com/cardshare/digital-card-api/internal/adapters/contracttest"
	"github.com/cardshare/digital-card-api/internal/adapters/postgres/testutil"
	accountrepoport "github.com/cardshare/digital-card-api/internal/ports/out/accountrepo"
)

func TestContract_PostgresAccountRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)
	issuer := "https://issuer.test"

	contracttest.RunAccountRepo(t, func(t *testing.T) (accountrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool, issuer), nil
	})
}
