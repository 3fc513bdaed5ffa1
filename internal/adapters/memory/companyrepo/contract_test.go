package companyrepo

import (
	"testing"

	"github.com/cardshare/digital-card-api/internal/adapters/contracttest"
	companyrepoport "github.com/cardshare/digital-card-api/internal/ports/out/companyrepo"
)

func TestContract_CompanyRepo(t *testing.T) {
	contracttest.RunCompanyRepo(t, func(t *testing.T) (companyrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
