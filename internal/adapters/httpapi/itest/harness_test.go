package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cardshare/digital-card-api/internal/adapters/httpapi"
	memaccountrepo "github.com/cardshare/digital-card-api/internal/adapters/memory/accountrepo"
	memclock "github.com/cardshare/digital-card-api/internal/adapters/memory/clock"
	memcompanyrepo "github.com/cardshare/digital-card-api/internal/adapters/memory/companyrepo"
	memidempotency "github.com/cardshare/digital-card-api/internal/adapters/memory/idempotency"
	pgaccountrepo "github.com/cardshare/digital-card-api/internal/adapters/postgres/accountrepo"
	pgcompanyrepo "github.com/cardshare/digital-card-api/internal/adapters/postgres/companyrepo"
	pgidempotency "github.com/cardshare/digital-card-api/internal/adapters/postgres/idempotency"
	postgres_testutil "github.com/cardshare/digital-card-api/internal/adapters/postgres/testutil"
	"github.com/cardshare/digital-card-api/internal/adapters/qrcode"
	sqliteaccountrepo "github.com/cardshare/digital-card-api/internal/adapters/sqlite/accountrepo"
	sqlitecompanyrepo "github.com/cardshare/digital-card-api/internal/adapters/sqlite/companyrepo"
	sqliteidempotency "github.com/cardshare/digital-card-api/internal/adapters/sqlite/idempotency"
	sqlite_testutil "github.com/cardshare/digital-card-api/internal/adapters/sqlite/testutil"
	"github.com/cardshare/digital-card-api/internal/app/accounts"
	"github.com/cardshare/digital-card-api/internal/app/cards"
	"github.com/cardshare/digital-card-api/internal/app/profiles"
	accountrepoport "github.com/cardshare/digital-card-api/internal/ports/out/accountrepo"
	companyrepoport "github.com/cardshare/digital-card-api/internal/ports/out/companyrepo"
	idempotencyport "github.com/cardshare/digital-card-api/internal/ports/out/idempotency"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendSQLite   backend = "sqlite"
	backendPostgres backend = "postgres"
)

const baseURL = "https://cards.example.com"

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "sqlite":
		return []backend{backendSQLite}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendSQLite, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|sqlite|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	const issuer = "itest-issuer"
	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var (
		accountRepo accountrepoport.Repository
		companyRepo companyrepoport.Repository
		idemStore   idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		accountRepo = pgaccountrepo.NewRepo(pool, issuer)
		companyRepo = pgcompanyrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool, issuer)
	case backendSQLite:
		db := sqlite_testutil.OpenTempDB(t)
		accountRepo = sqliteaccountrepo.NewRepo(db, issuer)
		companyRepo = sqlitecompanyrepo.NewRepo(db)
		idemStore = sqliteidempotency.NewStore(db, issuer)
	case backendMemory:
		accountRepo = memaccountrepo.NewRepo()
		companyRepo = memcompanyrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	api := httpapi.NewServer(
		accounts.NewService(accountRepo, companyRepo, clk, nil),
		profiles.NewService(accountRepo, clk, nil),
		cards.NewService(accountRepo, qrcode.NewEncoder(), nil, baseURL),
		idemStore,
		nil,
	)
	api.Clock = clk

	// Integration tests use the dev auth middleware to stay fully local and deterministic.
	// An empty default subject means requests MUST provide X-Debug-Subject.
	authMW := httpapi.NewDevAuthMiddleware("")
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{AuthMiddleware: authMW})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, subject string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
