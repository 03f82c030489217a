package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/flavorhub/community-api/internal/adapters/httpapi"
	localuserdir "github.com/flavorhub/community-api/internal/adapters/local/userdir"
	memclock "github.com/flavorhub/community-api/internal/adapters/memory/clock"
	memidempotency "github.com/flavorhub/community-api/internal/adapters/memory/idempotency"
	memkvslot "github.com/flavorhub/community-api/internal/adapters/memory/kvslot"
	pgidempotency "github.com/flavorhub/community-api/internal/adapters/postgres/idempotency"
	postgres_testutil "github.com/flavorhub/community-api/internal/adapters/postgres/testutil"
	pguserdir "github.com/flavorhub/community-api/internal/adapters/postgres/userdir"
	"github.com/flavorhub/community-api/internal/app/session"
	"github.com/flavorhub/community-api/internal/platform/password"
	idempotencyport "github.com/flavorhub/community-api/internal/ports/out/idempotency"
	"github.com/flavorhub/community-api/internal/ports/out/userdir"
)

type backend string

const (
	backendLocal  backend = "local"
	backendRemote backend = "remote"
)

const (
	adminEmail    = "adminaccess@datacheck.in"
	adminPassword = "seccheck@1234"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "local":
		return []backend{backendLocal}
	case "remote":
		return []backend{backendRemote}
	case "all":
		return []backend{backendLocal, backendRemote}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected local|remote|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	clk     *memclock.ManualClock
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	hasher, err := password.NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	var (
		dir       userdir.Directory
		idemStore idempotencyport.Store
	)

	switch b {
	case backendRemote:
		pool := postgres_testutil.OpenMigratedPool(t)
		dir = pguserdir.NewRepo(pool, hasher, clk)
		idemStore = pgidempotency.NewStore(pool)
	case backendLocal:
		dir = localuserdir.NewStore(memkvslot.NewStore(), localuserdir.DefaultSlotKey, hasher, clk)
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	sessions := session.NewManager(dir, session.NewStaticAdminCredentials(adminEmail, adminPassword), clk, nil)
	api := httpapi.NewServer(string(b), idemStore, nil)
	handler := httpapi.NewRouter(api, sessions, httpapi.RouterOptions{})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{baseURL: srv.URL, clk: clk}
}

// browser is one cookie-carrying client, standing in for one visitor.
func (s *testServer) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func (s *testServer) doJSON(t *testing.T, c *http.Client, method string, path string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.baseURL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type sessionResponse struct {
	Session struct {
		State string `json:"state"`
		User  *struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	} `json:"session"`
}

type usersResponse struct {
	Users []struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"users"`
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

func signup(email, pass string) map[string]any {
	return map[string]any{
		"fullName":         "Ada Cook",
		"email":            email,
		"socialHandle":     "@adacooks",
		"socialPassword":   "ig-secret",
		"password":         pass,
		"interestCategory": "home-cooking",
	}
}

func login(email, pass string) map[string]any {
	return map[string]any{"email": email, "password": pass}
}
