package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	os.Exit(m.Run())
}

// Fixture accounts used across the handler tests.
var (
	alice = models.User{ID: 1, Name: "Alice", Email: "alice@example.com", Role: models.RoleUser}
	bob   = models.User{ID: 2, Name: "Bob", Email: "bob@example.com", Role: models.RoleAgent}
	carol = models.User{ID: 3, Name: "Carol", Email: "carol@example.com", Role: models.RoleUser}
	dana  = models.User{ID: 4, Name: "Dana", Email: "dana@example.com", Role: models.RoleAdmin}
)

// newTestServer builds a Server over a mock database. The renderer is
// nil, so page handlers answer with a stub body; the tests assert on
// status codes, redirect targets, and JSON payloads.
func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Auth.Session.Secret = "test-secret-key"
	cfg.Auth.Session.CookieName = "hd_session"
	cfg.Auth.Session.TTL = time.Hour
	cfg.Auth.Password.BcryptCost = 4

	return NewServer(cfg, sqlx.NewDb(db, "sqlmock"), nil), mock
}

// sessionCookie mints a valid session cookie for the given account.
func sessionCookie(t *testing.T, s *Server, user models.User) *http.Cookie {
	t.Helper()
	token, err := s.Sessions().Issue(&user)
	require.NoError(t, err)
	return &http.Cookie{Name: "hd_session", Value: token}
}

func doRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func formRequest(path string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func getRequest(path string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func jsonRequest(path, body string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func sampleTime() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

// flashLocation builds the redirect target redirectFlash produces.
func flashLocation(path, level, msg string) string {
	return path + "?level=" + url.QueryEscape(level) + "&msg=" + url.QueryEscape(msg)
}
