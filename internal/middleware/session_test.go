package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

const testCookie = "hd_session"

func newSessionRouter(t *testing.T) (*gin.Engine, *auth.SessionManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sessions := auth.NewSessionManager("test-secret", time.Hour)
	policy := auth.NewPolicy()

	r := gin.New()
	protected := r.Group("/", Session(sessions, testCookie))
	protected.GET("/dashboard", func(c *gin.Context) {
		actx, _ := CurrentUser(c)
		c.String(http.StatusOK, "hello %s", actx.UserName)
	})
	protected.GET("/users", RequireRole(policy.CanManageUsers), func(c *gin.Context) {
		c.String(http.StatusOK, "users")
	})
	protected.POST("/tickets/1/update-ajax", RequireRole(policy.CanMutateTicket), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r, sessions
}

func sessionCookie(t *testing.T, sessions *auth.SessionManager, user *models.User) *http.Cookie {
	t.Helper()
	token, err := sessions.Issue(user)
	require.NoError(t, err)
	return &http.Cookie{Name: testCookie, Value: token}
}

func TestSessionMiddleware(t *testing.T) {
	r, sessions := newSessionRouter(t)
	alice := &models.User{ID: 1, Name: "alice", Email: "alice@example.com", Role: models.RoleUser}

	t.Run("valid session passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(sessionCookie(t, sessions, alice))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello alice", w.Body.String())
	})

	t.Run("missing session redirects to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "/login")
	})

	t.Run("invalid token clears cookie and redirects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: testCookie, Value: "garbage"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		setCookie := w.Header().Get("Set-Cookie")
		assert.Contains(t, setCookie, testCookie+"=")
	})

	t.Run("ajax request is redirected like any other", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "/login")
	})
}

func TestRequireRole(t *testing.T) {
	r, sessions := newSessionRouter(t)

	t.Run("admin allowed", func(t *testing.T) {
		admin := &models.User{ID: 2, Name: "root", Email: "root@example.com", Role: models.RoleAdmin}
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.AddCookie(sessionCookie(t, sessions, admin))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("agent passes the ticket mutation gate", func(t *testing.T) {
		agent := &models.User{ID: 3, Name: "bob", Email: "bob@example.com", Role: models.RoleAgent}
		req := httptest.NewRequest(http.MethodPost, "/tickets/1/update-ajax", nil)
		req.AddCookie(sessionCookie(t, sessions, agent))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("user soft-denied to dashboard", func(t *testing.T) {
		alice := &models.User{ID: 1, Name: "alice", Email: "alice@example.com", Role: models.RoleUser}
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.AddCookie(sessionCookie(t, sessions, alice))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "/dashboard")
	})
}
