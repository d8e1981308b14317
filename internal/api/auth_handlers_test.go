package api

import (
	"net/http"
	"net/url"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func userRow(mock sqlmock.Sqlmock, passwordHash string) *sqlmock.Rows {
	return mock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
		AddRow(1, "Alice", "alice@example.com", passwordHash, "USER", sampleTime())
}

func TestIndexRedirectsToLoginWithoutSession(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(s.Router(), getRequest("/"))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestIndexRedirectsToDashboardWithSession(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(s.Router(), getRequest("/", sessionCookie(t, s, alice)))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestLoginSuccessSetsSessionCookie(t *testing.T) {
	s, mock := newTestServer(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("alice@example.com").
		WillReturnRows(userRow(mock, string(hash)))

	form := url.Values{"email": {"alice@example.com"}, "password": {"secret123"}}
	w := doRequest(s.Router(), formRequest("/login", form))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, flashLocation("/dashboard", "success", "Welcome, Alice!"), w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "hd_session", cookies[0].Name)
	claims, err := s.Sessions().Validate(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.Equal(t, "USER", claims.UserRole)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s, mock := newTestServer(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("alice@example.com").
		WillReturnRows(userRow(mock, string(hash)))

	form := url.Values{"email": {"alice@example.com"}, "password": {"wrong"}}
	w := doRequest(s.Router(), formRequest("/login", form))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, flashLocation("/login", "danger", "Invalid email or password."), w.Header().Get("Location"))
	assert.Empty(t, w.Result().Cookies())
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("nobody@example.com").
		WillReturnRows(mock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}))

	form := url.Values{"email": {"nobody@example.com"}, "password": {"whatever"}}
	w := doRequest(s.Router(), formRequest("/login", form))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, flashLocation("/login", "danger", "Invalid email or password."), w.Header().Get("Location"))
}

func TestLogoutClearsCookie(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(s.Router(), getRequest("/logout", sessionCookie(t, s, alice)))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, flashLocation("/login", "info", "You have been logged out."), w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "hd_session", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestRegisterRequiresAllFields(t *testing.T) {
	s, mock := newTestServer(t)

	form := url.Values{"name": {"Eve"}, "email": {""}, "password": {"pw"}, "confirm_password": {"pw"}}
	w := doRequest(s.Router(), formRequest("/register", form))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, flashLocation("/register", "warning", "All fields are required."), w.Header().Get("Location"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	s, mock := newTestServer(t)

	form := url.Values{
		"name":             {"Eve"},
		"email":            {"eve@example.com"},
		"password":         {"pw1"},
		"confirm_password": {"pw2"},
	}
	w := doRequest(s.Router(), formRequest("/register", form))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, flashLocation("/register", "warning", "Passwords do not match."), w.Header().Get("Location"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE email = ?")).
		WithArgs("alice@example.com").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(1))

	form := url.Values{
		"name":             {"Alice Again"},
		"email":            {"alice@example.com"},
		"password":         {"pw"},
		"confirm_password": {"pw"},
	}
	w := doRequest(s.Router(), formRequest("/register", form))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, flashLocation("/register", "danger", "Email already registered."), w.Header().Get("Location"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Registration always creates a USER account regardless of form input;
// only an admin can promote afterwards.
func TestRegisterCreatesUserRole(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE email = ?")).
		WithArgs("eve@example.com").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, role)")).
		WithArgs("Eve", "eve@example.com", sqlmock.AnyArg(), "USER").
		WillReturnResult(sqlmock.NewResult(9, 1))

	form := url.Values{
		"name":             {"Eve"},
		"email":            {"eve@example.com"},
		"password":         {"pw"},
		"confirm_password": {"pw"},
	}
	w := doRequest(s.Router(), formRequest("/register", form))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, flashLocation("/login", "success", "Registration successful! Please log in."), w.Header().Get("Location"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRequiresSession(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(s.Router(), getRequest("/dashboard"))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?level=warning&msg="+url.QueryEscape("You must be logged in to access this page."),
		w.Header().Get("Location"))
}

// Authentication failures redirect on every path: the JSON endpoints
// inherit the /login redirect instead of answering a 401.
func TestUnauthenticatedJSONEndpointsRedirect(t *testing.T) {
	s, _ := newTestServer(t)
	loginTarget := "/login?level=warning&msg=" + url.QueryEscape("You must be logged in to access this page.")

	t.Run("stats endpoint", func(t *testing.T) {
		w := doRequest(s.Router(), getRequest("/api/stats"))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, loginTarget, w.Header().Get("Location"))
	})

	t.Run("comment ajax endpoint", func(t *testing.T) {
		req := jsonRequest("/tickets/1/comments-ajax", `{"comment":"hi"}`)
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		w := doRequest(s.Router(), req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, loginTarget, w.Header().Get("Location"))
	})
}
