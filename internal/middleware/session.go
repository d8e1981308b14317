package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

const authContextKey = "auth_context"

// Session validates the session cookie and stores the authenticated
// identity in the request context. Requests without a valid session are
// redirected to the login page, on every path: the JSON endpoints
// inherit the redirect too.
func Session(sessions *auth.SessionManager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			denyUnauthenticated(c, cookieName, false)
			return
		}

		claims, err := sessions.Validate(token)
		if err != nil {
			// Clear the stale cookie so the browser stops sending it.
			denyUnauthenticated(c, cookieName, true)
			return
		}

		c.Set(authContextKey, claims.Context())
		c.Next()
	}
}

func denyUnauthenticated(c *gin.Context, cookieName string, clearCookie bool) {
	if clearCookie {
		c.SetCookie(cookieName, "", -1, "/", "", false, true)
	}
	c.Redirect(http.StatusSeeOther, "/login?level=warning&msg="+url.QueryEscape("You must be logged in to access this page."))
	c.Abort()
}

// RequireRole allows the request through only when the policy predicate
// accepts the session role. Denials are soft: a redirect to the
// dashboard with a danger message, never a raw 403 page. The redirect
// applies to the -ajax routes as well.
func RequireRole(allow func(models.Role) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actx, ok := CurrentUser(c); ok && allow(actx.Role) {
			c.Next()
			return
		}
		c.Redirect(http.StatusSeeOther, "/dashboard?level=danger&msg="+url.QueryEscape("You do not have permission to access this page."))
		c.Abort()
	}
}

// CurrentUser retrieves the authenticated identity set by Session.
func CurrentUser(c *gin.Context) (auth.AuthContext, bool) {
	v, exists := c.Get(authContextKey)
	if !exists {
		return auth.AuthContext{}, false
	}
	actx, ok := v.(auth.AuthContext)
	return actx, ok
}

// SetCurrentUser injects an identity directly, for handler tests that
// bypass the cookie round trip.
func SetCurrentUser(c *gin.Context, actx auth.AuthContext) {
	c.Set(authContextKey, actx)
}
