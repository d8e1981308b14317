package api

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/shared"
)

// Server wires the handler layer together: repositories, the
// authorization policy, session management, and the template renderer.
type Server struct {
	cfg      *config.Config
	policy   *auth.Policy
	sessions *auth.SessionManager
	hasher   *auth.PasswordHasher
	renderer *shared.TemplateRenderer
	users    *repository.UserRepository
	tickets  *repository.TicketRepository
	comments *repository.CommentRepository
}

// NewServer creates the handler layer over the given database handle.
func NewServer(cfg *config.Config, db *sqlx.DB, renderer *shared.TemplateRenderer) *Server {
	return &Server{
		cfg:      cfg,
		policy:   auth.NewPolicy(),
		sessions: auth.NewSessionManager(cfg.Auth.Session.Secret, cfg.Auth.Session.TTL),
		hasher:   auth.NewPasswordHasher(cfg.Auth.Password.BcryptCost),
		renderer: renderer,
		users:    repository.NewUserRepository(db),
		tickets:  repository.NewTicketRepository(db),
		comments: repository.NewCommentRepository(db),
	}
}

// Sessions exposes the session manager, for tests that mint cookies.
func (s *Server) Sessions() *auth.SessionManager {
	return s.sessions
}

func (s *Server) cookieName() string {
	return s.cfg.Auth.Session.CookieName
}

// setSessionCookie installs the session token for the configured TTL.
func (s *Server) setSessionCookie(c *gin.Context, token string) {
	maxAge := int(s.sessions.TTL().Seconds())
	c.SetCookie(s.cookieName(), token, maxAge, "/", "", s.cfg.Auth.Session.Secure, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetCookie(s.cookieName(), "", -1, "/", "", s.cfg.Auth.Session.Secure, true)
}

// render draws a template with the current user and any flash message
// from the redirect query parameters merged in.
func (s *Server) render(c *gin.Context, code int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if actx, ok := middleware.CurrentUser(c); ok {
		data["current_user"] = actx
	}
	if msg := c.Query("msg"); msg != "" {
		data["flash_msg"] = msg
		level := c.Query("level")
		if level == "" {
			level = "info"
		}
		data["flash_level"] = level
	}
	s.renderer.HTML(c, code, name, data)
}

// redirectFlash is a soft failure or confirmation: a redirect carrying
// a transient message for the target page to display.
func redirectFlash(c *gin.Context, location, level, msg string) {
	sep := "?"
	if u, err := url.Parse(location); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	c.Redirect(http.StatusSeeOther,
		location+sep+"level="+url.QueryEscape(level)+"&msg="+url.QueryEscape(msg))
}
