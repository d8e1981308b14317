package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
)

// Router builds the HTTP surface. Unauthenticated session lifecycle
// routes sit at the top level; everything else goes through the session
// middleware, with staff and admin groups narrowing by role.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(gin.CustomRecovery(func(c *gin.Context, err interface{}) {
		s.render(c, http.StatusInternalServerError, "error.pongo2", gin.H{
			"error_code":    500,
			"error_message": "Internal server error",
		})
		c.Abort()
	}))

	r.GET("/", s.handleIndex)
	r.GET("/login", s.showLogin)
	r.POST("/login", s.handleLogin)
	r.GET("/register", s.showRegister)
	r.POST("/register", s.handleRegister)

	authed := r.Group("", middleware.Session(s.sessions, s.cookieName()))
	{
		authed.GET("/logout", s.handleLogout)
		authed.GET("/dashboard", s.handleDashboard)
		authed.GET("/api/stats", s.handleStats)

		authed.GET("/tickets", s.handleTicketList)
		authed.GET("/tickets/new", s.showTicketNew)
		authed.POST("/tickets/new", s.handleTicketNew)
		authed.GET("/tickets/:id", s.handleTicketDetail)
		authed.POST("/tickets/:id/comments", s.handleCommentAdd)
		authed.POST("/tickets/:id/comments-ajax", s.handleCommentAddAjax)

		staff := authed.Group("", middleware.RequireRole(s.policy.CanMutateTicket))
		{
			staff.POST("/tickets/:id/update", s.handleTicketUpdate)
			staff.POST("/tickets/:id/update-ajax", s.handleTicketUpdateAjax)
		}

		admin := authed.Group("", middleware.RequireRole(s.policy.CanManageUsers))
		{
			admin.GET("/users", s.handleUserList)
			admin.POST("/users/:id/role", s.handleUserRole)
			admin.POST("/users/:id/delete", s.handleUserDelete)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		s.render(c, http.StatusNotFound, "error.pongo2", gin.H{
			"error_code":    404,
			"error_message": "Page not found",
		})
	})

	return r
}
