package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// handleIndex sends the visitor to the dashboard or the login page.
func (s *Server) handleIndex(c *gin.Context) {
	if s.hasSession(c) {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

// hasSession reports whether the request carries a valid session
// cookie. Used by the unauthenticated routes, which sit outside the
// session middleware.
func (s *Server) hasSession(c *gin.Context) bool {
	token, err := c.Cookie(s.cookieName())
	if err != nil || token == "" {
		return false
	}
	_, err = s.sessions.Validate(token)
	return err == nil
}

func (s *Server) showLogin(c *gin.Context) {
	if s.hasSession(c) {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	s.render(c, http.StatusOK, "login.pongo2", gin.H{})
}

// handleLogin handles the login form submission.
func (s *Server) handleLogin(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := s.users.GetByEmail(c.Request.Context(), email)
	if err != nil || !s.hasher.VerifyPassword(password, user.PasswordHash) {
		redirectFlash(c, "/login", "danger", "Invalid email or password.")
		return
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		log.Printf("Failed to issue session for user %d: %v", user.ID, err)
		redirectFlash(c, "/login", "danger", "Login failed, please try again.")
		return
	}

	s.setSessionCookie(c, token)
	redirectFlash(c, "/dashboard", "success", fmt.Sprintf("Welcome, %s!", user.Name))
}

// handleLogout clears the session cookie.
func (s *Server) handleLogout(c *gin.Context) {
	s.clearSessionCookie(c)
	redirectFlash(c, "/login", "info", "You have been logged out.")
}

func (s *Server) showRegister(c *gin.Context) {
	if s.hasSession(c) {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	s.render(c, http.StatusOK, "register.pongo2", gin.H{})
}

// handleRegister creates a new USER account. Registration never grants
// a staff role; only an admin can promote later.
func (s *Server) handleRegister(c *gin.Context) {
	name := c.PostForm("name")
	email := c.PostForm("email")
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")

	if name == "" || email == "" || password == "" {
		redirectFlash(c, "/register", "warning", "All fields are required.")
		return
	}
	if password != confirmPassword {
		redirectFlash(c, "/register", "warning", "Passwords do not match.")
		return
	}

	exists, err := s.users.EmailExists(c.Request.Context(), email)
	if err != nil {
		log.Printf("Failed to check email %q: %v", email, err)
		redirectFlash(c, "/register", "danger", "Registration failed, please try again.")
		return
	}
	if exists {
		redirectFlash(c, "/register", "danger", "Email already registered.")
		return
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		redirectFlash(c, "/register", "danger", "Registration failed, please try again.")
		return
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.users.Create(c.Request.Context(), user); err != nil {
		log.Printf("Failed to create user %q: %v", email, err)
		redirectFlash(c, "/register", "danger", "Registration failed, please try again.")
		return
	}

	redirectFlash(c, "/login", "success", "Registration successful! Please log in.")
}
