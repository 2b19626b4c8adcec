package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/webmaild/webmaild/store"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// register is open only while no user exists; after that it is an
// admin-only operation.
func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, 400, "invalid request body")
	}
	if !strings.Contains(req.Email, "@") {
		return jsonError(c, 400, "invalid email address")
	}
	if len(req.Password) < 8 {
		return jsonError(c, 400, "password must be at least 8 characters")
	}

	auth, err := s.authStore()
	if err != nil {
		return jsonError(c, 500, "auth store unavailable")
	}
	hasUsers, err := auth.HasUsers()
	if err != nil {
		return jsonError(c, 500, "auth store unavailable")
	}
	if hasUsers {
		info, err := s.currentSession(c)
		if err != nil {
			return jsonError(c, 500, "session lookup failed")
		}
		if info == nil {
			return jsonError(c, 401, "missing or invalid session")
		}
		if !info.IsAdmin {
			return jsonError(c, 403, "registration requires admin")
		}
	}

	user, err := auth.Register(req.Email, req.Password, !hasUsers)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return jsonError(c, 409, "email already registered")
		}
		return jsonError(c, 500, "registration failed")
	}
	return c.JSON(201, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, 400, "invalid request body")
	}

	auth, err := s.authStore()
	if err != nil {
		return jsonError(c, 500, "auth store unavailable")
	}
	session, err := auth.Login(req.Email, req.Password)
	if err != nil {
		return jsonError(c, 500, "login failed")
	}
	if session == nil {
		// Unknown address and wrong password answer identically.
		return jsonError(c, 401, "invalid credentials")
	}

	c.SetCookie(&http.Cookie{
		Name:     "session",
		Value:    session.ID,
		Path:     "/",
		Expires:  time.UnixMilli(session.ExpiresAt),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(200, map[string]any{
		"token":      session.ID,
		"expires_at": session.ExpiresAt,
	})
}

func (s *Server) logout(c echo.Context) error {
	auth, err := s.authStore()
	if err != nil {
		return jsonError(c, 500, "auth store unavailable")
	}
	if err := auth.Logout(sessionToken(c)); err != nil {
		return jsonError(c, 500, "logout failed")
	}
	c.SetCookie(&http.Cookie{
		Name:    "session",
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
	})
	return c.NoContent(204)
}

func (s *Server) me(c echo.Context) error {
	info := sessionFrom(c)
	return c.JSON(200, map[string]any{
		"user_id":    info.UserID,
		"email":      info.Email,
		"is_admin":   info.IsAdmin,
		"expires_at": info.Session.ExpiresAt,
	})
}
