package server

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/webmaild/webmaild/objectstorage"
	"github.com/webmaild/webmaild/store"
)

const sessionContextKey = "session"

// sessionToken pulls the bearer credential from the Authorization header
// or the session cookie.
func sessionToken(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	if cookie, err := c.Cookie("session"); err == nil {
		return cookie.Value
	}
	return ""
}

// currentSession returns the validated session, or nil when the request
// carries no valid token.
func (s *Server) currentSession(c echo.Context) (*store.SessionInfo, error) {
	token := sessionToken(c)
	if token == "" {
		return nil, nil
	}
	auth, err := s.authStore()
	if err != nil {
		return nil, err
	}
	return auth.ValidateSession(token)
}

func sessionFrom(c echo.Context) *store.SessionInfo {
	info, _ := c.Get(sessionContextKey).(*store.SessionInfo)
	return info
}

func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		info, err := s.currentSession(c)
		if err != nil {
			return jsonError(c, 500, "session lookup failed")
		}
		if info == nil {
			return jsonError(c, 401, "missing or invalid session")
		}
		c.Set(sessionContextKey, info)
		return next(c)
	}
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		info := sessionFrom(c)
		if info == nil || !info.IsAdmin {
			return jsonError(c, 403, "admin required")
		}
		return next(c)
	}
}

// requireMailbox confirms the mailbox exists (its configuration document
// is present in the blob store) and that the caller holds a grant for it,
// before any store operation runs.
func (s *Server) requireMailbox(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		mailboxID := c.Param("mailbox")
		if mailboxID == "" || mailboxID == store.AuthKey {
			return jsonError(c, 404, "mailbox not found")
		}
		exists, err := s.blobs.Exists(objectstorage.ConfigDocKey(mailboxID))
		if err != nil {
			return jsonError(c, 500, "mailbox lookup failed")
		}
		if !exists {
			return jsonError(c, 404, "mailbox not found")
		}

		info := sessionFrom(c)
		if !info.IsAdmin {
			auth, err := s.authStore()
			if err != nil {
				return jsonError(c, 500, "grant lookup failed")
			}
			grant, err := auth.GrantFor(info.UserID, mailboxID)
			if err != nil {
				return jsonError(c, 500, "grant lookup failed")
			}
			if grant == nil {
				return jsonError(c, 403, "no access to this mailbox")
			}
		}
		return next(c)
	}
}
