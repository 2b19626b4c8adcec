package server

import (
	"bytes"
	"encoding/json"
	"log"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/webmaild/webmaild/model"
	"github.com/webmaild/webmaild/objectstorage"
)

var mailboxIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9@._-]*$`)

// configDoc is the mailbox configuration document stored as a JSON blob.
// Its presence is the existence check for the mailbox.
type configDoc struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	CreatedAt int64  `json:"created_at"`
}

func (s *Server) listMailboxes(c echo.Context) error {
	info := sessionFrom(c)
	auth, err := s.authStore()
	if err != nil {
		return jsonError(c, 500, "auth store unavailable")
	}
	grants, err := auth.GrantsForUser(info.UserID)
	if err != nil {
		return jsonError(c, 500, "grant lookup failed")
	}
	return c.JSON(200, grants)
}

type createMailboxRequest struct {
	ID string `json:"id"`
}

func (s *Server) createMailbox(c echo.Context) error {
	var req createMailboxRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, 400, "invalid request body")
	}
	if !mailboxIDPattern.MatchString(req.ID) {
		return jsonError(c, 400, "invalid mailbox id")
	}

	key := objectstorage.ConfigDocKey(req.ID)
	exists, err := s.blobs.Exists(key)
	if err != nil {
		return jsonError(c, 500, "mailbox lookup failed")
	}
	if exists {
		return jsonError(c, 409, "mailbox already exists")
	}

	info := sessionFrom(c)
	doc, err := json.Marshal(configDoc{
		ID:        req.ID,
		Owner:     info.UserID,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return jsonError(c, 500, "mailbox creation failed")
	}
	if err := s.blobs.Put(key, "application/json", bytes.NewReader(doc)); err != nil {
		return jsonError(c, 500, "mailbox creation failed")
	}

	auth, err := s.authStore()
	if err != nil {
		return jsonError(c, 500, "auth store unavailable")
	}
	if err := auth.Grant(info.UserID, req.ID, model.RoleOwner); err != nil {
		return jsonError(c, 500, "grant failed")
	}
	return c.JSON(201, map[string]string{"id": req.ID})
}

// deleteMailbox removes the configuration document and every blob under
// the mailbox prefix. The mailbox ceases to exist as soon as the config
// document is gone; leftover blobs from a partial delete are unreachable
// garbage, not an error.
func (s *Server) deleteMailbox(c echo.Context) error {
	mailboxID := c.Param("mailbox")
	exists, err := s.blobs.Exists(objectstorage.ConfigDocKey(mailboxID))
	if err != nil {
		return jsonError(c, 500, "mailbox lookup failed")
	}
	if !exists {
		return jsonError(c, 404, "mailbox not found")
	}

	keys, err := s.blobs.ListPrefix(objectstorage.MailboxPrefix(mailboxID))
	if err != nil {
		return jsonError(c, 500, "mailbox listing failed")
	}
	if err := s.blobs.Delete(objectstorage.ConfigDocKey(mailboxID)); err != nil {
		return jsonError(c, 500, "mailbox deletion failed")
	}
	for _, key := range keys {
		if key == objectstorage.ConfigDocKey(mailboxID) {
			continue
		}
		if err := s.blobs.Delete(key); err != nil {
			log.Printf("delete mailbox blob %s: %v", key, err)
		}
	}
	return c.NoContent(204)
}

type grantRequest struct {
	UserID    string     `json:"user_id"`
	MailboxID string     `json:"mailbox_id"`
	Role      model.Role `json:"role"`
}

func (s *Server) grant(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, 400, "invalid request body")
	}
	if req.UserID == "" || req.MailboxID == "" || !req.Role.Valid() {
		return jsonError(c, 400, "user_id, mailbox_id and a valid role are required")
	}
	auth, err := s.authStore()
	if err != nil {
		return jsonError(c, 500, "auth store unavailable")
	}
	if err := auth.Grant(req.UserID, req.MailboxID, req.Role); err != nil {
		return jsonError(c, 500, "grant failed")
	}
	return c.NoContent(204)
}

func (s *Server) revoke(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, 400, "invalid request body")
	}
	auth, err := s.authStore()
	if err != nil {
		return jsonError(c, 500, "auth store unavailable")
	}
	if err := auth.Revoke(req.UserID, req.MailboxID); err != nil {
		return jsonError(c, 500, "revoke failed")
	}
	return c.NoContent(204)
}
