package server

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

func (s *Server) listContacts(c echo.Context) error {
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	contacts, err := mb.ListContacts()
	if err != nil {
		return jsonError(c, 500, "failed to fetch contacts")
	}
	return c.JSON(200, contacts)
}

type contactRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (s *Server) createContact(c echo.Context) error {
	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, 400, "invalid request body")
	}
	if req.Email == nil || !strings.Contains(*req.Email, "@") {
		return jsonError(c, 400, "valid email is required")
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	contact, err := mb.CreateContact(name, *req.Email)
	if err != nil {
		return jsonError(c, 500, "failed to create contact")
	}
	return c.JSON(201, contact)
}

func (s *Server) updateContact(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return jsonError(c, 400, "invalid contact id")
	}
	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, 400, "invalid request body")
	}
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	contact, err := mb.UpdateContact(id, req.Name, req.Email)
	if err != nil {
		return jsonError(c, 500, "failed to update contact")
	}
	if contact == nil {
		return jsonError(c, 404, "contact not found")
	}
	return c.JSON(200, contact)
}

func (s *Server) deleteContact(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return jsonError(c, 400, "invalid contact id")
	}
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	deleted, err := mb.DeleteContact(id)
	if err != nil {
		return jsonError(c, 500, "failed to delete contact")
	}
	if !deleted {
		return jsonError(c, 404, "contact not found")
	}
	return c.NoContent(204)
}
