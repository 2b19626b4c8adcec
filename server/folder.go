package server

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/webmaild/webmaild/store"
)

func (s *Server) listFolders(c echo.Context) error {
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	folders, err := mb.ListFolders()
	if err != nil {
		return jsonError(c, 500, "failed to fetch folders")
	}
	return c.JSON(200, folders)
}

type folderRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) createFolder(c echo.Context) error {
	var req folderRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, 400, "invalid request body")
	}
	if req.ID == "" || req.Name == "" {
		return jsonError(c, 400, "id and name are required")
	}
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	folder, err := mb.CreateFolder(req.ID, req.Name)
	if err != nil {
		return jsonError(c, 500, "failed to create folder")
	}
	if folder == nil {
		return jsonError(c, 409, "folder id or name already exists")
	}
	return c.JSON(201, folder)
}

func (s *Server) updateFolder(c echo.Context) error {
	var req folderRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, 400, "invalid request body")
	}
	if req.Name == "" {
		return jsonError(c, 400, "name is required")
	}
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	folder, err := mb.UpdateFolder(c.Param("id"), req.Name)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return jsonError(c, 409, "folder name already exists")
		}
		return jsonError(c, 500, "failed to update folder")
	}
	if folder == nil {
		return jsonError(c, 404, "folder not found")
	}
	return c.JSON(200, folder)
}

func (s *Server) deleteFolder(c echo.Context) error {
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	deleted, err := mb.DeleteFolder(c.Param("id"))
	if err != nil {
		return jsonError(c, 500, "failed to delete folder")
	}
	if !deleted {
		return jsonError(c, 409, "folder does not exist or is not deletable")
	}
	return c.NoContent(204)
}
