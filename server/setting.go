package server

import (
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"
)

func (s *Server) listSettings(c echo.Context) error {
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	settings, err := mb.ListSettings()
	if err != nil {
		return jsonError(c, 500, "failed to fetch settings")
	}
	return c.JSON(200, settings)
}

func (s *Server) getSetting(c echo.Context) error {
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	setting, err := mb.GetSetting(c.Param("key"))
	if err != nil {
		return jsonError(c, 500, "failed to fetch setting")
	}
	if setting == nil {
		return jsonError(c, 404, "setting not found")
	}
	return c.JSON(200, setting)
}

// putSetting accepts any JSON value as the body and stores it verbatim.
func (s *Server) putSetting(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return jsonError(c, 400, "invalid request body")
	}
	if !json.Valid(body) {
		return jsonError(c, 400, "value must be valid JSON")
	}
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	setting, err := mb.PutSetting(c.Param("key"), string(body))
	if err != nil {
		return jsonError(c, 500, "failed to store setting")
	}
	return c.JSON(200, setting)
}
