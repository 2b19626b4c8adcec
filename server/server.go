// Package server wires the HTTP API. Handlers gate on session validity
// and mailbox existence, shape responses, and translate store sentinels
// into statuses; business logic stays in the store.
package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/webmaild/webmaild/config"
	"github.com/webmaild/webmaild/objectstorage"
	"github.com/webmaild/webmaild/store"
	"github.com/webmaild/webmaild/transfer"
)

type Server struct {
	conf       *config.Config
	dispatcher *store.Dispatcher
	blobs      *objectstorage.Client
	deliverer  *transfer.Deliverer
}

func New(conf *config.Config, dispatcher *store.Dispatcher, blobs *objectstorage.Client, deliverer *transfer.Deliverer) *echo.Echo {
	s := &Server{
		conf:       conf,
		dispatcher: dispatcher,
		blobs:      blobs,
		deliverer:  deliverer,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	e.POST("/api/auth/register", s.register)
	e.POST("/api/auth/login", s.login)
	e.POST("/api/auth/logout", s.logout, s.requireSession)
	e.GET("/api/auth/me", s.me, s.requireSession)

	e.GET("/api/mailboxes", s.listMailboxes, s.requireSession)
	e.POST("/api/mailboxes", s.createMailbox, s.requireSession)
	e.DELETE("/api/mailboxes/:mailbox", s.deleteMailbox, s.requireSession, s.requireAdmin)

	admin := e.Group("/api/admin", s.requireSession, s.requireAdmin)
	admin.POST("/grants", s.grant)
	admin.DELETE("/grants", s.revoke)

	mb := e.Group("/api/mailboxes/:mailbox", s.requireSession, s.requireMailbox)
	mb.GET("/emails", s.listEmails)
	mb.GET("/emails/search", s.searchEmails)
	mb.POST("/emails", s.createEmail)
	mb.POST("/emails/send", s.sendEmail)
	mb.GET("/emails/:id", s.getEmail)
	mb.PATCH("/emails/:id", s.updateEmail)
	mb.POST("/emails/:id/move", s.moveEmail)
	mb.DELETE("/emails/:id", s.deleteEmail)
	mb.GET("/emails/:id/attachments/:att", s.downloadAttachment)

	mb.GET("/folders", s.listFolders)
	mb.POST("/folders", s.createFolder)
	mb.PATCH("/folders/:id", s.updateFolder)
	mb.DELETE("/folders/:id", s.deleteFolder)

	mb.GET("/contacts", s.listContacts)
	mb.POST("/contacts", s.createContact)
	mb.PUT("/contacts/:id", s.updateContact)
	mb.DELETE("/contacts/:id", s.deleteContact)

	mb.GET("/settings", s.listSettings)
	mb.GET("/settings/:key", s.getSetting)
	mb.PUT("/settings/:key", s.putSetting)

	return e
}

func (s *Server) authStore() (*store.Store, error) {
	return s.dispatcher.Resolve(store.AuthKey)
}

func (s *Server) mailboxStore(c echo.Context) (*store.Store, error) {
	return s.dispatcher.Resolve(c.Param("mailbox"))
}

func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}
