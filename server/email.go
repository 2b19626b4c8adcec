package server

import (
	"bytes"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/webmaild/webmaild/model"
	"github.com/webmaild/webmaild/objectstorage"
	"github.com/webmaild/webmaild/store"
	"github.com/webmaild/webmaild/transfer"
)

func (s *Server) listEmails(c echo.Context) error {
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	emails, err := mb.ListEmails(store.ListParams{
		Folder:        c.QueryParam("folder"),
		Page:          page,
		Limit:         limit,
		SortColumn:    c.QueryParam("sort"),
		SortDirection: c.QueryParam("direction"),
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidSort) {
			return jsonError(c, 400, "invalid sort column or direction")
		}
		return jsonError(c, 500, "failed to fetch emails")
	}
	return c.JSON(200, emails)
}

func (s *Server) searchEmails(c echo.Context) error {
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}

	params := store.SearchParams{
		Query:  c.QueryParam("q"),
		Folder: c.QueryParam("folder"),
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
	}
	if v := c.QueryParam("date_start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return jsonError(c, 400, "invalid date_start")
		}
		params.DateStart = &t
	}
	if v := c.QueryParam("date_end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return jsonError(c, 400, "invalid date_end")
		}
		params.DateEnd = &t
	}

	emails, err := mb.SearchEmails(params)
	if err != nil {
		return jsonError(c, 500, "search failed")
	}
	return c.JSON(200, emails)
}

func (s *Server) getEmail(c echo.Context) error {
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	email, err := mb.GetEmail(c.Param("id"))
	if err != nil {
		return jsonError(c, 500, "failed to fetch email")
	}
	if email == nil {
		return jsonError(c, 404, "email not found")
	}
	return c.JSON(200, email)
}

type updateEmailRequest struct {
	Read    *bool `json:"read"`
	Starred *bool `json:"starred"`
}

func (s *Server) updateEmail(c echo.Context) error {
	var req updateEmailRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, 400, "invalid request body")
	}
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	email, err := mb.UpdateEmail(c.Param("id"), store.EmailUpdate{Read: req.Read, Starred: req.Starred})
	if err != nil {
		return jsonError(c, 500, "update failed")
	}
	if email == nil {
		return jsonError(c, 404, "email not found")
	}
	return c.JSON(200, email)
}

type moveEmailRequest struct {
	FolderID string `json:"folder_id"`
}

func (s *Server) moveEmail(c echo.Context) error {
	var req moveEmailRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, 400, "invalid request body")
	}
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	moved, err := mb.MoveEmail(c.Param("id"), req.FolderID)
	if err != nil {
		return jsonError(c, 500, "move failed")
	}
	if !moved {
		return jsonError(c, 404, "email or folder not found")
	}
	return c.NoContent(204)
}

// deleteEmail removes the row and then the attachment blobs. A blob
// delete failure is logged, not surfaced; the orphaned object is
// recoverable garbage, not an inconsistency the client can act on.
func (s *Server) deleteEmail(c echo.Context) error {
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	emailID := c.Param("id")
	attachments, found, err := mb.DeleteEmail(emailID)
	if err != nil {
		return jsonError(c, 500, "delete failed")
	}
	if !found {
		return jsonError(c, 404, "email not found")
	}
	mailboxID := c.Param("mailbox")
	for _, att := range attachments {
		key := objectstorage.AttachmentKey(mailboxID, emailID, att.ID, att.Filename)
		if err := s.blobs.Delete(key); err != nil {
			log.Printf("delete attachment blob %s: %v", key, err)
		}
	}
	return c.NoContent(204)
}

func (s *Server) downloadAttachment(c echo.Context) error {
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	email, err := mb.GetEmail(c.Param("id"))
	if err != nil {
		return jsonError(c, 500, "failed to fetch email")
	}
	if email == nil {
		return jsonError(c, 404, "email not found")
	}

	var att *model.Attachment
	for i := range email.Attachments {
		if email.Attachments[i].ID == c.Param("att") {
			att = &email.Attachments[i]
			break
		}
	}
	if att == nil {
		return jsonError(c, 404, "attachment not found")
	}

	body, err := s.blobs.Get(objectstorage.AttachmentKey(c.Param("mailbox"), email.ID, att.ID, att.Filename))
	if err != nil {
		return jsonError(c, 404, "attachment content not found")
	}
	defer body.Close()
	c.Response().Header().Set("Content-Disposition", `attachment; filename="`+att.Filename+`"`)
	return c.Stream(200, att.Mimetype, body)
}

// emailForm collects the shared multipart fields of the create and send
// paths: text fields plus zero or more attachment files.
type emailForm struct {
	fields      store.EmailFields
	attachments []store.AttachmentInput
	data        [][]byte
}

func readEmailForm(c echo.Context) (*emailForm, error) {
	f := &emailForm{
		fields: store.EmailFields{
			Subject:   c.FormValue("subject"),
			Sender:    c.FormValue("from"),
			Recipient: c.FormValue("to"),
			Body:      c.FormValue("body"),
			Read:      c.FormValue("read") == "true",
			Starred:   c.FormValue("starred") == "true",
		},
	}
	if v := c.FormValue("in_reply_to"); v != "" {
		f.fields.InReplyTo = &v
	}

	form, err := c.MultipartForm()
	if err != nil {
		// A plain form post without files is fine.
		return f, nil
	}
	for _, fh := range form.File["attachments"] {
		data, err := readFormFile(fh)
		if err != nil {
			return nil, err
		}
		mimetype := fh.Header.Get("Content-Type")
		if mimetype == "" {
			mimetype = "application/octet-stream"
		}
		f.attachments = append(f.attachments, store.AttachmentInput{
			Filename:    fh.Filename,
			Mimetype:    mimetype,
			Size:        int64(len(data)),
			Disposition: model.DispositionAttachment,
		})
		f.data = append(f.data, data)
	}
	return f, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

// storeEmail persists the row and uploads the attachment bytes. Blob
// uploads happen after the row exists; a crash in between leaves an
// email whose attachment content is missing, which is tolerated.
func (s *Server) storeEmail(c echo.Context, mb *store.Store, folder string, f *emailForm) (*model.Email, error) {
	email, err := mb.CreateEmail(folder, f.fields, f.attachments)
	if err != nil {
		return nil, err
	}
	mailboxID := c.Param("mailbox")
	for i, att := range email.Attachments {
		if i >= len(f.data) {
			break
		}
		key := objectstorage.AttachmentKey(mailboxID, email.ID, att.ID, att.Filename)
		if err := s.blobs.Put(key, att.Mimetype, bytes.NewReader(f.data[i])); err != nil {
			log.Printf("upload attachment blob %s: %v", key, err)
		}
	}
	return email, nil
}

// createEmail stores a message without delivering it (drafts, imports).
// Folder defaults to Drafts.
func (s *Server) createEmail(c echo.Context) error {
	f, err := readEmailForm(c)
	if err != nil {
		return jsonError(c, 400, "invalid form data")
	}
	folder := c.FormValue("folder")
	if folder == "" {
		folder = "drafts"
	}

	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	email, err := s.storeEmail(c, mb, folder, f)
	if err != nil {
		if errors.Is(err, store.ErrFolderNotFound) {
			return jsonError(c, 404, "folder not found")
		}
		return jsonError(c, 500, "failed to store email")
	}
	return c.JSON(201, email)
}

// sendEmail composes the message, hands it to the SMTP relay, and files
// a copy in Sent. Delivery failure aborts before anything is stored.
func (s *Server) sendEmail(c echo.Context) error {
	f, err := readEmailForm(c)
	if err != nil {
		return jsonError(c, 400, "invalid form data")
	}
	if f.fields.Recipient == "" {
		return jsonError(c, 400, "recipient is required")
	}
	info := sessionFrom(c)
	if f.fields.Sender == "" {
		f.fields.Sender = info.Email
	}

	out := transfer.Outbound{
		From:      f.fields.Sender,
		To:        f.fields.Recipient,
		Subject:   f.fields.Subject,
		Body:      f.fields.Body,
		InReplyTo: f.fields.InReplyTo,
	}
	for i, att := range f.attachments {
		out.Attachments = append(out.Attachments, transfer.Attachment{
			Filename: att.Filename,
			Mimetype: att.Mimetype,
			Data:     f.data[i],
		})
	}
	raw, err := transfer.Compose(out)
	if err != nil {
		return jsonError(c, 400, "failed to compose message")
	}
	if err := s.deliverer.Deliver(out.From, out.To, raw); err != nil {
		log.Printf("deliver from=%s to=%s: %v", out.From, out.To, err)
		return jsonError(c, 500, "delivery failed")
	}

	f.fields.Read = true
	mb, err := s.mailboxStore(c)
	if err != nil {
		return jsonError(c, 500, "mailbox store unavailable")
	}
	email, err := s.storeEmail(c, mb, "sent", f)
	if err != nil {
		return jsonError(c, 500, "delivered but failed to store copy")
	}
	return c.JSON(201, email)
}
