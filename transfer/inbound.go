// Package transfer is the mail-transfer boundary: parsing inbound
// RFC 5322 messages and composing/delivering outbound ones. It has no
// knowledge of storage.
package transfer

import (
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/webmaild/webmaild/mailparser"
)

type Attachment struct {
	Filename    string
	Mimetype    string
	ContentID   *string
	Disposition string
	Data        []byte
}

// Message is the parsed shape of one inbound email.
type Message struct {
	Subject     string
	From        string
	To          string
	Date        time.Time
	Body        string
	InReplyTo   *string
	References  []string
	Attachments []Attachment
}

// Parse reads one RFC 5322 message. The first text part becomes the body;
// every attachment part is read fully into memory.
func Parse(r io.Reader) (*Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	msg := &Message{
		Subject: headerText(mr.Header, "Subject"),
		From:    headerText(mr.Header, "From"),
		To:      headerText(mr.Header, "To"),
	}
	if date, err := mr.Header.Date(); err == nil {
		msg.Date = date
	} else {
		msg.Date = time.Now()
	}
	if v := mr.Header.Get("In-Reply-To"); v != "" {
		id := strings.Trim(v, "<> ")
		msg.InReplyTo = &id
	}
	if v := mr.Header.Get("References"); v != "" {
		for _, ref := range strings.Fields(v) {
			msg.References = append(msg.References, strings.Trim(ref, "<>"))
		}
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read part: %w", err)
		}
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			if msg.Body == "" && (ct == "" || strings.HasPrefix(ct, "text/")) {
				body, err := io.ReadAll(part.Body)
				if err != nil {
					return nil, fmt.Errorf("read body: %w", err)
				}
				msg.Body = string(body)
			}
		case *mail.AttachmentHeader:
			filename, err := h.Filename()
			if err != nil || filename == "" {
				filename = "attachment"
			}
			mimetype, _, err := h.ContentType()
			if err != nil || mimetype == "" {
				mimetype = "application/octet-stream"
			}
			data, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("read attachment %s: %w", filename, err)
			}
			att := Attachment{
				Filename:    filename,
				Mimetype:    mimetype,
				Disposition: "attachment",
				Data:        data,
			}
			if cid := strings.Trim(h.Get("Content-Id"), "<>"); cid != "" {
				att.ContentID = &cid
				att.Disposition = "inline"
			}
			msg.Attachments = append(msg.Attachments, att)
		}
	}

	return msg, nil
}

// headerText returns a decoded header value, falling back to a manual
// encoded-word decode when the library rejects the charset.
func headerText(h mail.Header, name string) string {
	text, err := h.Text(name)
	if err == nil {
		return text
	}
	raw := h.Get(name)
	if decoded, err := mailparser.DecodeHeader(raw); err == nil {
		return decoded
	}
	return raw
}
