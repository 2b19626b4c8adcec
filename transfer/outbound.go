package transfer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-smtp"
)

// Outbound is a message to compose and hand to the SMTP relay.
type Outbound struct {
	From        string
	To          string
	Subject     string
	Body        string
	InReplyTo   *string
	Attachments []Attachment
}

// Compose builds the multipart MIME form of the message.
func Compose(msg Outbound) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(msg.Subject)
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return nil, fmt.Errorf("parse from address: %w", err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("parse to address: %w", err)
	}
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	if msg.InReplyTo != nil {
		h.Set("In-Reply-To", "<"+*msg.InReplyTo+">")
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}

	var th mail.InlineHeader
	th.Set("Content-Type", "text/plain; charset=utf-8")
	tw, err := mw.CreateSingleInline(th)
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	if _, err := io.WriteString(tw, msg.Body); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		var ah mail.AttachmentHeader
		ah.SetFilename(att.Filename)
		ah.Set("Content-Type", att.Mimetype)
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("create attachment %s: %w", att.Filename, err)
		}
		if _, err := aw.Write(att.Data); err != nil {
			return nil, err
		}
		if err := aw.Close(); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deliverer hands composed messages to an SMTP relay. No retry logic;
// a failed delivery is the caller's problem to surface.
type Deliverer struct {
	Addr string
}

func (d *Deliverer) Deliver(from, to string, raw []byte) error {
	if err := smtp.SendMail(d.Addr, nil, from, []string{to}, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("deliver to %s: %w", to, err)
	}
	return nil
}
