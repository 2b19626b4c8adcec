package transfer

import (
	"strings"
	"testing"
)

const rawMessage = "From: Alice <alice@x.com>\r\n" +
	"To: bob@x.com\r\n" +
	"Subject: =?UTF-8?B?44OG44K544OI?=\r\n" +
	"Date: Mon, 02 Mar 2026 12:00:00 +0000\r\n" +
	"Message-Id: <root-1@x.com>\r\n" +
	"In-Reply-To: <parent-1@x.com>\r\n" +
	"References: <grand-1@x.com> <parent-1@x.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"BOUNDARY\"\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"a note about searching.\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\r\n" +
	"\r\n" +
	"%PDF-fake-content\r\n" +
	"--BOUNDARY--\r\n"

func TestParseMultipart(t *testing.T) {
	msg, err := Parse(strings.NewReader(rawMessage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if msg.Subject != "テスト" {
		t.Errorf("subject = %q, want %q", msg.Subject, "テスト")
	}
	if !strings.Contains(msg.From, "alice@x.com") {
		t.Errorf("from = %q", msg.From)
	}
	if !strings.Contains(msg.To, "bob@x.com") {
		t.Errorf("to = %q", msg.To)
	}
	if msg.Date.Year() != 2026 || msg.Date.Month() != 3 {
		t.Errorf("date = %v", msg.Date)
	}
	if !strings.Contains(msg.Body, "about searching") {
		t.Errorf("body = %q", msg.Body)
	}

	if msg.InReplyTo == nil || *msg.InReplyTo != "parent-1@x.com" {
		t.Errorf("in-reply-to = %v", msg.InReplyTo)
	}
	if len(msg.References) != 2 || msg.References[0] != "grand-1@x.com" || msg.References[1] != "parent-1@x.com" {
		t.Errorf("references = %v", msg.References)
	}

	if len(msg.Attachments) != 1 {
		t.Fatalf("attachment count = %d, want 1", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.Filename != "report.pdf" {
		t.Errorf("filename = %q", att.Filename)
	}
	if att.Mimetype != "application/pdf" {
		t.Errorf("mimetype = %q", att.Mimetype)
	}
	if att.Disposition != "attachment" || att.ContentID != nil {
		t.Errorf("disposition = %q, content-id = %v", att.Disposition, att.ContentID)
	}
	if !strings.Contains(string(att.Data), "%PDF-fake-content") {
		t.Errorf("data = %q", att.Data)
	}
}

func TestParsePlainText(t *testing.T) {
	raw := "From: a@x.com\r\n" +
		"To: b@x.com\r\n" +
		"Subject: plain\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"just a body\r\n"

	msg, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.Subject != "plain" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "just a body") {
		t.Errorf("body = %q", msg.Body)
	}
	if len(msg.Attachments) != 0 {
		t.Errorf("attachment count = %d, want 0", len(msg.Attachments))
	}
	if msg.InReplyTo != nil {
		t.Errorf("in-reply-to = %v, want nil", msg.InReplyTo)
	}
}

func TestComposeParseRoundTrip(t *testing.T) {
	raw, err := Compose(Outbound{
		From:    "alice@x.com",
		To:      "bob@x.com",
		Subject: "round trip",
		Body:    "body text here",
		Attachments: []Attachment{
			{Filename: "notes.txt", Mimetype: "text/plain", Data: []byte("attached notes")},
		},
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	msg, err := Parse(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("parse composed: %v", err)
	}
	if msg.Subject != "round trip" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.From, "alice@x.com") {
		t.Errorf("from = %q", msg.From)
	}
	if !strings.Contains(msg.Body, "body text here") {
		t.Errorf("body = %q", msg.Body)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("attachment count = %d, want 1", len(msg.Attachments))
	}
	if msg.Attachments[0].Filename != "notes.txt" {
		t.Errorf("filename = %q", msg.Attachments[0].Filename)
	}
	if string(msg.Attachments[0].Data) != "attached notes" {
		t.Errorf("data = %q", msg.Attachments[0].Data)
	}
}

func TestComposeBadAddress(t *testing.T) {
	if _, err := Compose(Outbound{From: "not an address", To: "b@x.com"}); err == nil {
		t.Error("compose accepted malformed from address")
	}
}
