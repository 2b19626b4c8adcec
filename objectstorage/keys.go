package objectstorage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConfigDocKey locates a mailbox's configuration document. Presence of
// this object is the existence check for the mailbox.
func ConfigDocKey(mailboxID string) string {
	return fmt.Sprintf("mailboxes/%s/config.json", mailboxID)
}

// MailboxPrefix covers every object belonging to one mailbox.
func MailboxPrefix(mailboxID string) string {
	return fmt.Sprintf("mailboxes/%s/", mailboxID)
}

// AttachmentKey locates the raw bytes of one attachment.
func AttachmentKey(mailboxID, emailID, attachmentID, filename string) string {
	return fmt.Sprintf("mailboxes/%s/attachments/%s/%s/%s", mailboxID, emailID, attachmentID, filename)
}

// AttachmentPrefix covers every attachment object of one email.
func AttachmentPrefix(mailboxID, emailID string) string {
	return fmt.Sprintf("mailboxes/%s/attachments/%s/", mailboxID, emailID)
}

// RawMessageKey generates an archive key for an inbound raw message:
// mailboxes/<id>/raw/YYYY/MM/DD/HH/mm/ss/UUID.eml.zst
func RawMessageKey(mailboxID string) string {
	now := time.Now()
	return fmt.Sprintf("mailboxes/%s/raw/%04d/%02d/%02d/%02d/%02d/%02d/%s.eml.zst",
		mailboxID,
		now.Year(), now.Month(), now.Day(),
		now.Hour(), now.Minute(), now.Second(),
		uuid.New().String())
}
