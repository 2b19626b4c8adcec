package model

import (
	"time"
)

// Mailbox schema. One set of these tables per mailbox key.

type Folder struct {
	ID          string `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Name        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	IsDeletable bool   `gorm:"not null;default:true" json:"is_deletable"`
}

type Email struct {
	ID          string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Subject     string       `gorm:"type:text;not null" json:"subject"`
	Sender      string       `gorm:"type:text;not null" json:"sender"`
	Recipient   string       `gorm:"type:text;not null" json:"recipient"`
	Date        time.Time    `gorm:"not null;index" json:"date"`
	Body        string       `gorm:"type:text;not null" json:"body"`
	Read        bool         `gorm:"not null;default:false" json:"read"`
	Starred     bool         `gorm:"not null;default:false" json:"starred"`
	FolderID    string       `gorm:"type:varchar(255);not null;index" json:"folder_id"`
	InReplyTo   *string      `gorm:"type:varchar(36)" json:"in_reply_to"`
	References  []string     `gorm:"type:text;serializer:json" json:"references"`
	ThreadID    string       `gorm:"type:varchar(36);index" json:"thread_id"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
	Attachments []Attachment `gorm:"foreignKey:EmailID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

type Disposition string

const (
	DispositionAttachment Disposition = "attachment"
	DispositionInline     Disposition = "inline"
)

// Attachment rows hold metadata only. The bytes live in object storage
// under a key derived from (mailbox, email, attachment, filename).
type Attachment struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	EmailID     string      `gorm:"type:varchar(36);not null;index" json:"email_id"`
	Filename    string      `gorm:"type:varchar(512);not null" json:"filename"`
	Mimetype    string      `gorm:"type:varchar(255);not null" json:"mimetype"`
	Size        int64       `gorm:"not null" json:"size"`
	ContentID   *string     `gorm:"type:varchar(255)" json:"content_id"`
	Disposition Disposition `gorm:"type:varchar(16);not null;default:attachment" json:"disposition"`
}

type Contact struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement:true" json:"id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Setting values are stored as serialized JSON. Writes are upserts.
type Setting struct {
	Key       string    `gorm:"primaryKey;type:varchar(255)" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
