package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Kind selects which schema a store carries. It is decided once at first
// boot and persisted as a marker row, never re-derived by probing tables.
type Kind string

const (
	KindAuth    Kind = "auth"
	KindMailbox Kind = "mailbox"
)

// SchemaMigration is the ledger of applied migrations.
type SchemaMigration struct {
	Name      string    `gorm:"primaryKey;type:varchar(255)" json:"name"`
	AppliedAt time.Time `gorm:"autoCreateTime" json:"applied_at"`
}

// StoreInfo holds store-level markers such as the schema kind.
type StoreInfo struct {
	Key   string `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value string `gorm:"type:varchar(255);not null" json:"value"`
}

const kindMarkerKey = "kind"

type Migration struct {
	Name string
	Run  func(db *gorm.DB) error
}

var authMigrations = []Migration{
	{"0001_create_users", func(db *gorm.DB) error {
		return db.AutoMigrate(&User{})
	}},
	{"0002_create_sessions", func(db *gorm.DB) error {
		return db.AutoMigrate(&Session{})
	}},
	{"0003_create_mailbox_grants", func(db *gorm.DB) error {
		return db.AutoMigrate(&MailboxGrant{})
	}},
}

var mailboxMigrations = []Migration{
	{"0001_create_folders", func(db *gorm.DB) error {
		return db.AutoMigrate(&Folder{})
	}},
	{"0002_create_emails", func(db *gorm.DB) error {
		return db.AutoMigrate(&Email{})
	}},
	{"0003_create_attachments", func(db *gorm.DB) error {
		return db.AutoMigrate(&Attachment{})
	}},
	{"0004_create_contacts", func(db *gorm.DB) error {
		return db.AutoMigrate(&Contact{})
	}},
	{"0005_create_settings", func(db *gorm.DB) error {
		return db.AutoMigrate(&Setting{})
	}},
}

// Migrate brings a store database up to date for the given kind. The kind
// passed here only matters on the first run; afterwards the persisted
// marker wins and a mismatch is an error.
func Migrate(db *gorm.DB, kind Kind) (Kind, error) {
	if err := db.AutoMigrate(&SchemaMigration{}, &StoreInfo{}); err != nil {
		return "", err
	}

	stored, err := loadKind(db)
	if err != nil {
		return "", err
	}
	if stored == "" {
		if err := db.Create(&StoreInfo{Key: kindMarkerKey, Value: string(kind)}).Error; err != nil {
			return "", err
		}
		stored = kind
	} else if stored != kind {
		return "", fmt.Errorf("store is %q, resolved as %q", stored, kind)
	}

	migrations := mailboxMigrations
	if stored == KindAuth {
		migrations = authMigrations
	}

	for _, m := range migrations {
		var count int64
		if err := db.Model(&SchemaMigration{}).Where("name = ?", m.Name).Count(&count).Error; err != nil {
			return "", err
		}
		if count > 0 {
			continue
		}
		if err := m.Run(db); err != nil {
			return "", fmt.Errorf("migration %s: %w", m.Name, err)
		}
		if err := db.Create(&SchemaMigration{Name: m.Name}).Error; err != nil {
			return "", err
		}
	}

	if stored == KindMailbox {
		if err := seedFolders(db); err != nil {
			return "", err
		}
	}

	return stored, nil
}

func loadKind(db *gorm.DB) (Kind, error) {
	var info StoreInfo
	err := db.Where("key = ?", kindMarkerKey).First(&info).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return Kind(info.Value), nil
}

// seedFolders creates the four system folders. Guarded by "no folders
// exist yet" so it runs exactly once per mailbox.
func seedFolders(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Folder{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, f := range []Folder{
		{ID: "inbox", Name: "Inbox"},
		{ID: "sent", Name: "Sent"},
		{ID: "drafts", Name: "Drafts"},
		{ID: "trash", Name: "Trash"},
	} {
		f.IsDeletable = false
		if err := db.Create(&f).Error; err != nil {
			return err
		}
	}
	return nil
}
