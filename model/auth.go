package model

// Auth schema. These tables exist only in the store resolved under the
// reserved AUTH key.

// User timestamps are unix milliseconds to match the stored format of
// existing deployments.
type User struct {
	ID           string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"type:text;not null" json:"-"`
	IsAdmin      bool   `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt    int64  `gorm:"not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt    int64  `gorm:"not null;autoUpdateTime:milli" json:"updated_at"`
}

type Session struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string `gorm:"type:varchar(36);not null;index" json:"user_id"`
	ExpiresAt int64  `gorm:"not null" json:"expires_at"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:milli" json:"created_at"`
}

type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleWrite Role = "write"
	RoleRead  Role = "read"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleWrite, RoleRead:
		return true
	}
	return false
}

// MailboxGrant assigns one role per (user, mailbox) pair. Granting again
// for the same pair overwrites the role (last grant wins).
type MailboxGrant struct {
	UserID    string `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	MailboxID string `gorm:"primaryKey;type:varchar(255)" json:"mailbox_id"`
	Role      Role   `gorm:"type:varchar(16);not null" json:"role"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:milli" json:"created_at"`
}
