package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/webmaild/webmaild/model"
)

// SessionInfo is a validated session joined with the owning user. The
// admin flag is read live so revocation takes effect on next validation.
type SessionInfo struct {
	Session model.Session `json:"session"`
	UserID  string        `json:"user_id"`
	Email   string        `json:"email"`
	IsAdmin bool          `json:"is_admin"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user. The first user of a fresh instance is an admin.
// Returns ErrDuplicateEmail when the address is already registered.
func (s *Store) Register(email, password string, isFirstUser bool) (*model.User, error) {
	if err := s.requireKind(model.KindAuth); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)

	var user *model.User
	err := s.do("Register", func(db *gorm.DB) error {
		var count int64
		if err := db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEmail
		}
		hash, err := HashPassword(password)
		if err != nil {
			return err
		}
		u := model.User{
			ID:           uuid.New().String(),
			Email:        email,
			PasswordHash: hash,
			IsAdmin:      isFirstUser,
		}
		if err := db.Create(&u).Error; err != nil {
			return err
		}
		user = &u
		return nil
	})
	return user, err
}

// Login verifies credentials and mints a session. Any mismatch returns
// (nil, nil); callers cannot tell an unknown address from a wrong password.
func (s *Store) Login(email, password string) (*model.Session, error) {
	if err := s.requireKind(model.KindAuth); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)

	var session *model.Session
	err := s.do("Login", func(db *gorm.DB) error {
		var user model.User
		if err := db.Where("email = ?", email).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		if !VerifyPassword(password, user.PasswordHash) {
			return nil
		}
		sess := model.Session{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(s.sessionTTL).UnixMilli(),
		}
		if err := db.Create(&sess).Error; err != nil {
			return err
		}
		session = &sess
		return nil
	})
	return session, err
}

// ValidateSession returns the session joined with live user data, or nil
// when the token is unknown or expired. Expired rows are deleted on access.
func (s *Store) ValidateSession(token string) (*SessionInfo, error) {
	if err := s.requireKind(model.KindAuth); err != nil {
		return nil, err
	}

	var info *SessionInfo
	err := s.do("ValidateSession", func(db *gorm.DB) error {
		var sess model.Session
		if err := db.Where("id = ?", token).First(&sess).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		if sess.ExpiresAt <= time.Now().UnixMilli() {
			return db.Delete(&model.Session{}, "id = ?", sess.ID).Error
		}
		var user model.User
		if err := db.Where("id = ?", sess.UserID).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				// Owner is gone; the session is worthless.
				return db.Delete(&model.Session{}, "id = ?", sess.ID).Error
			}
			return err
		}
		info = &SessionInfo{
			Session: sess,
			UserID:  user.ID,
			Email:   user.Email,
			IsAdmin: user.IsAdmin,
		}
		return nil
	})
	return info, err
}

// Logout deletes the session if present. Idempotent.
func (s *Store) Logout(token string) error {
	if err := s.requireKind(model.KindAuth); err != nil {
		return err
	}
	return s.do("Logout", func(db *gorm.DB) error {
		return db.Delete(&model.Session{}, "id = ?", token).Error
	})
}

func (s *Store) HasUsers() (bool, error) {
	if err := s.requireKind(model.KindAuth); err != nil {
		return false, err
	}
	var has bool
	err := s.do("HasUsers", func(db *gorm.DB) error {
		var count int64
		if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
			return err
		}
		has = count > 0
		return nil
	})
	return has, err
}

// EnsureDefaultAdmins seeds the configured admin accounts with the
// bootstrap password so a fresh deployment is reachable. No-op once any
// user exists; duplicate inserts under concurrent first boot are swallowed.
func (s *Store) EnsureDefaultAdmins(emails []string, password string) error {
	if err := s.requireKind(model.KindAuth); err != nil {
		return err
	}
	return s.do("EnsureDefaultAdmins", func(db *gorm.DB) error {
		var count int64
		if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, email := range emails {
			hash, err := HashPassword(password)
			if err != nil {
				return err
			}
			u := model.User{
				ID:           uuid.New().String(),
				Email:        normalizeEmail(email),
				PasswordHash: hash,
				IsAdmin:      true,
			}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&u).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SweepExpiredSessions deletes every expired session row and reports how
// many were removed.
func (s *Store) SweepExpiredSessions() (int64, error) {
	if err := s.requireKind(model.KindAuth); err != nil {
		return 0, err
	}
	var removed int64
	err := s.do("SweepExpiredSessions", func(db *gorm.DB) error {
		res := db.Delete(&model.Session{}, "expires_at <= ?", time.Now().UnixMilli())
		removed = res.RowsAffected
		return res.Error
	})
	return removed, err
}

// Grant assigns role to (user, mailbox). A repeated grant for the same
// pair overwrites the previous role.
func (s *Store) Grant(userID, mailboxID string, role model.Role) error {
	if err := s.requireKind(model.KindAuth); err != nil {
		return err
	}
	if !role.Valid() {
		return ErrConflict
	}
	return s.do("Grant", func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "mailbox_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).Create(&model.MailboxGrant{
			UserID:    userID,
			MailboxID: mailboxID,
			Role:      role,
		}).Error
	})
}

// Revoke removes the grant for (user, mailbox) if present.
func (s *Store) Revoke(userID, mailboxID string) error {
	if err := s.requireKind(model.KindAuth); err != nil {
		return err
	}
	return s.do("Revoke", func(db *gorm.DB) error {
		return db.Delete(&model.MailboxGrant{}, "user_id = ? AND mailbox_id = ?", userID, mailboxID).Error
	})
}

func (s *Store) GrantsForUser(userID string) ([]model.MailboxGrant, error) {
	if err := s.requireKind(model.KindAuth); err != nil {
		return nil, err
	}
	var grants []model.MailboxGrant
	err := s.do("GrantsForUser", func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).Find(&grants).Error
	})
	return grants, err
}

// GrantFor returns the grant for (user, mailbox), or nil when none exists.
func (s *Store) GrantFor(userID, mailboxID string) (*model.MailboxGrant, error) {
	if err := s.requireKind(model.KindAuth); err != nil {
		return nil, err
	}
	var grant *model.MailboxGrant
	err := s.do("GrantFor", func(db *gorm.DB) error {
		var g model.MailboxGrant
		if err := db.Where("user_id = ? AND mailbox_id = ?", userID, mailboxID).First(&g).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		grant = &g
		return nil
	})
	return grant, err
}
