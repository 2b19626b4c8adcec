package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/webmaild/webmaild/model"
)

// Sortable columns for email listings. Anything else is rejected rather
// than passed through to the ORDER BY clause.
var sortColumns = map[string]bool{
	"date":       true,
	"subject":    true,
	"sender":     true,
	"recipient":  true,
	"read":       true,
	"starred":    true,
	"created_at": true,
}

type ListParams struct {
	Folder        string
	Page          int
	Limit         int
	SortColumn    string
	SortDirection string
}

type SearchParams struct {
	Query     string
	Folder    string
	From      string
	To        string
	DateStart *time.Time
	DateEnd   *time.Time
}

type EmailFields struct {
	Subject    string
	Sender     string
	Recipient  string
	Date       time.Time
	Body       string
	Read       bool
	Starred    bool
	InReplyTo  *string
	References []string
}

type AttachmentInput struct {
	Filename    string
	Mimetype    string
	Size        int64
	ContentID   *string
	Disposition model.Disposition
}

type EmailUpdate struct {
	Read    *bool
	Starred *bool
}

func normalizeSort(column, direction string) (string, string, error) {
	if column == "" {
		column = "date"
	}
	if direction == "" {
		direction = "DESC"
	}
	direction = strings.ToUpper(direction)
	if !sortColumns[column] || (direction != "ASC" && direction != "DESC") {
		return "", "", ErrInvalidSort
	}
	return column, direction, nil
}

// likePattern escapes LIKE metacharacters and wraps the term for a
// substring match. Queries using it must carry ESCAPE '\'.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// findFolder looks a folder up by id first, then by name.
func findFolder(db *gorm.DB, ref string) (*model.Folder, error) {
	var folder model.Folder
	err := db.Where("id = ?", ref).First(&folder).Error
	if err == gorm.ErrRecordNotFound {
		err = db.Where("name = ?", ref).First(&folder).Error
	}
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// ListEmails returns one page of emails, optionally filtered to a folder
// given by id or name. An unknown folder yields an empty page.
func (s *Store) ListEmails(p ListParams) ([]model.Email, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	column, direction, err := normalizeSort(p.SortColumn, p.SortDirection)
	if err != nil {
		return nil, err
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 25
	}

	emails := []model.Email{}
	err = s.do("ListEmails", func(db *gorm.DB) error {
		q := db.Model(&model.Email{})
		if p.Folder != "" {
			folder, err := findFolder(db, p.Folder)
			if err != nil {
				return err
			}
			if folder == nil {
				return nil
			}
			q = q.Where("folder_id = ?", folder.ID)
		}
		return q.Order(column + " " + direction).
			Offset((p.Page - 1) * p.Limit).
			Limit(p.Limit).
			Find(&emails).Error
	})
	return emails, err
}

// GetEmail returns the email with its attachment metadata, or nil.
func (s *Store) GetEmail(id string) (*model.Email, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	var email *model.Email
	err := s.do("GetEmail", func(db *gorm.DB) error {
		var e model.Email
		if err := db.Preload("Attachments").Where("id = ?", id).First(&e).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		email = &e
		return nil
	})
	return email, err
}

// UpdateEmail applies a partial update to the read/starred flags and
// returns the refreshed row, or nil when the id is absent.
func (s *Store) UpdateEmail(id string, upd EmailUpdate) (*model.Email, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	var email *model.Email
	err := s.do("UpdateEmail", func(db *gorm.DB) error {
		var e model.Email
		if err := db.Where("id = ?", id).First(&e).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		fields := map[string]any{}
		if upd.Read != nil {
			fields["read"] = *upd.Read
		}
		if upd.Starred != nil {
			fields["starred"] = *upd.Starred
		}
		if len(fields) > 0 {
			if err := db.Model(&e).Updates(fields).Error; err != nil {
				return err
			}
		}
		if err := db.Preload("Attachments").Where("id = ?", id).First(&e).Error; err != nil {
			return err
		}
		email = &e
		return nil
	})
	return email, err
}

// DeleteEmail removes the email and its attachment rows. It returns the
// attachment metadata that existed so the caller can delete the blobs;
// the store never reaches into blob storage itself.
func (s *Store) DeleteEmail(id string) ([]model.Attachment, bool, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, false, err
	}
	var attachments []model.Attachment
	var found bool
	err := s.do("DeleteEmail", func(db *gorm.DB) error {
		var e model.Email
		if err := db.Where("id = ?", id).First(&e).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		found = true
		if err := db.Where("email_id = ?", id).Find(&attachments).Error; err != nil {
			return err
		}
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&model.Attachment{}, "email_id = ?", id).Error; err != nil {
				return err
			}
			return tx.Delete(&model.Email{}, "id = ?", id).Error
		})
	})
	return attachments, found, err
}

// MoveEmail retags the email with folderID. Returns false without touching
// the row when either the email or the folder does not exist.
func (s *Store) MoveEmail(id, folderID string) (bool, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return false, err
	}
	var moved bool
	err := s.do("MoveEmail", func(db *gorm.DB) error {
		var folder model.Folder
		if err := db.Where("id = ?", folderID).First(&folder).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		res := db.Model(&model.Email{}).Where("id = ?", id).Update("folder_id", folder.ID)
		if res.Error != nil {
			return res.Error
		}
		moved = res.RowsAffected > 0
		return nil
	})
	return moved, err
}

// SearchEmails matches the query as a substring of subject or body, with
// optional sender/recipient substrings, folder, and date range. Results
// use the default listing order.
func (s *Store) SearchEmails(p SearchParams) ([]model.Email, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	emails := []model.Email{}
	err := s.do("SearchEmails", func(db *gorm.DB) error {
		q := db.Model(&model.Email{})
		if p.Query != "" {
			pat := likePattern(p.Query)
			q = q.Where(`subject LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\'`, pat, pat)
		}
		if p.From != "" {
			q = q.Where(`sender LIKE ? ESCAPE '\'`, likePattern(p.From))
		}
		if p.To != "" {
			q = q.Where(`recipient LIKE ? ESCAPE '\'`, likePattern(p.To))
		}
		if p.Folder != "" {
			folder, err := findFolder(db, p.Folder)
			if err != nil {
				return err
			}
			if folder == nil {
				return nil
			}
			q = q.Where("folder_id = ?", folder.ID)
		}
		if p.DateStart != nil {
			q = q.Where("date >= ?", *p.DateStart)
		}
		if p.DateEnd != nil {
			q = q.Where("date <= ?", *p.DateEnd)
		}
		return q.Order("date DESC").Find(&emails).Error
	})
	return emails, err
}

// CreateEmail inserts the email and its attachment metadata as one unit.
// The thread id is inherited from the in-reply-to parent when present,
// otherwise the new email roots its own thread. Returns ErrFolderNotFound
// when the folder reference resolves to nothing.
func (s *Store) CreateEmail(folderRef string, fields EmailFields, attachments []AttachmentInput) (*model.Email, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	var email *model.Email
	err := s.do("CreateEmail", func(db *gorm.DB) error {
		folder, err := findFolder(db, folderRef)
		if err != nil {
			return err
		}
		if folder == nil {
			return ErrFolderNotFound
		}

		id := uuid.New().String()
		threadID := id
		if fields.InReplyTo != nil {
			var parent model.Email
			err := db.Where("id = ?", *fields.InReplyTo).First(&parent).Error
			if err == nil {
				threadID = parent.ThreadID
				if threadID == "" {
					threadID = parent.ID
				}
			} else if err != gorm.ErrRecordNotFound {
				return err
			}
		}

		date := fields.Date
		if date.IsZero() {
			date = time.Now()
		}

		e := model.Email{
			ID:         id,
			Subject:    fields.Subject,
			Sender:     fields.Sender,
			Recipient:  fields.Recipient,
			Date:       date,
			Body:       fields.Body,
			Read:       fields.Read,
			Starred:    fields.Starred,
			FolderID:   folder.ID,
			InReplyTo:  fields.InReplyTo,
			References: fields.References,
			ThreadID:   threadID,
		}
		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&e).Error; err != nil {
				return err
			}
			for _, a := range attachments {
				disposition := a.Disposition
				if disposition == "" {
					disposition = model.DispositionAttachment
				}
				row := model.Attachment{
					ID:          uuid.New().String(),
					EmailID:     id,
					Filename:    a.Filename,
					Mimetype:    a.Mimetype,
					Size:        a.Size,
					ContentID:   a.ContentID,
					Disposition: disposition,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}

		if err := db.Preload("Attachments").Where("id = ?", id).First(&e).Error; err != nil {
			return err
		}
		email = &e
		return nil
	})
	return email, err
}
