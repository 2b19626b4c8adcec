package store

import (
	"gorm.io/gorm"

	"github.com/webmaild/webmaild/model"
)

func (s *Store) ListContacts() ([]model.Contact, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	contacts := []model.Contact{}
	err := s.do("ListContacts", func(db *gorm.DB) error {
		return db.Order("id ASC").Find(&contacts).Error
	})
	return contacts, err
}

func (s *Store) CreateContact(name, email string) (*model.Contact, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	var contact *model.Contact
	err := s.do("CreateContact", func(db *gorm.DB) error {
		c := model.Contact{Name: name, Email: email}
		if err := db.Create(&c).Error; err != nil {
			return err
		}
		contact = &c
		return nil
	})
	return contact, err
}

// UpdateContact applies a partial update, nil when the id is absent.
func (s *Store) UpdateContact(id uint64, name, email *string) (*model.Contact, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	var contact *model.Contact
	err := s.do("UpdateContact", func(db *gorm.DB) error {
		var c model.Contact
		if err := db.Where("id = ?", id).First(&c).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		fields := map[string]any{}
		if name != nil {
			fields["name"] = *name
		}
		if email != nil {
			fields["email"] = *email
		}
		if len(fields) > 0 {
			if err := db.Model(&c).Updates(fields).Error; err != nil {
				return err
			}
		}
		if err := db.Where("id = ?", id).First(&c).Error; err != nil {
			return err
		}
		contact = &c
		return nil
	})
	return contact, err
}

func (s *Store) DeleteContact(id uint64) (bool, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return false, err
	}
	var deleted bool
	err := s.do("DeleteContact", func(db *gorm.DB) error {
		res := db.Delete(&model.Contact{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
