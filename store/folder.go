package store

import (
	"gorm.io/gorm"

	"github.com/webmaild/webmaild/model"
)

func (s *Store) ListFolders() ([]model.Folder, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	folders := []model.Folder{}
	err := s.do("ListFolders", func(db *gorm.DB) error {
		return db.Order("name ASC").Find(&folders).Error
	})
	return folders, err
}

// GetFolder resolves a folder by id or name, nil when absent.
func (s *Store) GetFolder(ref string) (*model.Folder, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	var folder *model.Folder
	err := s.do("GetFolder", func(db *gorm.DB) error {
		f, err := findFolder(db, ref)
		if err != nil {
			return err
		}
		folder = f
		return nil
	})
	return folder, err
}

// CreateFolder inserts a deletable folder. Returns nil (not an error) when
// the id or name collides with an existing folder.
func (s *Store) CreateFolder(id, name string) (*model.Folder, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	var folder *model.Folder
	err := s.do("CreateFolder", func(db *gorm.DB) error {
		var count int64
		if err := db.Model(&model.Folder{}).Where("id = ? OR name = ?", id, name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		f := model.Folder{ID: id, Name: name, IsDeletable: true}
		if err := db.Create(&f).Error; err != nil {
			return err
		}
		folder = &f
		return nil
	})
	return folder, err
}

// UpdateFolder renames a folder. Returns nil when the id is absent and
// ErrConflict when the new name is taken by another folder.
func (s *Store) UpdateFolder(id, name string) (*model.Folder, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	var folder *model.Folder
	err := s.do("UpdateFolder", func(db *gorm.DB) error {
		var f model.Folder
		if err := db.Where("id = ?", id).First(&f).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		var count int64
		if err := db.Model(&model.Folder{}).Where("name = ? AND id <> ?", name, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}
		if err := db.Model(&f).Update("name", name).Error; err != nil {
			return err
		}
		f.Name = name
		folder = &f
		return nil
	})
	return folder, err
}

// DeleteFolder removes a folder, moving its emails to Trash first.
// Returns false when the folder is absent or not deletable.
func (s *Store) DeleteFolder(id string) (bool, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return false, err
	}
	var deleted bool
	err := s.do("DeleteFolder", func(db *gorm.DB) error {
		var f model.Folder
		if err := db.Where("id = ?", id).First(&f).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		if !f.IsDeletable {
			return nil
		}
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&model.Email{}).Where("folder_id = ?", id).Update("folder_id", "trash").Error; err != nil {
				return err
			}
			if err := tx.Delete(&model.Folder{}, "id = ?", id).Error; err != nil {
				return err
			}
			deleted = true
			return nil
		})
	})
	return deleted, err
}
