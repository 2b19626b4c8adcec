package store

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/webmaild/webmaild/model"
)

func (s *Store) ListSettings() ([]model.Setting, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	settings := []model.Setting{}
	err := s.do("ListSettings", func(db *gorm.DB) error {
		return db.Order("key ASC").Find(&settings).Error
	})
	return settings, err
}

// GetSetting returns the setting row, or nil when the key was never set.
func (s *Store) GetSetting(key string) (*model.Setting, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	var setting *model.Setting
	err := s.do("GetSetting", func(db *gorm.DB) error {
		var row model.Setting
		if err := db.Where("key = ?", key).First(&row).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		setting = &row
		return nil
	})
	return setting, err
}

// PutSetting writes a key with upsert semantics: an existing key gets its
// value and updated_at overwritten.
func (s *Store) PutSetting(key, value string) (*model.Setting, error) {
	if err := s.requireKind(model.KindMailbox); err != nil {
		return nil, err
	}
	var setting *model.Setting
	err := s.do("PutSetting", func(db *gorm.DB) error {
		row := model.Setting{Key: key, Value: value}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		if err := db.Where("key = ?", key).First(&row).Error; err != nil {
			return err
		}
		setting = &row
		return nil
	})
	return setting, err
}
