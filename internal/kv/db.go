package kv

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry kv_entries 表的一行
type Entry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:191"`
	Value     string `gorm:"column:entry_value;type:text"`
	UpdatedAt time.Time
}

func (Entry) TableName() string {
	return "kv_entries"
}

// DB 基于数据库表的 Store，配额按表内全部键和值的总长度计算
type DB struct {
	db    *gorm.DB
	quota int
}

// NewDB 迁移 kv_entries 表并返回存储
func NewDB(db *gorm.DB, quota int) (*DB, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &DB{db: db, quota: quota}, nil
}

func (s *DB) Get(key string) (string, bool, error) {
	var e Entry
	err := s.db.Where("entry_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv get %q: %w", key, err)
	}
	return e.Value, true, nil
}

func (s *DB) Set(key, value string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if s.quota > 0 {
			var used int64
			err := tx.Model(&Entry{}).
				Where("entry_key <> ?", key).
				Select("COALESCE(SUM(LENGTH(entry_key) + LENGTH(entry_value)), 0)").
				Scan(&used).Error
			if err != nil {
				return fmt.Errorf("kv usage: %w", err)
			}
			if int(used)+entrySize(key, value) > s.quota {
				return ErrQuotaExceeded
			}
		}

		e := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
		}).Create(&e).Error
		if err != nil {
			return fmt.Errorf("kv set %q: %w", key, err)
		}
		return nil
	})
}

func (s *DB) Remove(key string) error {
	if err := s.db.Where("entry_key = ?", key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("kv remove %q: %w", key, err)
	}
	return nil
}
