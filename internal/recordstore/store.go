// Package recordstore 按项目 ID 保存图片数据，独立于有容量上限的目录
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blues/crowdfund/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SchemaVersion campaign_images 集合的结构版本
const SchemaVersion = 1

const storeName = "campaignImages"

var (
	ErrStorageUnavailable = errors.New("record store: storage unavailable")
	ErrNotInitialized     = errors.New("record store: not initialized")
)

// StorageIOError 包装底层数据库的故障
type StorageIOError struct {
	Op         string
	CampaignID string
	Err        error
}

func (e *StorageIOError) Error() string {
	if e.CampaignID == "" {
		return fmt.Sprintf("record store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("record store %s %s: %v", e.Op, e.CampaignID, e.Err)
}

func (e *StorageIOError) Unwrap() error {
	return e.Err
}

// storeMeta 记录每个命名存储的结构版本
type storeMeta struct {
	Name    string `gorm:"primaryKey;size:64"`
	Version int    `gorm:"not null"`
}

func (storeMeta) TableName() string {
	return "record_store_meta"
}

// Store 按键保存图片数据
type Store struct {
	db     *gorm.DB
	now    func() time.Time
	mu     sync.RWMutex
	opened bool
}

// New 返回未打开的存储，db 为 nil 时 Open 返回 ErrStorageUnavailable
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open 首次使用时建表，重复调用无副作用
func (s *Store) Open(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrStorageUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return nil
	}

	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&model.ImagePayloadModel{}, &storeMeta{}); err != nil {
		return &StorageIOError{Op: "open", Err: err}
	}
	meta := storeMeta{Name: storeName, Version: SchemaVersion}
	if err := db.Where(storeMeta{Name: storeName}).FirstOrCreate(&meta).Error; err != nil {
		return &StorageIOError{Op: "open", Err: err}
	}
	if meta.Version != SchemaVersion {
		return &StorageIOError{Op: "open", Err: fmt.Errorf("unsupported schema version %d", meta.Version)}
	}

	s.opened = true
	return nil
}

func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return ErrStorageUnavailable
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.opened {
		return ErrNotInitialized
	}
	return nil
}

// Put 写入或覆盖 campaignID 的图片数据并记录写入时间
func (s *Store) Put(ctx context.Context, campaignID string, payload model.ImagePayload) error {
	if err := s.ready(); err != nil {
		return err
	}

	rec, err := model.NewImagePayloadModel(campaignID, payload, s.now())
	if err != nil {
		return &StorageIOError{Op: "put", CampaignID: campaignID, Err: err}
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"cover", "gallery", "timestamp"}),
	}).Create(rec).Error
	if err != nil {
		return &StorageIOError{Op: "put", CampaignID: campaignID, Err: err}
	}
	return nil
}

// Get 读取 campaignID 的图片数据，不存在时 ok 为 false 且 err 为 nil
func (s *Store) Get(ctx context.Context, campaignID string) (*model.ImagePayload, bool, error) {
	if err := s.ready(); err != nil {
		return nil, false, err
	}

	var rec model.ImagePayloadModel
	err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &StorageIOError{Op: "get", CampaignID: campaignID, Err: err}
	}

	payload, err := rec.Payload()
	if err != nil {
		return nil, false, &StorageIOError{Op: "get", CampaignID: campaignID, Err: err}
	}
	return payload, true, nil
}

// Delete 删除图片数据，键不存在不算错误
func (s *Store) Delete(ctx context.Context, campaignID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Delete(&model.ImagePayloadModel{}).Error
	if err != nil {
		return &StorageIOError{Op: "delete", CampaignID: campaignID, Err: err}
	}
	return nil
}

// IDs 列出所有存有图片数据的项目 ID
func (s *Store) IDs(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var ids []string
	if err := s.db.WithContext(ctx).Model(&model.ImagePayloadModel{}).Order("campaign_id").Pluck("campaign_id", &ids).Error; err != nil {
		return nil, &StorageIOError{Op: "list", Err: err}
	}
	return ids, nil
}
