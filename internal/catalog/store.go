// Package catalog 活动目录：已发布活动的有序列表，整体序列化后存入有容量上限的键值存储。
//
// 追加时逐级降级：先写完整列表，超限则淘汰最旧的条目直到保留下限，
// 仍失败则只保留新活动。
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/blues/crowdfund/internal/kv"
	"github.com/blues/crowdfund/internal/logger"
	"github.com/blues/crowdfund/internal/model"
	"github.com/panjf2000/ants/v2"
)

const (
	DefaultKey         = "crowdfundingCampaigns"
	DefaultRetainFloor = 10
)

// ImageDeleter 删除被淘汰活动的图片
type ImageDeleter interface {
	Delete(ctx context.Context, campaignID string) error
}

// Tier 写入成功的降级层级
type Tier int

const (
	TierStored Tier = iota
	TierEvicted
	TierReset
	TierFailed
)

func (t Tier) String() string {
	switch t {
	case TierStored:
		return "stored"
	case TierEvicted:
		return "evicted"
	case TierReset:
		return "reset"
	default:
		return "failed"
	}
}

// Notice 发布后展示给用户的提示
func (t Tier) Notice() string {
	switch t {
	case TierStored:
		return "Campaign published successfully!"
	case TierEvicted:
		return "Campaign published. Storage was full, so the oldest campaigns were removed to make room."
	case TierReset:
		return "Campaign published without images. Storage was full, so previous campaigns were cleared."
	default:
		return "Campaign could not be saved to local storage."
	}
}

// AppendResult 追加结果
type AppendResult struct {
	Tier    Tier
	Record  model.CampaignRecord
	Evicted []string
	Err     error
}

// Store 活动目录
type Store struct {
	kv          kv.Store
	images      ImageDeleter
	pool        *ants.Pool
	key         string
	retainFloor int
}

type Option func(*Store)

// WithKey 目录在键值存储中的键名
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithRetainFloor 淘汰后保留的最新条目数
func WithRetainFloor(n int) Option {
	return func(s *Store) { s.retainFloor = n }
}

// WithPool 在协程池中执行图片删除
func WithPool(pool *ants.Pool) Option {
	return func(s *Store) { s.pool = pool }
}

// New 创建目录，记录存储不可用时 images 可为 nil
func New(store kv.Store, images ImageDeleter, opts ...Option) *Store {
	s := &Store{
		kv:          store,
		images:      images,
		key:         DefaultKey,
		retainFloor: DefaultRetainFloor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load 按插入顺序返回目录。键不存在或内容无法解析时为空列表；
// 读取失败时返回错误，调用方不应把它当作空目录。
func (s *Store) Load() ([]model.CampaignRecord, error) {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if !ok || raw == "" {
		return []model.CampaignRecord{}, nil
	}

	var records []model.CampaignRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		logger.Warn("Catalog blob is corrupt, treating as empty: %v", err)
		return []model.CampaignRecord{}, nil
	}
	if records == nil {
		records = []model.CampaignRecord{}
	}
	return records, nil
}

// LoadAll 同 Load，读取失败时记录日志并返回空列表，供只读展示使用
func (s *Store) LoadAll() []model.CampaignRecord {
	records, err := s.Load()
	if err != nil {
		logger.Warn("Failed to read catalog: %v", err)
		return []model.CampaignRecord{}
	}
	return records
}

// Find 按 ID 查找
func (s *Store) Find(id string) (model.CampaignRecord, bool) {
	for _, r := range s.LoadAll() {
		if r.ID == id {
			return r, true
		}
	}
	return model.CampaignRecord{}, false
}

// Append 按降级阶梯把 record 追加到目录末尾，结果中给出成功的层级。
// 读取现有目录失败时不写入任何内容，直接返回 TierFailed。
func (s *Store) Append(ctx context.Context, record model.CampaignRecord) AppendResult {
	existing, err := s.Load()
	if err != nil {
		logger.Error("Catalog unreadable, campaign %s not stored: %v", record.ID, err)
		if record.HasImages {
			s.deleteImages(ctx, []string{record.ID})
		}
		record.HasImages = false
		return AppendResult{Tier: TierFailed, Record: record, Err: err}
	}
	logger.Debug("Appending campaign %s to catalog of %d", record.ID, len(existing))

	err = s.save(append(existing, record))
	if err == nil {
		return AppendResult{Tier: TierStored, Record: record}
	}
	if !errors.Is(err, kv.ErrQuotaExceeded) {
		logger.Error("Catalog write failed: %v", err)
		return s.reset(ctx, existing, record)
	}

	logger.Warn("Catalog quota exceeded with %d records, evicting down to %d", len(existing), s.retainFloor)

	cut := 0
	if len(existing) > s.retainFloor {
		cut = len(existing) - s.retainFloor
	}
	evicted := ids(existing[:cut])
	retained := append([]model.CampaignRecord{}, existing[cut:]...)

	s.deleteImages(ctx, evicted)

	if err := s.save(append(retained, record)); err == nil {
		logger.Info("Catalog stored after evicting %d campaigns", len(evicted))
		return AppendResult{Tier: TierEvicted, Record: record, Evicted: evicted}
	} else if !errors.Is(err, kv.ErrQuotaExceeded) {
		logger.Error("Catalog write failed after eviction: %v", err)
	}

	result := s.reset(ctx, retained, record)
	result.Evicted = append(evicted, result.Evicted...)
	return result
}

// reset 只保存不带图片的 record，dropped 中的条目全部丢弃
func (s *Store) reset(ctx context.Context, dropped []model.CampaignRecord, record model.CampaignRecord) AppendResult {
	evicted := ids(dropped)
	s.deleteImages(ctx, evicted)
	if record.HasImages {
		s.deleteImages(ctx, []string{record.ID})
	}
	record.HasImages = false

	if err := s.save([]model.CampaignRecord{record}); err != nil {
		logger.Error("Catalog reset failed, campaign %s not stored: %v", record.ID, err)
		return AppendResult{Tier: TierFailed, Record: record, Evicted: evicted, Err: err}
	}

	logger.Warn("Catalog reset to the incoming campaign %s, %d campaigns dropped", record.ID, len(evicted))
	return AppendResult{Tier: TierReset, Record: record, Evicted: evicted}
}

func (s *Store) save(records []model.CampaignRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return s.kv.Set(s.key, string(data))
}

// deleteImages 尽力删除图片，单个失败只记录日志
func (s *Store) deleteImages(ctx context.Context, campaignIDs []string) {
	if s.images == nil || len(campaignIDs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, id := range campaignIDs {
		id := id
		task := func() {
			defer wg.Done()
			if err := s.images.Delete(ctx, id); err != nil {
				logger.Warn("Failed to delete images of evicted campaign %s: %v", id, err)
			}
		}

		wg.Add(1)
		if s.pool == nil {
			task()
			continue
		}
		if err := s.pool.Submit(task); err != nil {
			logger.Warn("Worker pool rejected delete of %s, running inline: %v", id, err)
			task()
		}
	}
	wg.Wait()
}

func ids(records []model.CampaignRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
