package task

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/blues/crowdfund/internal/logger"
	"github.com/blues/crowdfund/internal/model"
	"github.com/go-co-op/gocron/v2"
)

// DefaultGrace 新写入的图片在此时长内不会被清理，留给目录追加完成
const DefaultGrace = time.Minute

// CatalogLister 目录只读接口，读取失败时返回错误
type CatalogLister interface {
	Load() ([]model.CampaignRecord, error)
}

// PayloadStore 记录存储中清理任务需要的操作
type PayloadStore interface {
	IDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, campaignID string) error
}

// OrphanSweepJob 删除目录中已不存在的活动的图片
type OrphanSweepJob struct {
	catalog  CatalogLister
	images   PayloadStore
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
}

// NewOrphanSweepJob interval 为秒
func NewOrphanSweepJob(catalog CatalogLister, images PayloadStore, interval int) *OrphanSweepJob {
	return &OrphanSweepJob{
		catalog:  catalog,
		images:   images,
		interval: time.Duration(interval) * time.Second,
		grace:    DefaultGrace,
		now:      time.Now,
	}
}

// GetName 获取任务名称
func (j *OrphanSweepJob) GetName() string {
	return "campaign_image_orphan_sweep"
}

// GetSchedule 获取调度配置
func (j *OrphanSweepJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *OrphanSweepJob) Execute() {
	logger.Info("Starting orphan image sweep")

	n, err := j.Sweep(context.Background())
	if err != nil {
		logger.Error("Orphan image sweep failed: %v", err)
		return
	}

	logger.Info("Orphan image sweep completed. Removed %d payloads", n)
}

// Sweep 删除孤立的图片负载并返回删除数量
func (j *OrphanSweepJob) Sweep(ctx context.Context) (int, error) {
	ids, err := j.images.IDs(ctx)
	if err != nil {
		return 0, err
	}

	// 目录读取失败时本轮不删除任何内容
	records, err := j.catalog.Load()
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	live := make(map[string]struct{}, len(records))
	for _, r := range records {
		live[r.ID] = struct{}{}
	}

	cutoff := j.now().Add(-j.grace).UnixMilli()
	removed := 0
	for _, id := range ids {
		if _, ok := live[id]; ok {
			continue
		}
		// ID 即创建时的毫秒时间戳
		if ms, err := strconv.ParseInt(id, 10, 64); err == nil && ms > cutoff {
			continue
		}
		logger.Debug("Removing orphan images of campaign %s", id)
		if err := j.images.Delete(ctx, id); err != nil {
			logger.Warn("Failed to delete orphan images of campaign %s: %v", id, err)
			continue
		}
		removed++
	}
	return removed, nil
}
