package logic

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/blues/crowdfund/internal/catalog"
	"github.com/blues/crowdfund/internal/logger"
	"github.com/blues/crowdfund/internal/model"
	"github.com/blues/crowdfund/internal/wizard"
)

var (
	ErrConfirmationRequired = errors.New("terms confirmation is required")
	ErrCancelled            = errors.New("publish cancelled")
	ErrNotReady             = errors.New("wizard is not on its final step")
)

// ImageStore 记录存储的写入接口
type ImageStore interface {
	Put(ctx context.Context, campaignID string, payload model.ImagePayload) error
}

// CatalogAppender 活动目录的追加接口
type CatalogAppender interface {
	Append(ctx context.Context, record model.CampaignRecord) catalog.AppendResult
}

// Confirmer 发布前的最终确认，返回 false 表示用户取消
type Confirmer func() bool

// PublishResult 发布结果
type PublishResult struct {
	Record     model.CampaignRecord `json:"record"`
	Tier       string               `json:"tier"`
	Stored     bool                 `json:"stored"` // 目录写入失败时为 false
	Notice     string               `json:"notice"`
	Evicted    []string             `json:"evicted,omitempty"`
	ImagesLost bool                 `json:"imagesLost"`
}

// CampaignLogic 活动创建与发布
type CampaignLogic struct {
	images  ImageStore
	catalog CatalogAppender
	ids     *model.IDGenerator
	now     func() time.Time
}

// NewCampaignLogic images 可为 nil，此时图片不会被保存
func NewCampaignLogic(images ImageStore, catalog CatalogAppender, now func() time.Time) *CampaignLogic {
	if now == nil {
		now = time.Now
	}
	return &CampaignLogic{
		images:  images,
		catalog: catalog,
		ids:     model.NewIDGenerator(now),
		now:     now,
	}
}

// Assemble 由表单和草稿组装目录条目
func Assemble(form wizard.Form, draft *wizard.Draft, id string, now time.Time) model.CampaignRecord {
	currency := form.Value(wizard.FieldCurrency)
	if currency == "" {
		currency = model.DefaultCurrency
	}

	return model.CampaignRecord{
		ID:              id,
		Title:           form.Value(wizard.FieldTitle),
		ShortTagline:    form.Value(wizard.FieldShortTagline),
		Category:        form.Value(wizard.FieldCategory),
		Location:        form.Value(wizard.FieldLocation),
		Description:     form.Value(wizard.FieldDescription),
		TargetAmount:    form.Value(wizard.FieldTargetAmount),
		Currency:        currency,
		MinContribution: form.Value(wizard.FieldMinContribution),
		Deadline:        form.Value(wizard.FieldDeadline),
		CompanyName:     form.Value(wizard.FieldCompanyName),
		CompanyWebsite:  form.Value(wizard.FieldCompanyWebsite),
		Industry:        form.Value(wizard.FieldIndustry),
		CompanyLocation: form.Value(wizard.FieldCompanyLocation),
		WalletAddress:   form.Value(wizard.FieldWalletAddress),
		PreferredToken:  form.Value(wizard.FieldPreferredToken),
		PayoutWallet:    form.Value(wizard.FieldPayoutWallet),
		CreatedAt:       now,
		Raised:          "0",
		Backers:         0,
		Progress:        0,
		DaysLeft:        DaysLeft(form.Value(wizard.FieldDeadline), now),
		HasImages:       draft != nil && draft.HasImages(),
	}
}

// DaysLeft 距截止日期的天数（向上取整，不小于 0），缺省或无法解析时为 30
func DaysLeft(deadline string, now time.Time) int {
	if deadline == "" {
		return model.DefaultDaysLeft
	}
	t, err := time.ParseInLocation(model.DeadlineLayout, deadline, now.Location())
	if err != nil {
		return model.DefaultDaysLeft
	}
	days := math.Ceil(t.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// Publish 确认后保存图片与目录条目，并重置会话。
// 发布前重新校验所有未跳过的步骤，不合格时退回到该步骤。
func (l *CampaignLogic) Publish(ctx context.Context, s *Session, confirmed bool, confirm Confirmer) (*PublishResult, error) {
	if s.Kind != KindCampaign {
		return nil, ErrWrongSession
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.machine.AtTerminal() {
		return nil, ErrNotReady
	}
	if err := s.machine.Revalidate(s.form); err != nil {
		return nil, err
	}
	if confirm != nil && !confirm() {
		logger.Info("Publish of session %s cancelled", s.ID)
		return nil, ErrCancelled
	}

	record := Assemble(s.form, s.draft, l.ids.Next(), l.now())
	imagesLost := false

	// 先写图片，目录条目反映实际结果
	if record.HasImages {
		if l.images == nil {
			logger.Warn("Record store unavailable, campaign %s published without images", record.ID)
			record.HasImages = false
			imagesLost = true
		} else if err := l.images.Put(ctx, record.ID, s.draft.Payload(record.ID)); err != nil {
			logger.Error("Failed to store images of campaign %s: %v", record.ID, err)
			record.HasImages = false
			imagesLost = true
		}
	}

	res := l.catalog.Append(ctx, record)
	if res.Err != nil {
		logger.Error("Campaign %s not stored: %v", record.ID, res.Err)
	} else {
		logger.Info("Campaign %s published, tier=%s", record.ID, res.Tier)
	}

	s.resetLocked()

	return &PublishResult{
		Record:     res.Record,
		Tier:       res.Tier.String(),
		Stored:     res.Tier != catalog.TierFailed,
		Notice:     res.Tier.Notice(),
		Evicted:    res.Evicted,
		ImagesLost: imagesLost,
	}, nil
}
