// Package handoff 以查询参数把选中的项目从浏览页带到支持流程，并在到达时还原
package handoff

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/blues/crowdfund/internal/logger"
	"github.com/blues/crowdfund/internal/model"
)

// ImageMarker 查询参数中代替图片数据的占位符
const ImageMarker = "stored-in-record-store"

const (
	paramCampaign    = "campaign"
	paramTitle       = "title"
	paramCategory    = "category"
	paramDescription = "description"
	paramCreator     = "creator"
	paramImage       = "image"
	paramGallery     = "gallery"
	paramRaised      = "raised"
	paramTarget      = "target"
	paramCurrency    = "currency"
	paramDays        = "days"
	paramProgress    = "progress"
)

var ErrMissingCampaign = errors.New("handoff: missing campaign id")

// Source 还原结果的来源
type Source string

const (
	SourceStore   Source = "store"
	SourceQuery   Source = "query"
	SourceMinimal Source = "minimal"
)

// Campaign 解码后的项目投影
type Campaign struct {
	Record       model.CampaignRecord `json:"record"`
	Image        string               `json:"image,omitempty"`
	GalleryCount int                  `json:"galleryCount"`
}

// Resolved 支持页面使用的项目
type Resolved struct {
	Campaign
	Payload *model.ImagePayload `json:"payload,omitempty"`
	Source  Source              `json:"source"`
}

// Encode 生成 r 的精简投影，payload 可选，只用于统计图集数量
func Encode(r model.CampaignRecord, payload *model.ImagePayload) url.Values {
	v := url.Values{}
	v.Set(paramCampaign, r.ID)
	v.Set(paramTitle, r.Title)
	v.Set(paramCategory, r.Category)
	v.Set(paramDescription, r.Description)
	v.Set(paramCreator, r.Creator())
	if r.HasImages {
		v.Set(paramImage, ImageMarker)
	}
	gallery := 0
	if payload != nil {
		gallery = len(payload.GalleryImages)
	}
	v.Set(paramGallery, strconv.Itoa(gallery))
	v.Set(paramRaised, r.Raised)
	v.Set(paramTarget, r.TargetAmount)
	v.Set(paramCurrency, r.Currency)
	v.Set(paramDays, strconv.Itoa(r.DaysLeft))
	v.Set(paramProgress, strconv.Itoa(r.Progress))
	return v
}

// Decode 解析 Encode 生成的投影
func Decode(v url.Values) (Campaign, error) {
	id := v.Get(paramCampaign)
	if id == "" {
		return Campaign{}, ErrMissingCampaign
	}

	days, err := intParam(v, paramDays)
	if err != nil {
		return Campaign{}, err
	}
	progress, err := intParam(v, paramProgress)
	if err != nil {
		return Campaign{}, err
	}
	gallery, err := intParam(v, paramGallery)
	if err != nil {
		return Campaign{}, err
	}

	image := v.Get(paramImage)
	return Campaign{
		Record: model.CampaignRecord{
			ID:           id,
			Title:        v.Get(paramTitle),
			Category:     v.Get(paramCategory),
			Description:  v.Get(paramDescription),
			CompanyName:  v.Get(paramCreator),
			Raised:       v.Get(paramRaised),
			TargetAmount: v.Get(paramTarget),
			Currency:     v.Get(paramCurrency),
			DaysLeft:     days,
			Progress:     progress,
			HasImages:    image == ImageMarker,
		},
		Image:        image,
		GalleryCount: gallery,
	}, nil
}

func intParam(v url.Values, name string) (int, error) {
	s := v.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("handoff: bad %s %q: %w", name, s, err)
	}
	return n, nil
}

// CatalogReader 在目录中查找项目
type CatalogReader interface {
	Find(id string) (model.CampaignRecord, bool)
}

// ImageReader 从记录存储读取图片数据
type ImageReader interface {
	Get(ctx context.Context, campaignID string) (*model.ImagePayload, bool, error)
}

// Resolve 优先使用已保存的项目及其图片，找不到时退回查询参数中的投影，
// 投影也无法解析时只保留 ID 和标题，images 可以为 nil
func Resolve(ctx context.Context, v url.Values, catalog CatalogReader, images ImageReader) Resolved {
	id := v.Get(paramCampaign)

	if catalog != nil && id != "" {
		if r, ok := catalog.Find(id); ok {
			res := Resolved{Campaign: Campaign{Record: r}, Source: SourceStore}
			if r.HasImages {
				res.Image = ImageMarker
				res.Payload = loadPayload(ctx, images, id)
				if res.Payload != nil {
					res.GalleryCount = len(res.Payload.GalleryImages)
				}
			}
			return res
		}
	}

	c, err := Decode(v)
	if err != nil {
		logger.Warn("Handoff parameters unreadable, using id and title only: %v", err)
		return Resolved{
			Campaign: Campaign{Record: model.CampaignRecord{ID: id, Title: v.Get(paramTitle)}},
			Source:   SourceMinimal,
		}
	}
	return Resolved{Campaign: c, Source: SourceQuery}
}

func loadPayload(ctx context.Context, images ImageReader, id string) *model.ImagePayload {
	if images == nil {
		return nil
	}
	p, ok, err := images.Get(ctx, id)
	if err != nil {
		logger.Warn("Failed to load images of campaign %s: %v", id, err)
		return nil
	}
	if !ok {
		return nil
	}
	return p
}
