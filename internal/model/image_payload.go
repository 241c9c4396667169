package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Image 已编码的图片及原始文件名
type Image struct {
	Data string `json:"data"`
	Name string `json:"name"`
}

// ImagePayload 记录存储中的图片负载
type ImagePayload struct {
	CampaignID    string    `json:"campaignId"`
	CoverImage    *Image    `json:"coverImage"`
	GalleryImages []Image   `json:"galleryImages"`
	Timestamp     time.Time `json:"timestamp"`
}

// ImagePayloadModel 图片负载表，以活动 ID 为键
type ImagePayloadModel struct {
	CampaignId string    `gorm:"primaryKey;size:64;uniqueIndex:idx_campaign_images_campaign_id"`
	Cover      string    `gorm:"type:text"`
	Gallery    string    `gorm:"type:text"`
	Timestamp  time.Time `gorm:"not null"`
}

// TableName 自定义表名
func (ImagePayloadModel) TableName() string {
	return "campaign_images"
}

// NewImagePayloadModel 将图片负载转换为表记录，图集超出上限的部分被丢弃
func NewImagePayloadModel(campaignID string, payload ImagePayload, ts time.Time) (*ImagePayloadModel, error) {
	gallery := payload.GalleryImages
	if len(gallery) > MaxGalleryImages {
		gallery = gallery[:MaxGalleryImages]
	}
	if gallery == nil {
		gallery = []Image{}
	}

	cover, err := json.Marshal(payload.CoverImage)
	if err != nil {
		return nil, fmt.Errorf("encode cover image: %w", err)
	}
	galleryJSON, err := json.Marshal(gallery)
	if err != nil {
		return nil, fmt.Errorf("encode gallery images: %w", err)
	}

	return &ImagePayloadModel{
		CampaignId: campaignID,
		Cover:      string(cover),
		Gallery:    string(galleryJSON),
		Timestamp:  ts,
	}, nil
}

// Payload 还原图片负载
func (m *ImagePayloadModel) Payload() (*ImagePayload, error) {
	payload := &ImagePayload{
		CampaignID:    m.CampaignId,
		GalleryImages: []Image{},
		Timestamp:     m.Timestamp,
	}
	if m.Cover != "" {
		if err := json.Unmarshal([]byte(m.Cover), &payload.CoverImage); err != nil {
			return nil, fmt.Errorf("decode cover image: %w", err)
		}
	}
	if m.Gallery != "" {
		if err := json.Unmarshal([]byte(m.Gallery), &payload.GalleryImages); err != nil {
			return nil, fmt.Errorf("decode gallery images: %w", err)
		}
	}
	return payload, nil
}
