package wizard

import (
	"errors"

	"github.com/blues/crowdfund/internal/model"
)

// ErrGalleryFull 图集已满
var ErrGalleryFull = errors.New("gallery is full")

// Draft 创建向导中已选择但尚未保存的图片
type Draft struct {
	Cover   *model.Image
	Gallery []model.Image
}

func (d *Draft) SetCover(img model.Image) {
	d.Cover = &img
}

func (d *Draft) ClearCover() {
	d.Cover = nil
}

// AddGallery 在上限内追加图片并返回实际加入的数量，有图片被丢弃时返回 ErrGalleryFull
func (d *Draft) AddGallery(imgs ...model.Image) (int, error) {
	room := model.MaxGalleryImages - len(d.Gallery)
	if room < 0 {
		room = 0
	}
	n := len(imgs)
	if n > room {
		n = room
	}
	d.Gallery = append(d.Gallery, imgs[:n]...)
	if n < len(imgs) {
		return n, ErrGalleryFull
	}
	return n, nil
}

// RemoveGallery 删除第 i 张，越界时忽略
func (d *Draft) RemoveGallery(i int) {
	if i < 0 || i >= len(d.Gallery) {
		return
	}
	d.Gallery = append(d.Gallery[:i], d.Gallery[i+1:]...)
}

func (d *Draft) HasImages() bool {
	return d.Cover != nil || len(d.Gallery) > 0
}

// Payload 转换为记录存储中的负载
func (d *Draft) Payload(campaignID string) model.ImagePayload {
	gallery := make([]model.Image, len(d.Gallery))
	copy(gallery, d.Gallery)
	return model.ImagePayload{CampaignID: campaignID, CoverImage: d.Cover, GalleryImages: gallery}
}

func (d *Draft) Reset() {
	d.Cover = nil
	d.Gallery = nil
}
