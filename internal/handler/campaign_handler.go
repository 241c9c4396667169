package handler

import (
	"net/http"

	"github.com/blues/crowdfund/internal/handoff"
	"github.com/blues/crowdfund/internal/logger"
	"github.com/blues/crowdfund/internal/model"
	"github.com/blues/crowdfund/internal/query"
	"github.com/gin-gonic/gin"
)

// CatalogReader 目录只读接口
type CatalogReader interface {
	LoadAll() []model.CampaignRecord
	Find(id string) (model.CampaignRecord, bool)
}

type CampaignHandler struct {
	catalog CatalogReader
	images  handoff.ImageReader
}

// NewCampaignHandler images 可为 nil
func NewCampaignHandler(catalog CatalogReader, images handoff.ImageReader) *CampaignHandler {
	return &CampaignHandler{catalog: catalog, images: images}
}

// ListCampaignsResponse 浏览页响应
type ListCampaignsResponse struct {
	Campaigns []model.CampaignRecord `json:"campaigns"`
	Total     int                    `json:"total"`
	View      query.View             `json:"view"`
}

// SupportLinkResponse 跳转到支持页所需的参数
type SupportLinkResponse struct {
	Query string `json:"query"`
	URL   string `json:"url"`
}

// ListCampaigns 按分类、关键字或排序之一浏览目录
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	var view query.View
	if err := c.ShouldBindQuery(&view); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	records := query.Apply(h.catalog.LoadAll(), view)
	SuccessResponse(c, http.StatusOK, "ok", ListCampaignsResponse{
		Campaigns: records,
		Total:     len(records),
		View:      view,
	})
}

// GetCampaign 获取单个活动
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	r, ok := h.catalog.Find(c.Param("id"))
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "campaign not found")
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", r)
}

// SupportLink 生成支持页的查询参数
func (h *CampaignHandler) SupportLink(c *gin.Context) {
	r, ok := h.catalog.Find(c.Param("id"))
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "campaign not found")
		return
	}

	var payload *model.ImagePayload
	if r.HasImages && h.images != nil {
		p, found, err := h.images.Get(c.Request.Context(), r.ID)
		if err != nil {
			logger.Warn("Failed to load images of campaign %s: %v", r.ID, err)
		} else if found {
			payload = p
		}
	}

	q := handoff.Encode(r, payload).Encode()
	SuccessResponse(c, http.StatusOK, "ok", SupportLinkResponse{
		Query: q,
		URL:   "/api/v1/support?" + q,
	})
}

// ResolveSupport 支持页解析跳转参数
func (h *CampaignHandler) ResolveSupport(c *gin.Context) {
	res := handoff.Resolve(c.Request.Context(), c.Request.URL.Query(), h.catalog, h.images)
	if res.Record.ID == "" {
		ErrorResponse(c, http.StatusBadRequest, handoff.ErrMissingCampaign.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", res)
}
