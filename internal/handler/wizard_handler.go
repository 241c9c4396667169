package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/blues/crowdfund/internal/logger"
	"github.com/blues/crowdfund/internal/logic"
	"github.com/blues/crowdfund/internal/model"
	"github.com/blues/crowdfund/internal/wizard"
	"github.com/gin-gonic/gin"
)

// MaxImageBytes 单张图片的建议上限，超出只记录日志
const MaxImageBytes = 10 << 20

type WizardHandler struct {
	sessions      *logic.Sessions
	campaigns     *logic.CampaignLogic
	contributions *logic.ContributionLogic
}

func NewWizardHandler(sessions *logic.Sessions, campaigns *logic.CampaignLogic, contributions *logic.ContributionLogic) *WizardHandler {
	return &WizardHandler{
		sessions:      sessions,
		campaigns:     campaigns,
		contributions: contributions,
	}
}

// StepResponse 导航结果及最新状态
type StepResponse struct {
	Result wizard.Result      `json:"result"`
	State  logic.SessionState `json:"state"`
}

type openContributionRequest struct {
	CampaignID string `json:"campaignId" binding:"required"`
}

type publishRequest struct {
	Confirmed bool `json:"confirmed"`
	Affirmed  bool `json:"affirmed"`
}

type submitRequest struct {
	Confirmed bool `json:"confirmed"`
}

// OpenCampaign 开始创建向导
func (h *WizardHandler) OpenCampaign(c *gin.Context) {
	s := h.sessions.OpenCampaign()
	SuccessResponse(c, http.StatusCreated, "wizard started", s.State())
}

// OpenContribution 开始支持向导
func (h *WizardHandler) OpenContribution(c *gin.Context) {
	var req openContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	s := h.sessions.OpenContribution(req.CampaignID)
	SuccessResponse(c, http.StatusCreated, "wizard started", s.State())
}

// GetState 获取会话状态
func (h *WizardHandler) GetState(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", s.State())
}

func (h *WizardHandler) Next(c *gin.Context) {
	h.navigate(c, wizard.ActionNext)
}

func (h *WizardHandler) Back(c *gin.Context) {
	h.navigate(c, wizard.ActionBack)
}

func (h *WizardHandler) Skip(c *gin.Context) {
	h.navigate(c, wizard.ActionSkip)
}

func (h *WizardHandler) navigate(c *gin.Context, action wizard.Action) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var (
		res wizard.Result
		err error
	)
	switch action {
	case wizard.ActionNext:
		// 只有 next 会写入表单
		form, ok := bindForm(c)
		if !ok {
			return
		}
		res, err = s.Next(form)
	case wizard.ActionBack:
		res = s.Back()
	case wizard.ActionSkip:
		res = s.Skip()
	}
	if err != nil {
		handleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, action.String(), StepResponse{Result: res, State: s.State()})
}

// SetCover 上传封面图片
func (h *WizardHandler) SetCover(c *gin.Context) {
	s, ok := h.campaignSession(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	img, err := readImage(fh)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	_ = s.WithDraft(func(d *wizard.Draft) error {
		d.SetCover(img)
		return nil
	})
	SuccessResponse(c, http.StatusOK, "cover set", s.State())
}

// ClearCover 移除封面
func (h *WizardHandler) ClearCover(c *gin.Context) {
	s, ok := h.campaignSession(c)
	if !ok {
		return
	}
	_ = s.WithDraft(func(d *wizard.Draft) error {
		d.ClearCover()
		return nil
	})
	SuccessResponse(c, http.StatusOK, "cover removed", s.State())
}

// AddGallery 上传图集，超出 5 张的部分被丢弃
func (h *WizardHandler) AddGallery(c *gin.Context) {
	s, ok := h.campaignSession(c)
	if !ok {
		return
	}
	mf, err := c.MultipartForm()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	files := mf.File["files"]
	if len(files) == 0 {
		ErrorResponse(c, http.StatusBadRequest, "no files uploaded")
		return
	}

	imgs := make([]model.Image, 0, len(files))
	for _, fh := range files {
		img, err := readImage(fh)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		imgs = append(imgs, img)
	}

	var added int
	err = s.WithDraft(func(d *wizard.Draft) error {
		var err error
		added, err = d.AddGallery(imgs...)
		return err
	})

	msg := fmt.Sprintf("%d images added", added)
	if errors.Is(err, wizard.ErrGalleryFull) {
		msg = fmt.Sprintf("%d images added, gallery holds at most %d", added, model.MaxGalleryImages)
	}
	SuccessResponse(c, http.StatusOK, msg, s.State())
}

// RemoveGallery 删除图集中的一张
func (h *WizardHandler) RemoveGallery(c *gin.Context) {
	s, ok := h.campaignSession(c)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid gallery index")
		return
	}
	_ = s.WithDraft(func(d *wizard.Draft) error {
		d.RemoveGallery(idx)
		return nil
	})
	SuccessResponse(c, http.StatusOK, "image removed", s.State())
}

// Publish 发布活动
func (h *WizardHandler) Publish(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.campaigns.Publish(c.Request.Context(), s, req.Confirmed, func() bool { return req.Affirmed })
	if errors.Is(err, logic.ErrCancelled) {
		SuccessResponse(c, http.StatusOK, "publish cancelled", s.State())
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	if !res.Stored {
		errorWithData(c, http.StatusInternalServerError, res.Notice, res)
		return
	}
	SuccessResponse(c, http.StatusCreated, res.Notice, res)
}

// Submit 提交支持
func (h *WizardHandler) Submit(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.contributions.Submit(s, req.Confirmed)
	if err != nil {
		handleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, res.Message, res)
}

// Abandon 放弃向导，草稿被丢弃
func (h *WizardHandler) Abandon(c *gin.Context) {
	if !h.sessions.Close(c.Param("sid")) {
		handleError(c, logic.ErrSessionNotFound)
		return
	}
	SuccessResponse(c, http.StatusOK, "wizard abandoned", nil)
}

// Quote 手续费试算
func (h *WizardHandler) Quote(c *gin.Context) {
	amount := wizard.ParseAmount(c.Query("amount"))
	SuccessResponse(c, http.StatusOK, "ok", h.contributions.Quote(amount))
}

// Wallet 查询币种对应的收款地址
func (h *WizardHandler) Wallet(c *gin.Context) {
	w, ok := h.contributions.DestinationWallet(model.CryptoType(c.Param("type")))
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "unsupported cryptocurrency")
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", gin.H{"address": w})
}

func (h *WizardHandler) session(c *gin.Context) (*logic.Session, bool) {
	s, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		handleError(c, err)
		return nil, false
	}
	return s, true
}

func (h *WizardHandler) campaignSession(c *gin.Context) (*logic.Session, bool) {
	s, ok := h.session(c)
	if !ok {
		return nil, false
	}
	if s.Kind != logic.KindCampaign {
		handleError(c, logic.ErrWrongSession)
		return nil, false
	}
	return s, true
}

// bindForm 读取可选的 JSON 表单体
func bindForm(c *gin.Context) (wizard.Form, bool) {
	form := wizard.Form{}
	if c.Request.ContentLength == 0 {
		return form, true
	}
	if err := c.ShouldBindJSON(&form); err != nil && !errors.Is(err, io.EOF) {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return form, true
}

// readImage 读取上传文件并编码为 data URL
func readImage(fh *multipart.FileHeader) (model.Image, error) {
	if fh.Size > MaxImageBytes {
		logger.Warn("Image %s is %d bytes, above the %d byte guideline", fh.Filename, fh.Size, MaxImageBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return model.Image{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return model.Image{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	mime := http.DetectContentType(data)
	return model.Image{
		Data: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		Name: fh.Filename,
	}, nil
}
