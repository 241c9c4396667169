package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/blues/crowdfund/internal/catalog"
	"github.com/blues/crowdfund/internal/config"
	"github.com/blues/crowdfund/internal/database"
	"github.com/blues/crowdfund/internal/handler"
	"github.com/blues/crowdfund/internal/kv"
	"github.com/blues/crowdfund/internal/logic"
	"github.com/blues/crowdfund/internal/model"
	"github.com/blues/crowdfund/internal/recordstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	engine  *gin.Engine
	catalog *catalog.Store
	images  *recordstore.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithQuota(t, 0)
}

// newTestServerWithQuota quota 为目录存储的字节上限，0 表示不限
func newTestServerWithQuota(t *testing.T, quota int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "app.db")})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	images := recordstore.New(db)
	require.NoError(t, images.Open(context.Background()))

	cat := catalog.New(kv.NewMemory(quota), images)
	now := func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	wallets := map[model.CryptoType]string{model.CryptoETH: "0xe7Ae6f99700B3463Ddf6B7fa807Ff735aDf7EAC4"}

	engine := Setup(Handlers{
		Campaign: handler.NewCampaignHandler(cat, images),
		Wizard: handler.NewWizardHandler(
			logic.NewSessions(),
			logic.NewCampaignLogic(images, cat, now),
			logic.NewContributionLogic(wallets, cat, now),
		),
	})
	return &testServer{engine: engine, catalog: cat, images: images}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func uploadCover(t *testing.T, s *testServer, sid string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "cover.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/wizards/"+sid+"/cover", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	code, env := s.serve(t, req)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.True(t, decode[logic.SessionState](t, env.Data).HasCover)
}

// fillCampaign 走完发起向导直到确认页，返回会话路径
func fillCampaign(t *testing.T, s *testServer, title string) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/wizards/campaign", nil)
	require.Equal(t, http.StatusCreated, code)
	sid := decode[logic.SessionState](t, env.Data).ID
	base := "/api/v1/wizards/" + sid

	steps := []struct {
		action string
		form   map[string]string
	}{
		{"next", map[string]string{"title": title, "category": "technology"}},
		{"next", map[string]string{"description": "Charge anywhere"}},
		{"skip", nil},
		{"next", map[string]string{"targetAmount": "5000"}},
		{"next", map[string]string{"walletAddress": "0xe7Ae6f99700B3463Ddf6B7fa807Ff735aDf7EAC4"}},
	}
	for _, st := range steps {
		code, env := s.do(t, http.MethodPost, base+"/"+st.action, st.form)
		require.Equal(t, http.StatusOK, code, env.Message)
	}

	uploadCover(t, s, sid)
	return base
}

func publishCampaign(t *testing.T, s *testServer, title string) logic.PublishResult {
	t.Helper()
	base := fillCampaign(t, s, title)
	code, env := s.do(t, http.MethodPost, base+"/publish", map[string]bool{"confirmed": true, "affirmed": true})
	require.Equal(t, http.StatusCreated, code, env.Message)
	return decode[logic.PublishResult](t, env.Data)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/campaigns", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPublishBrowseAndHandoff(t *testing.T) {
	s := newTestServer(t)
	res := publishCampaign(t, s, "Solar Backpack")

	assert.Equal(t, "stored", res.Tier)
	assert.True(t, res.Record.HasImages)

	_, ok, err := s.images.Get(context.Background(), res.Record.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	code, env := s.do(t, http.MethodGet, "/api/v1/campaigns?axis=search&q=solar", nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[handler.ListCampaignsResponse](t, env.Data)
	assert.Equal(t, 1, list.Total)

	code, env = s.do(t, http.MethodGet, "/api/v1/campaigns?axis=filter&category=art", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, decode[handler.ListCampaignsResponse](t, env.Data).Total)

	code, env = s.do(t, http.MethodGet, "/api/v1/campaigns/"+res.Record.ID+"/support", nil)
	require.Equal(t, http.StatusOK, code)
	link := decode[handler.SupportLinkResponse](t, env.Data)
	assert.Contains(t, link.Query, "image=stored-in-record-store")

	code, env = s.do(t, http.MethodGet, "/api/v1/support?"+link.Query, nil)
	require.Equal(t, http.StatusOK, code)
	var resolved struct {
		Record  model.CampaignRecord `json:"record"`
		Payload *model.ImagePayload  `json:"payload"`
		Source  string               `json:"source"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resolved))
	assert.Equal(t, "store", resolved.Source)
	assert.Equal(t, "Solar Backpack", resolved.Record.Title)
	require.NotNil(t, resolved.Payload)
	require.NotNil(t, resolved.Payload.CoverImage)
	assert.Equal(t, "cover.png", resolved.Payload.CoverImage.Name)
}

func TestPublish_CatalogWriteFailureIsNotSuccess(t *testing.T) {
	s := newTestServerWithQuota(t, 1)
	base := fillCampaign(t, s, "Solar Backpack")

	code, env := s.do(t, http.MethodPost, base+"/publish", map[string]bool{"confirmed": true, "affirmed": true})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, env.Success)

	res := decode[logic.PublishResult](t, env.Data)
	assert.Equal(t, "failed", res.Tier)
	assert.False(t, res.Stored)
	assert.False(t, res.Record.HasImages)
	assert.Empty(t, s.catalog.LoadAll())

	ids, err := s.images.IDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPublish_FieldsOutsideCurrentStepAreIgnored(t *testing.T) {
	s := newTestServer(t)
	base := fillCampaign(t, s, "Solar Backpack")

	// 确认页上的跳过不会写入表单
	s.do(t, http.MethodPost, base+"/skip", map[string]string{"title": ""})
	code, env := s.do(t, http.MethodPost, base+"/back", map[string]string{"walletAddress": ""})
	require.Equal(t, http.StatusOK, code, env.Message)
	code, env = s.do(t, http.MethodPost, base+"/next", map[string]string{
		"walletAddress": "0xe7Ae6f99700B3463Ddf6B7fa807Ff735aDf7EAC4",
		"title":         "",
		"category":      "",
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(t, http.MethodPost, base+"/publish", map[string]bool{"confirmed": true, "affirmed": true})
	require.Equal(t, http.StatusCreated, code, env.Message)
	res := decode[logic.PublishResult](t, env.Data)
	assert.Equal(t, "Solar Backpack", res.Record.Title)
	assert.Equal(t, "technology", string(res.Record.Category))
}

func TestResolveSupport_UnknownCampaignUsesQuery(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/support?campaign=99&title=Garden&days=5", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"source":"query"`)

	code, _ = s.do(t, http.MethodGet, "/api/v1/support?title=Garden", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWizard_ValidationAndErrors(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/wizards/campaign", nil)
	require.Equal(t, http.StatusCreated, code)
	sid := decode[logic.SessionState](t, env.Data).ID

	code, env = s.do(t, http.MethodPost, "/api/v1/wizards/"+sid+"/next", map[string]string{"title": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.False(t, env.Success)
	assert.Contains(t, string(env.Data), `"field":"title"`)

	code, _ = s.do(t, http.MethodPost, "/api/v1/wizards/"+sid+"/publish", map[string]bool{"confirmed": false})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/wizards/"+sid+"/publish", map[string]bool{"confirmed": true})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodDelete, "/api/v1/wizards/"+sid, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/wizards/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWizard_PublishCancelled(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/wizards/campaign", nil)
	require.Equal(t, http.StatusCreated, code)
	sid := decode[logic.SessionState](t, env.Data).ID
	base := "/api/v1/wizards/" + sid

	s.do(t, http.MethodPost, base+"/next", map[string]string{"title": "Garden", "category": "community"})
	s.do(t, http.MethodPost, base+"/next", map[string]string{"description": "Beds"})
	s.do(t, http.MethodPost, base+"/skip", nil)
	s.do(t, http.MethodPost, base+"/next", map[string]string{"targetAmount": "900"})
	s.do(t, http.MethodPost, base+"/next", map[string]string{"walletAddress": "0xabc"})

	code, env = s.do(t, http.MethodPost, base+"/publish", map[string]bool{"confirmed": true, "affirmed": false})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "publish cancelled", env.Message)
	assert.Empty(t, s.catalog.LoadAll())
}

func TestContributionFlow(t *testing.T) {
	s := newTestServer(t)
	res := publishCampaign(t, s, "Solar Backpack")

	code, env := s.do(t, http.MethodPost, "/api/v1/wizards/contribution", map[string]string{"campaignId": res.Record.ID})
	require.Equal(t, http.StatusCreated, code)
	sid := decode[logic.SessionState](t, env.Data).ID
	base := "/api/v1/wizards/" + sid

	code, _ = s.do(t, http.MethodPost, base+"/next", map[string]string{"amount": "25"})
	require.Equal(t, http.StatusOK, code)
	code, env = s.do(t, http.MethodPost, base+"/next", map[string]string{
		"isAnonymous":   "true",
		"paymentMethod": "crypto",
		"cryptoType":    "ETH",
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(t, http.MethodPost, base+"/submit", map[string]bool{"confirmed": true})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, env.Message, `Thank you for supporting "Solar Backpack"!`)

	var out logic.ContributionResult
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "26.25", out.Record.Total.StringFixed(2))
	assert.Equal(t, "0xe7Ae6f99700B3463Ddf6B7fa807Ff735aDf7EAC4", out.Record.DestinationWallet)

	// 支持流程不能上传图片
	code, _ = s.do(t, http.MethodDelete, base+"/cover", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestQuoteAndWallet(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/quote?amount=100", nil)
	require.Equal(t, http.StatusOK, code)
	q := decode[logic.Quote](t, env.Data)
	assert.Equal(t, "5.00", q.Fee.StringFixed(2))

	code, _ = s.do(t, http.MethodGet, "/api/v1/wallets/DOGE", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
