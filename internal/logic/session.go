package logic

import (
	"errors"
	"sync"
	"time"

	"github.com/blues/crowdfund/internal/wizard"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("wizard session not found")
	ErrWrongSession    = errors.New("wizard session has the wrong kind")
)

// SessionKind 向导类型
type SessionKind string

const (
	KindCampaign     SessionKind = "campaign"
	KindContribution SessionKind = "contribution"
)

// Session 一次向导会话：状态机、已填写的表单和待保存的图片
type Session struct {
	ID         string
	Kind       SessionKind
	CampaignID string // 支持流程所针对的活动

	mu       sync.Mutex
	machine  *wizard.Machine
	form     wizard.Form
	draft    *wizard.Draft
	lastSeen time.Time // 由 Sessions 在锁内维护
}

// SessionState 会话的只读快照
type SessionState struct {
	ID           string               `json:"id"`
	Kind         SessionKind          `json:"kind"`
	CampaignID   string               `json:"campaignId,omitempty"`
	Step         wizard.Step          `json:"step"`
	Total        int                  `json:"total"`
	Title        string               `json:"title"`
	Progress     int                  `json:"progress"`
	Controls     wizard.Controls      `json:"controls"`
	Summary      []wizard.SummaryLine `json:"summary,omitempty"`
	Form         wizard.Form          `json:"form"`
	HasCover     bool                 `json:"hasCover"`
	GalleryCount int                  `json:"galleryCount"`
}

func newSession(kind SessionKind, def *wizard.Definition, campaignID string) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Kind:       kind,
		CampaignID: campaignID,
		machine:    wizard.NewMachine(def),
		form:       wizard.Form{},
		draft:      &wizard.Draft{},
	}
}

// Next 合并当前步骤范围内的字段并尝试前进一步，其他步骤的字段被忽略
func (s *Session) Next(values wizard.Form) (wizard.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Merge(values.Scoped(s.machine.Definition(), s.machine.Step()))
	return s.machine.Next(s.form)
}

// Back 后退一步，不修改表单
func (s *Session) Back() wizard.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Back()
}

// Skip 跳过当前步骤，不修改表单
func (s *Session) Skip() wizard.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Skip(s.form)
}

// WithDraft 在会话锁内修改草稿图片
func (s *Session) WithDraft(fn func(d *wizard.Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.draft)
}

// State 返回当前快照
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() SessionState {
	form := make(wizard.Form, len(s.form))
	form.Merge(s.form)

	st := SessionState{
		ID:           s.ID,
		Kind:         s.Kind,
		CampaignID:   s.CampaignID,
		Step:         s.machine.Step(),
		Total:        s.machine.Total(),
		Title:        s.machine.Definition().Title(s.machine.Step()),
		Progress:     s.machine.Progress(),
		Controls:     s.machine.Controls(),
		Form:         form,
		HasCover:     s.draft.Cover != nil,
		GalleryCount: len(s.draft.Gallery),
	}
	if s.machine.AtTerminal() {
		st.Summary = s.machine.Summary()
	}
	return st
}

// resetLocked 清空表单与草稿并回到第一步，调用方需持有锁
func (s *Session) resetLocked() {
	s.machine.Reset()
	s.form = wizard.Form{}
	s.draft.Reset()
}

// Sessions 会话注册表
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*Session), now: time.Now}
}

// OpenCampaign 开始一次创建向导
func (r *Sessions) OpenCampaign() *Session {
	return r.add(newSession(KindCampaign, wizard.CampaignWizard(), ""))
}

// OpenContribution 开始针对 campaignID 的支持向导
func (r *Sessions) OpenContribution(campaignID string) *Session {
	return r.add(newSession(KindContribution, wizard.ContributionWizard(), campaignID))
}

func (r *Sessions) add(s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.lastSeen = r.now()
	r.sessions[s.ID] = s
	return s
}

// Get 获取会话并刷新最近访问时间
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.now()
	return s, nil
}

// Expire 移除空闲超过 idle 的会话，返回移除数量
func (r *Sessions) Expire(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Close 放弃会话，草稿随之丢弃
func (r *Sessions) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
