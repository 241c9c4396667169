package task

import (
	"time"

	"github.com/blues/crowdfund/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// SessionExpirer 可按空闲时长清理的会话注册表
type SessionExpirer interface {
	Expire(idle time.Duration) int
}

// SessionExpiryJob 清理长时间未访问的向导会话
type SessionExpiryJob struct {
	sessions SessionExpirer
	interval time.Duration
	idle     time.Duration
}

// NewSessionExpiryJob interval 与 idle 均为秒
func NewSessionExpiryJob(sessions SessionExpirer, interval, idle int) *SessionExpiryJob {
	return &SessionExpiryJob{
		sessions: sessions,
		interval: time.Duration(interval) * time.Second,
		idle:     time.Duration(idle) * time.Second,
	}
}

// GetName 获取任务名称
func (j *SessionExpiryJob) GetName() string {
	return "wizard_session_expiry"
}

// GetSchedule 获取调度配置
func (j *SessionExpiryJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *SessionExpiryJob) Execute() {
	n := j.sessions.Expire(j.idle)
	if n > 0 {
		logger.Info("Expired %d idle wizard sessions", n)
		return
	}
	logger.Debug("No idle wizard sessions to expire")
}
