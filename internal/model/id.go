package model

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator 基于毫秒时间戳的单调递增 ID
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator 创建 ID 生成器，now 为空时使用系统时间
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next 返回下一个 ID，同一毫秒内多次调用时顺延
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}
