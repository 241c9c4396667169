package kv

import "sync"

// Memory 进程内的 Store，配额为 0 表示不限制
type Memory struct {
	mu    sync.Mutex
	quota int
	used  int
	data  map[string]string
}

func NewMemory(quota int) *Memory {
	return &Memory{quota: quota, data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + entrySize(key, value)
	if old, ok := m.data[key]; ok {
		used -= entrySize(key, old)
	}
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}

	m.data[key] = value
	m.used = used
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.data[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.data, key)
	}
	return nil
}

// Used 当前已占用的配额字节数
func (m *Memory) Used() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}
