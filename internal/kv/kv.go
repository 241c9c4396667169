// Package kv 带字节配额的同步键值存储，用于保存序列化后的项目目录
package kv

import "errors"

// ErrQuotaExceeded 写入超出配额时由 Set 返回，原值保持不变
var ErrQuotaExceeded = errors.New("kv: quota exceeded")

// Store 同步的字符串键值存储
type Store interface {
	// Get 返回值以及键是否存在
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove 键不存在时什么也不做
	Remove(key string) error
}

// entrySize 一个键值对占用的配额
func entrySize(key, value string) int {
	return len(key) + len(value)
}
