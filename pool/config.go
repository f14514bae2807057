package pool

import (
	"maps"
	"strconv"
	"strings"
	"sync"
)

// Config 连接池配置，扁平的 string -> string 映射，可被 key 钩子并发更新。
type Config struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewConfig 拷贝 values 构造配置。
func NewConfig(values map[string]string) *Config {
	c := &Config{values: make(map[string]string, len(values))}
	maps.Copy(c.values, values)
	return c
}

// Set 写入配置项。
func (c *Config) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get 读取原始值。
func (c *Config) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// String 读取字符串，缺失或为空时返回 def。
func (c *Config) String(key, def string) string {
	if v, ok := c.Get(key); ok && v != "" {
		return v
	}
	return def
}

// Int 读取整数，缺失或无法解析时返回 def。
func (c *Config) Int(key string, def int) int {
	if v, ok := c.Get(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Bool 读取布尔值，缺失或无法解析时返回 def。
func (c *Config) Bool(key string, def bool) bool {
	if v, ok := c.Get(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// Snapshot 返回当前配置的拷贝。
func (c *Config) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}
