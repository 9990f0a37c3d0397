package config

import (
	"strings"
	"sync"
)

// PathCache 缓存键路径的拆分结果
type PathCache struct {
	cache sync.Map
}

// GetPathSegments 拆分 "a:b.c" 形式的路径
func (c *PathCache) GetPathSegments(path string) []string {
	if v, ok := c.cache.Load(path); ok {
		return v.([]string)
	}
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == ':' || r == '.' })
	c.cache.Store(path, parts)
	return parts
}

var globalPathCache = &PathCache{}
