// Package config 分层配置：多个配置源按添加顺序合并，后添加的覆盖先添加的。
//
// 键路径同时支持 "a:b:c" 与 "a.b.c" 两种写法。
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Configuration 只读配置视图
type Configuration interface {
	// Get 获取配置值的字符串形式，不存在时返回空串
	Get(key string) string
	// GetWithDefault 获取配置值，不存在时返回默认值
	GetWithDefault(key, defaultValue string) string
	GetInt(key string) (int, error)
	GetBool(key string) (bool, error)
	// GetDuration 支持 "1.5s" 形式的字符串，数字按秒解释
	GetDuration(key string) (time.Duration, error)
	// GetSection 获取配置节，不存在时返回空配置
	GetSection(key string) Configuration
	// Bind 将配置节绑定到结构体，key 为空时绑定全部
	Bind(key string, target any) error
	// GetAll 返回全部配置的副本
	GetAll() map[string]any
}

// ConfigurationSource 配置源
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
}

// KeyNotFoundError 配置键不存在
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("config: key %q not found", e.Key)
}

// ConfigurationBuilder 配置构建器
type ConfigurationBuilder struct {
	sources []ConfigurationSource
	mu      sync.RWMutex
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{}
}

// Add 添加配置源
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	return b
}

// AddJsonFile 添加 JSON 文件配置源
func (b *ConfigurationBuilder) AddJsonFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&JsonFileSource{Path: path, Optional: len(optional) > 0 && optional[0]})
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&YamlFileSource{Path: path, Optional: len(optional) > 0 && optional[0]})
}

// AddEnvironmentVariables 添加环境变量配置源，可选地挂在 section 下
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string, section ...string) *ConfigurationBuilder {
	src := &EnvironmentVariableSource{Prefix: prefix}
	if len(section) > 0 {
		src.Section = section[0]
	}
	return b.Add(src)
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// AddEtcd 添加 etcd 配置源
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return b.Add(&EtcdSource{Options: opts})
}

// Build 加载所有配置源并合并
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	c, err := b.BuildReloadable()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// BuildReloadable 构建可重新加载的配置
func (b *ConfigurationBuilder) BuildReloadable() (*ReloadableConfiguration, error) {
	b.mu.RLock()
	sources := append([]ConfigurationSource(nil), b.sources...)
	b.mu.RUnlock()

	c := &ReloadableConfiguration{
		configuration: configuration{store: NewValueStore(), paths: globalPathCache},
		sources:       sources,
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// ReloadableConfiguration 支持从配置源重新加载的配置
//
// 读取无锁；Reload 成功后整体替换配置快照，失败时保留旧快照。
type ReloadableConfiguration struct {
	configuration

	sources   []ConfigurationSource
	mu        sync.Mutex
	callbacks []func()
}

// Reload 重新读取所有配置源
func (c *ReloadableConfiguration) Reload() error {
	c.mu.Lock()
	data := make(map[string]any)
	for _, source := range c.sources {
		loaded, err := source.Load()
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("config: load source %s: %w", source.Name(), err)
		}
		mergeMaps(data, loaded)
	}
	c.store.Store(data)
	callbacks := append([]func(){}, c.callbacks...)
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// OnReload 注册重新加载成功后的回调
func (c *ReloadableConfiguration) OnReload(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// configuration 基于快照的只读配置
type configuration struct {
	store *ValueStore
	paths *PathCache
}

func newSnapshot(data map[string]any) *configuration {
	store := NewValueStore()
	store.Store(data)
	return &configuration{store: store, paths: globalPathCache}
}

func (c *configuration) Get(key string) string {
	value := c.getByPath(key)
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (c *configuration) GetWithDefault(key, defaultValue string) string {
	if value := c.Get(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *configuration) GetInt(key string) (int, error) {
	switch v := c.getByPath(key).(type) {
	case nil:
		return 0, &KeyNotFoundError{Key: key}
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("config: cannot convert %v to int", v)
	}
}

func (c *configuration) GetBool(key string) (bool, error) {
	switch v := c.getByPath(key).(type) {
	case nil:
		return false, &KeyNotFoundError{Key: key}
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("config: cannot convert %v to bool", v)
	}
}

func (c *configuration) GetDuration(key string) (time.Duration, error) {
	switch v := c.getByPath(key).(type) {
	case nil:
		return 0, &KeyNotFoundError{Key: key}
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		return time.ParseDuration(v)
	default:
		return 0, fmt.Errorf("config: cannot convert %v to duration", v)
	}
}

func (c *configuration) GetSection(key string) Configuration {
	if m, ok := c.getByPath(key).(map[string]any); ok {
		return newSnapshot(m)
	}
	return newSnapshot(make(map[string]any))
}

func (c *configuration) Bind(key string, target any) error {
	data := c.getByPath(key)
	if data == nil {
		return &KeyNotFoundError{Key: key}
	}

	// 通过 JSON 往返绑定，字段名匹配不区分大小写
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("config: marshal %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("config: bind %q: %w", key, err)
	}
	return nil
}

func (c *configuration) GetAll() map[string]any {
	result := make(map[string]any)
	mergeMaps(result, c.store.Load())
	return result
}

func (c *configuration) getByPath(path string) any {
	data := c.store.Load()
	if path == "" {
		return data
	}
	current := any(data)
	for _, part := range c.paths.GetPathSegments(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// mergeMaps 将 src 深度合并进 dst
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if dstMap, ok := dst[k].(map[string]any); ok {
			if srcMap, ok := v.(map[string]any); ok {
				mergeMaps(dstMap, srcMap)
				continue
			}
		}
		if srcMap, ok := v.(map[string]any); ok {
			copied := make(map[string]any, len(srcMap))
			mergeMaps(copied, srcMap)
			dst[k] = copied
			continue
		}
		dst[k] = v
	}
}
