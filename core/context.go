package core

import (
	"sort"

	"github.com/gocrud/program/engine"
	"github.com/gocrud/program/events"
	"github.com/gocrud/program/hosting"
	"github.com/gocrud/program/logging"
)

// Context 所有模块共享的运行时上下文
//
// 核心句柄在 Run 的第一步创建，之后不为 nil（Composer 在引擎不支持时为 nil）。
// Context 不加锁：初始化阶段顺序执行，帧钩子都在帧循环的 goroutine 上执行。
type Context struct {
	Surface  engine.Surface
	Camera   engine.Camera
	Clock    engine.Clock
	Scene    engine.Scene
	Composer engine.Composer

	values   map[string]any
	logger   logging.Logger
	events   *events.Bus
	engine   engine.Engine
	services *hosting.Manager

	delta float64
	frame uint64
}

func newContext(logger logging.Logger, bus *events.Bus, eng engine.Engine) *Context {
	return &Context{
		values:   make(map[string]any),
		logger:   logger,
		events:   bus,
		engine:   eng,
		services: hosting.NewManager(logger.WithCategory("Hosting")),
	}
}

// Provide 存入共享值，同名键直接覆盖
func (c *Context) Provide(key string, value any) {
	c.values[key] = value
}

// Get 读取共享值
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys 返回已存入的键（排序）
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Logger 运行时日志记录器
func (c *Context) Logger() logging.Logger { return c.logger }

// Events 运行时事件总线
func (c *Context) Events() *events.Bus { return c.events }

// Engine 创建场景对象所用的引擎
func (c *Context) Engine() engine.Engine { return c.engine }

// Delta 当前帧距上一帧的秒数，初始化阶段为 0
func (c *Context) Delta() float64 { return c.delta }

// Frame 当前帧序号，从 1 开始，初始化阶段为 0
func (c *Context) Frame() uint64 { return c.frame }

// AddService 注册与帧循环并行运行的后台服务
//
// 只能在初始化阶段调用；服务在 OnEventListener 阶段结束后启动，Run 返回前按逆序停止。
func (c *Context) AddService(service hosting.Service) {
	c.services.Add(service)
}

// Lookup 按键读取共享值并断言为 T
func Lookup[T any](c *Context, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
