package core

import "context"

// SetupHook 初始化阶段钩子，可以阻塞（例如等待资源加载）
type SetupHook func(ctx context.Context, c *Context) error

// FrameHook 每帧钩子，在帧循环的 goroutine 上同步执行
type FrameHook func(c *Context) error

// Module 一组可选的生命周期钩子
//
// 为 nil 的钩子视为空操作。注册后不应再修改。
type Module struct {
	Name string

	OnLoad          SetupHook
	OnInit          SetupHook
	OnEventListener SetupHook

	// OnAnimate 每帧渲染前按注册顺序执行
	OnAnimate FrameHook
	// OnAfterAnimate 每帧渲染后按注册的逆序执行
	OnAfterAnimate FrameHook
}

// ModuleOption 模块构建选项
type ModuleOption func(*Module)

// NewModule 创建模块
func NewModule(name string, opts ...ModuleOption) Module {
	m := Module{Name: name}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func OnLoad(h SetupHook) ModuleOption { return func(m *Module) { m.OnLoad = h } }
func OnInit(h SetupHook) ModuleOption { return func(m *Module) { m.OnInit = h } }
func OnEventListener(h SetupHook) ModuleOption { return func(m *Module) { m.OnEventListener = h } }
func OnAnimate(h FrameHook) ModuleOption { return func(m *Module) { m.OnAnimate = h } }
func OnAfterAnimate(h FrameHook) ModuleOption { return func(m *Module) { m.OnAfterAnimate = h } }

// Phase 生命周期阶段
type Phase int

const (
	PhaseLoad Phase = iota
	PhaseInit
	PhaseEventListener
	PhaseAnimate
	PhaseRender
	PhaseAfterAnimate
)

func (p Phase) String() string {
	switch p {
	case PhaseLoad:
		return "onLoad"
	case PhaseInit:
		return "onInit"
	case PhaseEventListener:
		return "onEventListener"
	case PhaseAnimate:
		return "onAnimate"
	case PhaseRender:
		return "render"
	case PhaseAfterAnimate:
		return "onAfterAnimate"
	default:
		return "unknown"
	}
}

// setupHook 返回模块在某个初始化阶段的钩子
func (m Module) setupHook(p Phase) SetupHook {
	switch p {
	case PhaseLoad:
		return m.OnLoad
	case PhaseInit:
		return m.OnInit
	case PhaseEventListener:
		return m.OnEventListener
	}
	return nil
}
