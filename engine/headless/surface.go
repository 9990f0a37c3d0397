package headless

import (
	"sync/atomic"

	"github.com/gocrud/program/engine"
)

// Mount 挂载元素
type Mount string

func (m Mount) ID() string { return string(m) }

// Mounts 已知挂载元素集合
type Mounts map[string]bool

// NewMounts 根据 id 列表创建解析器
func NewMounts(ids ...string) Mounts {
	m := make(Mounts, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func (m Mounts) Resolve(id string) (engine.Mount, bool) {
	if !m[id] {
		return nil, false
	}
	return Mount(id), true
}

// Viewport 固定尺寸的视口
type Viewport struct {
	Width, Height int
	PixelRatio    float64
}

func (v Viewport) Size() (int, int) { return v.Width, v.Height }
func (v Viewport) DevicePixelRatio() float64 { return v.PixelRatio }

// Surface 不输出像素的渲染表面，记录渲染次数
type Surface struct {
	mount      engine.Mount
	width      int
	height     int
	pixelRatio float64
	renders    atomic.Int64
	// OnRender 每次渲染时调用（测试中用于观察调用顺序）
	OnRender func(scene engine.Scene, camera engine.Camera) error
}

func (s *Surface) Mount() engine.Mount { return s.mount }
func (s *Surface) SetSize(width, height int) { s.width, s.height = width, height }
func (s *Surface) Size() (int, int) { return s.width, s.height }
func (s *Surface) SetPixelRatio(ratio float64) { s.pixelRatio = ratio }
func (s *Surface) PixelRatio() float64 { return s.pixelRatio }

// Renders 返回已渲染帧数
func (s *Surface) Renders() int64 { return s.renders.Load() }

func (s *Surface) Render(scene engine.Scene, camera engine.Camera) error {
	s.renders.Add(1)
	if s.OnRender != nil {
		return s.OnRender(scene, camera)
	}
	return nil
}

// Composer 后处理合成器
type Composer struct {
	surface *Surface
	scene   engine.Scene
	camera  engine.Camera
	passes  []engine.Pass
	renders atomic.Int64
}

// pass 命名通道
type pass string

func (p pass) Name() string { return string(p) }

// NewPass 创建一个命名的后处理通道
func NewPass(name string) engine.Pass { return pass(name) }

func (c *Composer) AddPass(p engine.Pass) { c.passes = append(c.passes, p) }

func (c *Composer) Passes() []engine.Pass {
	return append([]engine.Pass(nil), c.passes...)
}

// Renders 返回合成器渲染次数
func (c *Composer) Renders() int64 { return c.renders.Load() }

func (c *Composer) Render() error {
	c.renders.Add(1)
	return c.surface.Render(c.scene, c.camera)
}

// Controls 轨道控制器，记录更新次数
type Controls struct {
	Camera   engine.Camera
	Surface  engine.Surface
	updates  int
	disposed bool
}

func (c *Controls) Update() { c.updates++ }
func (c *Controls) Dispose() { c.disposed = true }

// Updates 返回 Update 调用次数
func (c *Controls) Updates() int { return c.updates }

// Disposed 是否已释放
func (c *Controls) Disposed() bool { return c.disposed }
