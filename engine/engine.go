// Package engine 定义运行时与图形引擎之间的边界。
//
// 运行时只依赖这里的接口：渲染表面、场景根节点、相机、时钟、后处理合成器，
// 以及按资源类型划分的加载策略。具体实现由引擎集成提供，
// 子包 headless 提供一个不依赖 GPU 的参考实现，用于测试与命令行演示。
package engine

import (
	"context"
	"errors"
)

// ErrComposerUnsupported 引擎不支持后处理合成器
var ErrComposerUnsupported = errors.New("engine: composer not supported")

// Object 场景中的对象
type Object interface {
	Name() string
	SetName(name string)
	Visible() bool
	SetVisible(visible bool)
}

// Scene 场景根节点
type Scene interface {
	Add(objects ...Object)
	Remove(object Object)
	// ObjectByName 按名称查找对象（深度优先，返回第一个匹配）
	ObjectByName(name string) (Object, bool)
	Objects() []Object
}

// Camera 透视相机
type Camera interface {
	Object
	FOV() float64
	Aspect() float64
	SetAspect(aspect float64)
	// UpdateProjection 在修改视锥参数后重新计算投影矩阵
	UpdateProjection()
	SetPosition(x, y, z float64)
	Position() (x, y, z float64)
	LookAt(x, y, z float64)
	// Clone 复制相机参数，返回一个新名称的相机
	Clone(name string) Camera
}

// Clock 帧时钟
type Clock interface {
	// Delta 返回距上一次调用 Delta 的秒数
	Delta() float64
	// Elapsed 返回时钟创建以来的秒数
	Elapsed() float64
}

// Mount 渲染表面挂载的宿主元素
type Mount interface {
	ID() string
}

// MountResolver 按标识查找挂载元素
type MountResolver interface {
	Resolve(id string) (Mount, bool)
}

// Viewport 宿主窗口的尺寸信息
type Viewport interface {
	Size() (width, height int)
	DevicePixelRatio() float64
}

// Surface 渲染表面
type Surface interface {
	Mount() Mount
	SetSize(width, height int)
	Size() (width, height int)
	SetPixelRatio(ratio float64)
	PixelRatio() float64
	// Render 直接渲染场景
	Render(scene Scene, camera Camera) error
}

// Pass 后处理通道
type Pass interface {
	Name() string
}

// Composer 后处理合成器，第一个通道总是场景渲染通道
type Composer interface {
	AddPass(pass Pass)
	Passes() []Pass
	Render() error
}

// Controls 相机交互控制器（例如轨道控制）
type Controls interface {
	Update()
	Dispose()
}

// Engine 图形引擎工厂
type Engine interface {
	NewSurface(mount Mount) (Surface, error)
	NewScene() Scene
	NewCamera(fov, aspect float64) Camera
	NewClock() Clock
	// NewComposer 创建合成器，不支持时返回 ErrComposerUnsupported
	NewComposer(surface Surface, scene Scene, camera Camera) (Composer, error)

	NewAxesHelper(size float64) Object
	NewCameraHelper(camera Camera) Object
	NewOrbitControls(camera Camera, surface Surface) Controls
}

// ProgressFunc 传输进度回调，total 未知时为 0
type ProgressFunc func(loaded, total int64)

// Strategy 某一资源类型的获取策略
//
// Acquire 阻塞直到资源获取成功或失败；获取过程中可多次调用 progress。
type Strategy interface {
	Acquire(ctx context.Context, url string, progress ProgressFunc) (any, error)
}

// StrategyFunc 将普通函数适配为 Strategy
type StrategyFunc func(ctx context.Context, url string, progress ProgressFunc) (any, error)

// Acquire 实现 Strategy
func (f StrategyFunc) Acquire(ctx context.Context, url string, progress ProgressFunc) (any, error) {
	return f(ctx, url, progress)
}
