// Package core 实现模块运行时：按阶段驱动模块钩子，并在帧循环中调度每帧钩子。
//
// 生命周期：
//
//	onLoad -> onInit -> onEventListener -> 帧循环
//	                                       onAnimate（注册顺序）
//	                                       render
//	                                       onAfterAnimate（注册逆序）
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gocrud/program/engine"
	"github.com/gocrud/program/engine/headless"
	"github.com/gocrud/program/events"
	"github.com/gocrud/program/frame"
	"github.com/gocrud/program/logging"
)

// Runtime 模块运行时
type Runtime struct {
	engine   engine.Engine
	mounts   engine.MountResolver
	viewport engine.Viewport
	mountID  string
	mode     RenderMode
	host     frame.Host
	logger   logging.Logger
	events   *events.Bus
	settings Settings

	modules []Module
	ctx     *Context
	running atomic.Bool
}

// NewRuntime 创建运行时
//
// 未指定的依赖使用默认值：无头引擎、1280x720 视口、60 FPS 帧节拍、直接渲染。
func NewRuntime(opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		engine:   headless.New(),
		viewport: headless.Viewport{Width: 1280, Height: 720, PixelRatio: 1},
		mountID:  DefaultMountID,
		mode:     RenderDirect,
		host:     frame.NewTicker(frame.DefaultFPS),
		logger:   logging.NewLogger(),
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return nil, err
		}
	}
	if rt.events == nil {
		rt.events = events.NewBus()
	}
	rt.logger = rt.logger.WithCategory("Runtime")
	rt.ctx = newContext(rt.logger, rt.events, rt.engine)
	return rt, nil
}

// Register 追加模块，不检查重名
func (rt *Runtime) Register(modules ...Module) {
	rt.modules = append(rt.modules, modules...)
}

// Modules 返回已注册模块名（注册顺序）
func (rt *Runtime) Modules() []string {
	names := make([]string, len(rt.modules))
	for i, m := range rt.modules {
		names[i] = m.Name
	}
	return names
}

// Provide 在 Run 之前向上下文存入值
func (rt *Runtime) Provide(key string, value any) {
	rt.ctx.Provide(key, value)
}

// Get 读取上下文中的值
func (rt *Runtime) Get(key string) (any, bool) {
	return rt.ctx.Get(key)
}

// Context 返回共享上下文
func (rt *Runtime) Context() *Context {
	return rt.ctx
}

// Events 返回事件总线
func (rt *Runtime) Events() *events.Bus {
	return rt.events
}

// Run 创建核心对象，依次执行初始化阶段，然后进入帧循环
//
// 初始化钩子出错时返回 *PhaseError 且不进入帧循环；帧钩子或渲染出错时返回 *FrameError。
// ctx 取消后帧循环结束，Run 返回 nil。
func (rt *Runtime) Run(ctx context.Context) error {
	if !rt.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	if err := rt.coreInit(); err != nil {
		return err
	}
	off := rt.events.On(events.EventWindowResize, rt.onResize)
	defer off()

	lc := newLifecycle(rt.modules, rt.logger)
	for _, phase := range []Phase{PhaseLoad, PhaseInit, PhaseEventListener} {
		if err := lc.setup(ctx, phase, rt.ctx); err != nil {
			rt.logger.Error("Lifecycle phase failed", logging.Err(err))
			return err
		}
	}

	svcCtx, cancelServices := context.WithCancel(ctx)
	serviceErrs := rt.ctx.services.StartAll(svcCtx)
	defer rt.stopServices(cancelServices)

	rt.logger.Info("Entering frame loop",
		logging.F("modules", len(rt.modules)),
		logging.F("mode", string(rt.mode)))

	for n := uint64(1); ; n++ {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case err := <-serviceErrs:
			return err
		default:
		}

		rt.ctx.frame = n
		rt.ctx.delta = rt.ctx.Clock.Delta()
		if err := lc.frame(n, rt.ctx, rt.render); err != nil {
			rt.logger.Error("Frame loop stopped", logging.Err(err))
			return err
		}

		if err := rt.host.Next(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("core: frame host: %w", err)
		}
	}
}

// coreInit 创建渲染表面、场景、时钟、主相机与合成器
func (rt *Runtime) coreInit() error {
	id := strings.TrimPrefix(rt.mountID, "#")
	if id == "" {
		return ErrEmptyMountID
	}

	resolver := rt.mounts
	if resolver == nil {
		resolver = headless.NewMounts(id)
	}
	mount, ok := resolver.Resolve(id)
	if !ok {
		return &MountNotFoundError{ID: id}
	}

	s := rt.settings
	width, height := rt.viewport.Size()
	ratio := engine.Clamp(rt.viewport.DevicePixelRatio(), s.MinPixelRatio, s.MaxPixelRatio)

	surface, err := rt.engine.NewSurface(mount)
	if err != nil {
		return fmt.Errorf("core: create surface: %w", err)
	}
	surface.SetSize(width, height)
	surface.SetPixelRatio(ratio)

	scene := rt.engine.NewScene()
	clock := rt.engine.NewClock()

	camera := rt.engine.NewCamera(s.FOV, aspect(width, height))
	camera.SetPosition(s.CameraPosition[0], s.CameraPosition[1], s.CameraPosition[2])
	camera.LookAt(s.CameraTarget[0], s.CameraTarget[1], s.CameraTarget[2])
	camera.SetName(MainCameraName)
	scene.Add(camera)

	composer, err := rt.engine.NewComposer(surface, scene, camera)
	switch {
	case errors.Is(err, engine.ErrComposerUnsupported):
		composer = nil
		if rt.mode == RenderComposer {
			return fmt.Errorf("%w: render mode %s requires a composer", ErrConfiguration, rt.mode)
		}
	case err != nil:
		return fmt.Errorf("core: create composer: %w", err)
	}

	rt.ctx.Surface = surface
	rt.ctx.Scene = scene
	rt.ctx.Clock = clock
	rt.ctx.Camera = camera
	rt.ctx.Composer = composer

	rt.logger.Debug("Core initialized",
		logging.F("mount", id),
		logging.F("width", width),
		logging.F("height", height),
		logging.F("pixelRatio", ratio))
	return nil
}

func (rt *Runtime) render() error {
	if rt.mode == RenderComposer {
		return rt.ctx.Composer.Render()
	}
	return rt.ctx.Surface.Render(rt.ctx.Scene, rt.ctx.Camera)
}

// onResize 同步渲染表面尺寸与相机宽高比
func (rt *Runtime) onResize(payload any) {
	r, ok := payload.(events.Resize)
	if !ok || r.Width <= 0 || r.Height <= 0 {
		return
	}
	rt.ctx.Surface.SetSize(r.Width, r.Height)
	rt.ctx.Camera.SetAspect(aspect(r.Width, r.Height))
	rt.ctx.Camera.UpdateProjection()
}

func (rt *Runtime) stopServices(cancelServices context.CancelFunc) {
	cancelServices()
	if rt.ctx.services.Len() == 0 {
		return
	}
	timeout := rt.settings.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultSettings().ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := rt.ctx.services.StopAll(ctx); err != nil {
		rt.logger.Warn("Background services did not stop cleanly", logging.Err(err))
	}
}

func aspect(width, height int) float64 {
	if height <= 0 {
		return 1
	}
	return float64(width) / float64(height)
}
