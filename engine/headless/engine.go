// Package headless 提供不依赖 GPU 的 engine.Engine 实现。
//
// 所有对象只记录状态，渲染调用仅计数，适合测试与无显示环境下运行。
package headless

import (
	"time"

	"github.com/gocrud/program/engine"
)

// Engine 无头引擎
type Engine struct {
	// Now 时钟使用的时间源，为空时使用 time.Now
	Now func() time.Time
	// DisableComposer 模拟不支持后处理的引擎
	DisableComposer bool

	surfaces []*Surface
}

// New 创建无头引擎
func New() *Engine {
	return &Engine{}
}

func (e *Engine) NewSurface(mount engine.Mount) (engine.Surface, error) {
	s := &Surface{mount: mount, pixelRatio: 1}
	e.surfaces = append(e.surfaces, s)
	return s, nil
}

func (e *Engine) NewScene() engine.Scene { return NewScene() }

func (e *Engine) NewCamera(fov, aspect float64) engine.Camera { return NewCamera(fov, aspect) }

func (e *Engine) NewClock() engine.Clock { return NewClock(e.Now) }

func (e *Engine) NewComposer(surface engine.Surface, scene engine.Scene, camera engine.Camera) (engine.Composer, error) {
	if e.DisableComposer {
		return nil, engine.ErrComposerUnsupported
	}
	s, ok := surface.(*Surface)
	if !ok {
		return nil, engine.ErrComposerUnsupported
	}
	c := &Composer{surface: s, scene: scene, camera: camera}
	c.AddPass(NewPass("RenderPass"))
	return c, nil
}

func (e *Engine) NewAxesHelper(size float64) engine.Object {
	return NewNode("AxesHelper", "AxesHelper")
}

func (e *Engine) NewCameraHelper(camera engine.Camera) engine.Object {
	return NewNode(camera.Name()+"Helper", "CameraHelper")
}

func (e *Engine) NewOrbitControls(camera engine.Camera, surface engine.Surface) engine.Controls {
	return &Controls{Camera: camera, Surface: surface}
}

// Surfaces 返回已创建的渲染表面
func (e *Engine) Surfaces() []*Surface {
	return append([]*Surface(nil), e.surfaces...)
}
