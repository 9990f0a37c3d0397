package core

import (
	"fmt"

	"github.com/gocrud/program/engine"
	"github.com/gocrud/program/events"
	"github.com/gocrud/program/frame"
	"github.com/gocrud/program/logging"
)

// Option 定义了修改 Runtime 状态的函数签名
type Option func(rt *Runtime) error

// WithEngine 设置图形引擎
func WithEngine(e engine.Engine) Option {
	return func(rt *Runtime) error {
		if e == nil {
			return fmt.Errorf("%w: engine is nil", ErrConfiguration)
		}
		rt.engine = e
		return nil
	}
}

// WithMount 设置挂载标识，可以带前导 "#"
func WithMount(id string) Option {
	return func(rt *Runtime) error {
		rt.mountID = id
		return nil
	}
}

// WithMountResolver 设置挂载解析器
func WithMountResolver(r engine.MountResolver) Option {
	return func(rt *Runtime) error {
		rt.mounts = r
		return nil
	}
}

// WithViewport 设置宿主视口
func WithViewport(v engine.Viewport) Option {
	return func(rt *Runtime) error {
		if v == nil {
			return fmt.Errorf("%w: viewport is nil", ErrConfiguration)
		}
		rt.viewport = v
		return nil
	}
}

// WithRenderMode 设置渲染方式
func WithRenderMode(mode RenderMode) Option {
	return func(rt *Runtime) error {
		m, err := ParseRenderMode(string(mode))
		if err != nil {
			return err
		}
		rt.mode = m
		return nil
	}
}

// WithFrameHost 设置帧节拍宿主
func WithFrameHost(h frame.Host) Option {
	return func(rt *Runtime) error {
		if h == nil {
			return fmt.Errorf("%w: frame host is nil", ErrConfiguration)
		}
		rt.host = h
		return nil
	}
}

// WithLogger 设置日志记录器
func WithLogger(l logging.Logger) Option {
	return func(rt *Runtime) error {
		if l != nil {
			rt.logger = l
		}
		return nil
	}
}

// WithEvents 使用外部事件总线
func WithEvents(bus *events.Bus) Option {
	return func(rt *Runtime) error {
		if bus != nil {
			rt.events = bus
		}
		return nil
	}
}

// WithSettings 设置核心对象参数
func WithSettings(s Settings) Option {
	return func(rt *Runtime) error {
		if err := s.validate(); err != nil {
			return err
		}
		rt.settings = s
		return nil
	}
}

// WithModules 注册模块，等同于 Register
func WithModules(modules ...Module) Option {
	return func(rt *Runtime) error {
		rt.modules = append(rt.modules, modules...)
		return nil
	}
}
