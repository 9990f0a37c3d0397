package core

import (
	"context"

	"github.com/gocrud/program/logging"
)

// namedFrameHook 带模块名的帧钩子
type namedFrameHook struct {
	module string
	fn     FrameHook
}

// lifecycle 管理模块钩子的执行顺序
//
// 初始化阶段按注册顺序执行；帧钩子在进入帧循环前缓存，
// OnAnimate 正序（先进先出），OnAfterAnimate 逆序（先进后出）。
type lifecycle struct {
	modules      []Module
	animate      []namedFrameHook
	afterAnimate []namedFrameHook
	logger       logging.Logger
}

func newLifecycle(modules []Module, logger logging.Logger) *lifecycle {
	l := &lifecycle{
		modules: append([]Module(nil), modules...),
		logger:  logger,
	}
	for _, m := range l.modules {
		if m.OnAnimate != nil {
			l.animate = append(l.animate, namedFrameHook{module: m.Name, fn: m.OnAnimate})
		}
	}
	for i := len(l.modules) - 1; i >= 0; i-- {
		m := l.modules[i]
		if m.OnAfterAnimate != nil {
			l.afterAnimate = append(l.afterAnimate, namedFrameHook{module: m.Name, fn: m.OnAfterAnimate})
		}
	}
	return l
}

// setup 顺序执行某个初始化阶段，每个钩子返回后才开始下一个
func (l *lifecycle) setup(ctx context.Context, phase Phase, c *Context) error {
	for _, m := range l.modules {
		hook := m.setupHook(phase)
		if hook == nil {
			continue
		}
		l.logger.Trace("Running hook", logging.F("phase", phase.String()), logging.F("module", m.Name))
		if err := hook(ctx, c); err != nil {
			return &PhaseError{Phase: phase, Module: m.Name, Err: err}
		}
	}
	return nil
}

// frame 执行一帧：OnAnimate 正序、渲染、OnAfterAnimate 逆序
func (l *lifecycle) frame(n uint64, c *Context, render func() error) error {
	for _, h := range l.animate {
		if err := h.fn(c); err != nil {
			return &FrameError{Frame: n, Phase: PhaseAnimate, Module: h.module, Err: err}
		}
	}
	if err := render(); err != nil {
		return &FrameError{Frame: n, Phase: PhaseRender, Err: err}
	}
	for _, h := range l.afterAnimate {
		if err := h.fn(c); err != nil {
			return &FrameError{Frame: n, Phase: PhaseAfterAnimate, Module: h.module, Err: err}
		}
	}
	return nil
}
