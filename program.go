package program

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gocrud/program/core"
	"github.com/gocrud/program/engine/headless"
	"github.com/gocrud/program/events"
	"github.com/gocrud/program/frame"
	"github.com/gocrud/program/logging"
	"github.com/gocrud/program/plugins"
)

// Program 组装好的程序
type Program struct {
	Runtime   *core.Runtime
	Assets    *Assets
	Stats     *plugins.Stats
	Inspector *plugins.Inspector
	// Input 宿主输入队列，可在任意 goroutine 上 Push
	Input *events.Queue

	logger logging.Logger
}

// NewLogger 按配置创建控制台日志
func NewLogger(s LogSettings) logging.Logger {
	builder := logging.NewLoggingBuilder().SetMinimumLevel(logging.ParseLevel(s.Level))
	if s.Json {
		builder.AddConsole(logging.ConsoleLoggerOptions{Json: true, Output: os.Stdout})
	} else {
		builder.AddConsole()
	}
	return builder.Build().CreateLogger("Program")
}

// New 按配置组装运行时
//
// 注册顺序：StatsPlugin、EventsManager、DebugToolsPlugin、CameraHelperPlugin、
// 调用方模块、ResourceLoader、InspectorPlugin。opts 在配置之后应用，可覆盖引擎、帧宿主等。
func New(s Settings, logger logging.Logger, modules []core.Module, opts ...core.Option) (*Program, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewLogger(s.Log)
	}
	mode, _ := core.ParseRenderMode(s.RenderMode)

	p := &Program{Input: events.NewQueue(64), logger: logger}

	assets, err := NewAssets(s.Assets, logger.WithCategory("ResourceLoader"))
	if err != nil {
		return nil, err
	}
	p.Assets = assets

	var ordered []core.Module
	if s.Stats.Enabled {
		var statsOpts []plugins.StatsOption
		if s.Stats.Report != "" {
			statsOpts = append(statsOpts, plugins.WithReportSchedule(s.Stats.Report))
		}
		p.Stats = plugins.NewStats(statsOpts...)
		ordered = append(ordered, p.Stats.Module())
	}
	ordered = append(ordered, plugins.Events(p.Input))
	if s.Debug {
		ordered = append(ordered, plugins.DebugTools(), plugins.CameraHelper())
	}
	ordered = append(ordered, modules...)
	ordered = append(ordered, assets.Module())
	if s.Inspector.Enabled {
		p.Inspector = plugins.NewInspector(s.Inspector.Addr)
		ordered = append(ordered, p.Inspector.Module())
	}

	base := []core.Option{
		core.WithEngine(headless.New()),
		core.WithLogger(logger),
		core.WithMount(s.Mount),
		core.WithRenderMode(mode),
		core.WithFrameHost(frame.NewTicker(s.FPS)),
		core.WithViewport(headless.Viewport{
			Width:      s.Viewport.Width,
			Height:     s.Viewport.Height,
			PixelRatio: s.Viewport.PixelRatio,
		}),
		core.WithSettings(s.coreSettings()),
		core.WithModules(ordered...),
	}
	rt, err := core.NewRuntime(append(base, opts...)...)
	if err != nil {
		assets.Close()
		return nil, err
	}
	rt.Provide(plugins.LoaderKey, assets.Loader)
	p.Runtime = rt
	return p, nil
}

// Run 运行到 ctx 取消或出错，返回前关闭资源连接
func (p *Program) Run(ctx context.Context) error {
	err := p.Runtime.Run(ctx)
	if cerr := p.Assets.Close(); cerr != nil {
		p.logger.Warn("Failed to close asset sources", logging.Err(cerr))
	}
	return err
}

// Run 运行程序直到 ctx 取消或收到 SIGINT、SIGTERM
func Run(ctx context.Context, p *Program) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := p.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// StopAfter 返回在第 frames 帧结束后调用 cancel 的模块
func StopAfter(frames uint64, cancel context.CancelFunc) core.Module {
	return core.NewModule("StopAfter",
		core.OnAfterAnimate(func(c *core.Context) error {
			if c.Frame() >= frames {
				cancel()
			}
			return nil
		}),
	)
}
