// Package plugins 提供常用的运行时模块：帧统计、调试工具、相机辅助、宿主事件转发与调试 HTTP 服务。
package plugins

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/program/core"
	"github.com/gocrud/program/cron"
	"github.com/gocrud/program/logging"
)

// 上下文键
const (
	StatsKey         = "Stats"
	OrbitControlsKey = "OrbitControls"
	HelperCameraKey  = "HelperCamera"
	LoaderKey        = "ResourceLoader"
)

// StatsSnapshot 帧统计快照
type StatsSnapshot struct {
	Frames      uint64  `json:"frames"`
	FPS         float64 `json:"fps"`
	FrameTimeMs float64 `json:"frameTimeMs"`
	MaxFrameMs  float64 `json:"maxFrameMs"`
}

// Stats 帧统计
//
// 必须第一个注册：Begin 在所有 OnAnimate 之前，End 在所有 OnAfterAnimate 之后，
// 这样统计的时间覆盖整帧。
type Stats struct {
	mu  sync.Mutex
	now func() time.Time

	begin        time.Time
	frames       uint64
	frameTime    time.Duration
	maxFrameTime time.Duration

	windowStart  time.Time
	windowFrames int
	fps          float64

	reportSpec string
}

// StatsOption 统计选项
type StatsOption func(*Stats)

// WithReportSchedule 按 cron 表达式定期输出统计日志，例如 "@every 10s"
func WithReportSchedule(spec string) StatsOption {
	return func(s *Stats) { s.reportSpec = spec }
}

// WithClock 替换时间源
func WithClock(now func() time.Time) StatsOption {
	return func(s *Stats) { s.now = now }
}

// NewStats 创建帧统计
func NewStats(opts ...StatsOption) *Stats {
	s := &Stats{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin 标记帧开始
func (s *Stats) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin = s.now()
	if s.windowStart.IsZero() {
		s.windowStart = s.begin
	}
}

// End 标记帧结束，每满一秒更新一次 FPS
func (s *Stats) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.begin.IsZero() {
		return
	}
	t := s.now()
	s.frames++
	s.frameTime = t.Sub(s.begin)
	if s.frameTime > s.maxFrameTime {
		s.maxFrameTime = s.frameTime
	}

	s.windowFrames++
	if elapsed := t.Sub(s.windowStart); elapsed >= time.Second {
		s.fps = float64(s.windowFrames) / elapsed.Seconds()
		s.windowStart = t
		s.windowFrames = 0
	}
}

// Snapshot 返回当前统计
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		Frames:      s.frames,
		FPS:         s.fps,
		FrameTimeMs: float64(s.frameTime) / float64(time.Millisecond),
		MaxFrameMs:  float64(s.maxFrameTime) / float64(time.Millisecond),
	}
}

// Module 返回统计模块
func (s *Stats) Module() core.Module {
	return core.NewModule("StatsPlugin",
		core.OnInit(func(ctx context.Context, c *core.Context) error {
			c.Provide(StatsKey, s)
			if s.reportSpec == "" {
				return nil
			}
			logger := c.Logger().WithCategory("Stats")
			scheduler := cron.NewScheduler("stats-report", logger)
			if err := scheduler.AddJob(s.reportSpec, "report", func() {
				snap := s.Snapshot()
				logger.Info("Frame stats",
					logging.F("frames", snap.Frames),
					logging.F("fps", fmt.Sprintf("%.1f", snap.FPS)),
					logging.F("frameTimeMs", fmt.Sprintf("%.2f", snap.FrameTimeMs)))
			}); err != nil {
				return err
			}
			c.AddService(scheduler)
			return nil
		}),
		core.OnAnimate(func(c *core.Context) error {
			s.Begin()
			return nil
		}),
		core.OnAfterAnimate(func(c *core.Context) error {
			s.End()
			return nil
		}),
	)
}
