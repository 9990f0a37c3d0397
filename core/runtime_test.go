package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/program/engine"
	"github.com/gocrud/program/engine/headless"
	"github.com/gocrud/program/events"
	"github.com/gocrud/program/frame"
	"github.com/gocrud/program/hosting"
	"github.com/gocrud/program/logging"
)

// stopAfter 在第 n 帧之后取消 ctx
func stopAfter(n int, cancel context.CancelFunc) frame.Host {
	count := 0
	return frame.HostFunc(func(ctx context.Context) error {
		count++
		if count >= n {
			cancel()
		}
		return ctx.Err()
	})
}

func newTestRuntime(t *testing.T, frames int, opts ...Option) (*Runtime, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	base := []Option{
		WithLogger(logging.NewNopLogger()),
		WithFrameHost(stopAfter(frames, cancel)),
	}
	rt, err := NewRuntime(append(base, opts...)...)
	require.NoError(t, err)
	return rt, ctx
}

// recorder 记录钩子调用顺序
type recorder struct {
	calls []string
}

func (r *recorder) add(s string) { r.calls = append(r.calls, s) }

func (r *recorder) module(name string) Module {
	return NewModule(name,
		OnLoad(func(ctx context.Context, c *Context) error { r.add("load:" + name); return nil }),
		OnInit(func(ctx context.Context, c *Context) error { r.add("init:" + name); return nil }),
		OnEventListener(func(ctx context.Context, c *Context) error { r.add("listen:" + name); return nil }),
		OnAnimate(func(c *Context) error { r.add("animate:" + name); return nil }),
		OnAfterAnimate(func(c *Context) error { r.add("after:" + name); return nil }),
	)
}

// observeRenders 在初始化阶段挂上渲染回调
func (r *recorder) observeRenders() Module {
	return NewModule("render-observer", OnInit(func(ctx context.Context, c *Context) error {
		c.Surface.(*headless.Surface).OnRender = func(engine.Scene, engine.Camera) error {
			r.add("render")
			return nil
		}
		return nil
	}))
}

func TestRunPhaseAndFrameOrder(t *testing.T) {
	rec := &recorder{}
	rt, ctx := newTestRuntime(t, 1)
	rt.Register(rec.observeRenders(), rec.module("A"), rec.module("B"))

	require.NoError(t, rt.Run(ctx))
	assert.Equal(t, []string{
		"load:A", "load:B",
		"init:A", "init:B",
		"listen:A", "listen:B",
		"animate:A", "animate:B",
		"render",
		"after:B", "after:A",
	}, rec.calls)
}

func TestRunMultipleFramesRepeatOrder(t *testing.T) {
	rec := &recorder{}
	rt, ctx := newTestRuntime(t, 2)
	rt.Register(rec.observeRenders())
	rt.Register(
		NewModule("stats",
			OnAnimate(func(c *Context) error { rec.add("begin"); return nil }),
			OnAfterAnimate(func(c *Context) error { rec.add("end"); return nil })),
		NewModule("scene",
			OnAnimate(func(c *Context) error { rec.add("rotate"); return nil })),
	)

	require.NoError(t, rt.Run(ctx))
	assert.Equal(t, []string{
		"begin", "rotate", "render", "end",
		"begin", "rotate", "render", "end",
	}, rec.calls)
}

func TestRunWithoutModulesOnlyRenders(t *testing.T) {
	eng := headless.New()
	rt, ctx := newTestRuntime(t, 3, WithEngine(eng))

	require.NoError(t, rt.Run(ctx))
	require.Len(t, eng.Surfaces(), 1)
	assert.Equal(t, int64(3), eng.Surfaces()[0].Renders())
}

func TestSetupErrorAbortsBeforeFrameLoop(t *testing.T) {
	boom := errors.New("asset missing")
	rec := &recorder{}
	eng := headless.New()
	rt, ctx := newTestRuntime(t, 1, WithEngine(eng))
	rt.Register(
		rec.module("A"),
		NewModule("loader", OnLoad(func(ctx context.Context, c *Context) error { return boom })),
		rec.module("C"),
	)

	err := rt.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var phaseErr *PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, PhaseLoad, phaseErr.Phase)
	assert.Equal(t, "loader", phaseErr.Module)

	assert.Equal(t, []string{"load:A"}, rec.calls)
	assert.Equal(t, int64(0), eng.Surfaces()[0].Renders())
}

func TestFrameHookErrorStopsLoop(t *testing.T) {
	boom := errors.New("nan position")
	rec := &recorder{}
	rt, ctx := newTestRuntime(t, 10)
	rt.Register(rec.observeRenders(), rec.module("A"))
	rt.Register(NewModule("broken", OnAnimate(func(c *Context) error {
		if c.Frame() == 2 {
			return boom
		}
		return nil
	})))

	err := rt.Run(ctx)
	var frameErr *FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, uint64(2), frameErr.Frame)
	assert.Equal(t, PhaseAnimate, frameErr.Phase)
	assert.Equal(t, "broken", frameErr.Module)
	assert.ErrorIs(t, err, boom)

	// 第二帧在 broken 处中断：没有渲染，也没有 after
	require.Len(t, rec.calls, 7)
	assert.Equal(t, []string{"animate:A", "render", "after:A", "animate:A"}, rec.calls[3:])
}

func TestRenderErrorStopsLoop(t *testing.T) {
	boom := errors.New("context lost")
	rt, ctx := newTestRuntime(t, 10)
	rt.Register(NewModule("gpu", OnInit(func(ctx context.Context, c *Context) error {
		c.Surface.(*headless.Surface).OnRender = func(engine.Scene, engine.Camera) error { return boom }
		return nil
	})))

	err := rt.Run(ctx)
	var frameErr *FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, PhaseRender, frameErr.Phase)
	assert.Equal(t, uint64(1), frameErr.Frame)
	assert.Empty(t, frameErr.Module)
}

func TestMountErrors(t *testing.T) {
	rt, ctx := newTestRuntime(t, 1, WithMount("#"))
	err := rt.Run(ctx)
	assert.ErrorIs(t, err, ErrEmptyMountID)
	assert.ErrorIs(t, err, ErrConfiguration)

	rt, ctx = newTestRuntime(t, 1, WithMount("#canvas"), WithMountResolver(headless.NewMounts("other")))
	err = rt.Run(ctx)
	var notFound *MountNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "canvas", notFound.ID)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestCoreObjectsCreatedBeforeHooks(t *testing.T) {
	var seen *Context
	rt, ctx := newTestRuntime(t, 1,
		WithMount("#stage"),
		WithMountResolver(headless.NewMounts("stage")),
		WithViewport(headless.Viewport{Width: 1600, Height: 800, PixelRatio: 3}))
	rt.Register(NewModule("probe", OnLoad(func(ctx context.Context, c *Context) error {
		seen = c
		return nil
	})))

	require.NoError(t, rt.Run(ctx))
	require.NotNil(t, seen)
	require.NotNil(t, seen.Surface)
	require.NotNil(t, seen.Scene)
	require.NotNil(t, seen.Clock)
	require.NotNil(t, seen.Camera)
	require.NotNil(t, seen.Composer)

	assert.Equal(t, "stage", seen.Surface.Mount().ID())
	w, h := seen.Surface.Size()
	assert.Equal(t, 1600, w)
	assert.Equal(t, 800, h)
	assert.Equal(t, MaxPixelRatio, seen.Surface.PixelRatio())

	cam := seen.Camera
	assert.Equal(t, MainCameraName, cam.Name())
	assert.Equal(t, 75.0, cam.FOV())
	assert.Equal(t, 2.0, cam.Aspect())
	x, y, z := cam.Position()
	assert.Equal(t, []float64{0.5, 0.5, 5}, []float64{x, y, z})

	found, ok := seen.Scene.ObjectByName(MainCameraName)
	require.True(t, ok)
	assert.Same(t, cam, found)

	passes := seen.Composer.Passes()
	require.NotEmpty(t, passes)
	assert.Equal(t, "RenderPass", passes[0].Name())
}

func TestPixelRatioLowerBound(t *testing.T) {
	rt, ctx := newTestRuntime(t, 1, WithViewport(headless.Viewport{Width: 10, Height: 10, PixelRatio: 0.5}))
	require.NoError(t, rt.Run(ctx))
	assert.Equal(t, MinPixelRatio, rt.Context().Surface.PixelRatio())
}

func TestComposerRenderMode(t *testing.T) {
	eng := headless.New()
	rt, ctx := newTestRuntime(t, 2, WithEngine(eng), WithRenderMode(RenderComposer))
	require.NoError(t, rt.Run(ctx))

	composer := rt.Context().Composer.(*headless.Composer)
	assert.Equal(t, int64(2), composer.Renders())
}

func TestComposerUnsupported(t *testing.T) {
	eng := headless.New()
	eng.DisableComposer = true

	rt, ctx := newTestRuntime(t, 1, WithEngine(eng))
	require.NoError(t, rt.Run(ctx))
	assert.Nil(t, rt.Context().Composer)

	rt, ctx = newTestRuntime(t, 1, WithEngine(eng), WithRenderMode(RenderComposer))
	assert.ErrorIs(t, rt.Run(ctx), ErrConfiguration)
}

func TestInvalidOptions(t *testing.T) {
	_, err := NewRuntime(WithRenderMode("canvas2d"))
	assert.ErrorIs(t, err, ErrConfiguration)

	s := DefaultSettings()
	s.MaxPixelRatio = 0.5
	_, err = NewRuntime(WithSettings(s))
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRuntime(WithEngine(nil))
	assert.Error(t, err)
}

func TestProvideBeforeRunSurvives(t *testing.T) {
	rt, ctx := newTestRuntime(t, 1)
	rt.Provide("speed", 2.5)

	var got float64
	rt.Register(NewModule("reader", OnInit(func(ctx context.Context, c *Context) error {
		got, _ = Lookup[float64](c, "speed")
		c.Provide("speed", 3.0)
		return nil
	})))
	require.NoError(t, rt.Run(ctx))

	assert.Equal(t, 2.5, got)
	v, ok := rt.Get("speed")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = Lookup[string](rt.Context(), "speed")
	assert.False(t, ok)
	assert.Equal(t, []string{"speed"}, rt.Context().Keys())
}

func TestRunNotReentrant(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	started := make(chan struct{})
	rt, err := NewRuntime(
		WithLogger(logging.NewNopLogger()),
		WithFrameHost(frame.HostFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
		WithModules(NewModule("signal", OnInit(func(ctx context.Context, c *Context) error {
			close(started)
			return nil
		}))),
	)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()
	<-started

	assert.ErrorIs(t, rt.Run(ctx), ErrAlreadyRunning)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestResizeEventUpdatesSurfaceAndCamera(t *testing.T) {
	rt, ctx := newTestRuntime(t, 1)
	rt.Register(NewModule("window", OnEventListener(func(ctx context.Context, c *Context) error {
		c.Events().Emit(events.EventWindowResize, events.Resize{Width: 300, Height: 100})
		return nil
	})))
	require.NoError(t, rt.Run(ctx))

	w, h := rt.Context().Surface.Size()
	assert.Equal(t, 300, w)
	assert.Equal(t, 100, h)
	assert.Equal(t, 3.0, rt.Context().Camera.Aspect())
	assert.Equal(t, 1, rt.Context().Camera.(*headless.Camera).Projections())
	assert.Equal(t, 0, rt.Events().Count(events.EventWindowResize))
}

func TestDeltaAndFrameCounter(t *testing.T) {
	now := time.Unix(0, 0)
	eng := headless.New()
	eng.Now = func() time.Time {
		now = now.Add(16 * time.Millisecond)
		return now
	}

	var frames []uint64
	var deltas []float64
	rt, ctx := newTestRuntime(t, 3, WithEngine(eng))
	rt.Register(NewModule("clock", OnAnimate(func(c *Context) error {
		frames = append(frames, c.Frame())
		deltas = append(deltas, c.Delta())
		return nil
	})))
	require.NoError(t, rt.Run(ctx))

	assert.Equal(t, []uint64{1, 2, 3}, frames)
	for _, d := range deltas {
		assert.InDelta(t, 0.016, d, 1e-9)
	}
}

func TestServiceFailureStopsRun(t *testing.T) {
	boom := errors.New("listen tcp: address in use")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := false
	rt, err := NewRuntime(
		WithLogger(logging.NewNopLogger()),
		WithFrameHost(frame.HostFunc(func(ctx context.Context) error {
			time.Sleep(time.Millisecond)
			return ctx.Err()
		})),
		WithModules(NewModule("inspector", OnInit(func(ctx context.Context, c *Context) error {
			c.AddService(hosting.NewService("inspector",
				func(ctx context.Context) error { return boom },
				func(ctx context.Context) error { stopped = true; return nil }))
			return nil
		}))),
	)
	require.NoError(t, err)

	err = rt.Run(ctx)
	var svcErr *hosting.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.ErrorIs(t, err, boom)
	assert.True(t, stopped)
}

func TestPhaseStrings(t *testing.T) {
	for p, want := range map[Phase]string{
		PhaseLoad:          "onLoad",
		PhaseInit:          "onInit",
		PhaseEventListener: "onEventListener",
		PhaseAnimate:       "onAnimate",
		PhaseRender:        "render",
		PhaseAfterAnimate:  "onAfterAnimate",
	} {
		assert.Equal(t, want, p.String(), fmt.Sprint(int(p)))
	}
}
