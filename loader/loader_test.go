package loader

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/program/engine"
	"github.com/gocrud/program/logging"
)

// staticStrategy 按 URL 返回预设结果
func staticStrategy(values map[string]any, failures map[string]error) engine.Strategy {
	return engine.StrategyFunc(func(ctx context.Context, url string, progress engine.ProgressFunc) (any, error) {
		if err, ok := failures[url]; ok {
			return nil, err
		}
		progress(int64(len(url)), int64(len(url)))
		return values[url], nil
	})
}

func newTestLoader(t *testing.T, strategy engine.Strategy, opts ...Option) (*Loader, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	reg := NewRegistry()
	reg.MustRegister(TypeJSON, strategy)
	opts = append([]Option{WithLogger(logging.NewWriterLogger(&buf, "ResourceLoader"))}, opts...)
	return New(reg, opts...), &buf
}

func TestLoadAllSucceed(t *testing.T) {
	l, _ := newTestLoader(t, staticStrategy(map[string]any{"a.json": 1, "b.json": 2}, nil))
	l.Queue(
		Resource{Name: "a", Type: TypeJSON, URL: "a.json", RejectOnFailure: true},
		Resource{Name: "b", Type: TypeJSON, URL: "b.json"},
	)

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, StatusComplete, l.Status())

	a, ok := Lookup[int](l, "a")
	require.True(t, ok)
	assert.Equal(t, 1, a)
	b, ok := l.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, b)
	assert.Empty(t, l.Pending())
	assert.Equal(t, int64(12), l.Progress().Loaded)
}

func TestCriticalFailureRejectsBatch(t *testing.T) {
	boom := errors.New("404")
	l, _ := newTestLoader(t, staticStrategy(
		map[string]any{"a.json": "A", "c.json": "C"},
		map[string]error{"b.json": boom},
	))
	l.Queue(
		Resource{Name: "a", Type: TypeJSON, URL: "a.json", RejectOnFailure: true},
		Resource{Name: "b", Type: TypeJSON, URL: "b.json", RejectOnFailure: true},
		Resource{Name: "c", Type: TypeJSON, URL: "c.json"},
	)

	err := l.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var critical *CriticalLoadError
	require.ErrorAs(t, err, &critical)
	assert.Equal(t, []string{"b"}, critical.Names)
	assert.Equal(t, StatusError, l.Status())

	// 其余资源仍然完成获取
	_, ok := l.Get("a")
	assert.True(t, ok)
	_, ok = l.Get("c")
	assert.True(t, ok)
	_, ok = l.Get("b")
	assert.False(t, ok)
}

func TestCriticalFailureDrainsQueue(t *testing.T) {
	l, _ := newTestLoader(t, staticStrategy(nil, map[string]error{"b.json": errors.New("404")}))
	l.Queue(
		Resource{Name: "a", Type: TypeJSON, URL: "a.json"},
		Resource{Name: "b", Type: TypeJSON, URL: "b.json", RejectOnFailure: true},
	)

	require.Error(t, l.Load(context.Background()))
	assert.Empty(t, l.Pending())
	assert.Equal(t, StatusError, l.Status())
}

func TestRetryAfterCriticalFailure(t *testing.T) {
	var mu sync.Mutex
	healthy := false
	l, _ := newTestLoader(t, engine.StrategyFunc(func(ctx context.Context, url string, progress engine.ProgressFunc) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		if !healthy {
			return nil, errors.New("503")
		}
		return url, nil
	}))
	cfg := Resource{Name: "cfg", Type: TypeJSON, URL: "cfg.json", RejectOnFailure: true}

	l.Queue(cfg)
	require.Error(t, l.Load(context.Background()))
	require.Equal(t, StatusError, l.Status())

	mu.Lock()
	healthy = true
	mu.Unlock()

	l.Queue(cfg)
	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, StatusComplete, l.Status())
	v, ok := l.Get("cfg")
	require.True(t, ok)
	assert.Equal(t, "cfg.json", v)
}

func TestLoadAcquiresConcurrently(t *testing.T) {
	const n = 8
	var entered sync.WaitGroup
	entered.Add(n)
	all := make(chan struct{})
	go func() {
		entered.Wait()
		close(all)
	}()

	// 每个获取都要等到 n 个获取同时在途才返回
	l, _ := newTestLoader(t, engine.StrategyFunc(func(ctx context.Context, url string, progress engine.ProgressFunc) (any, error) {
		entered.Done()
		select {
		case <-all:
			return url, nil
		case <-time.After(2 * time.Second):
			return nil, errors.New("acquisitions ran sequentially")
		}
	}))
	for i := 0; i < n; i++ {
		name := string(rune('a' + i))
		l.Queue(Resource{Name: name, Type: TypeJSON, URL: name + ".json", RejectOnFailure: true})
	}

	require.NoError(t, l.Load(context.Background()))
	assert.Len(t, l.Names(), n)
}

func TestNonCriticalFailureCompletes(t *testing.T) {
	l, buf := newTestLoader(t, staticStrategy(
		map[string]any{"a.json": "A"},
		map[string]error{"b.json": errors.New("timeout")},
	))
	l.Queue(
		Resource{Name: "a", Type: TypeJSON, URL: "a.json", RejectOnFailure: true},
		Resource{Name: "b", Type: TypeJSON, URL: "b.json"},
	)

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, StatusComplete, l.Status())
	_, ok := l.Get("b")
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "Failed to load optional resource")
}

func TestQueueDuplicateNameLastWins(t *testing.T) {
	l, buf := newTestLoader(t, staticStrategy(map[string]any{"v1.json": "one", "v2.json": "two"}, nil))
	l.Queue(
		Resource{Name: "cfg", Type: TypeJSON, URL: "v1.json"},
		Resource{Name: "other", Type: TypeJSON, URL: "v1.json"},
	)
	l.Queue(Resource{Name: "cfg", Type: TypeJSON, URL: "v2.json"})

	pending := l.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "cfg", pending[0].Name)
	assert.Equal(t, "v2.json", pending[0].URL)
	assert.Contains(t, buf.String(), "Resource already queued")

	require.NoError(t, l.Load(context.Background()))
	v, _ := l.Get("cfg")
	assert.Equal(t, "two", v)
}

func TestLoadEmptyQueue(t *testing.T) {
	l, buf := newTestLoader(t, staticStrategy(nil, nil))

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, StatusComplete, l.Status())
	assert.Contains(t, buf.String(), "No resources to load")
}

func TestLoadAfterCompleteIsNoop(t *testing.T) {
	calls := 0
	l, _ := newTestLoader(t, engine.StrategyFunc(func(ctx context.Context, url string, progress engine.ProgressFunc) (any, error) {
		calls++
		return url, nil
	}))
	l.Queue(Resource{Name: "a", Type: TypeJSON, URL: "a.json"})
	require.NoError(t, l.Load(context.Background()))

	l.Queue(Resource{Name: "b", Type: TypeJSON, URL: "b.json"})
	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, 1, calls)
	assert.Equal(t, StatusComplete, l.Status())
}

func TestLoadWhileLoading(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	l, _ := newTestLoader(t, engine.StrategyFunc(func(ctx context.Context, url string, progress engine.ProgressFunc) (any, error) {
		once.Do(func() { close(started) })
		<-release
		return url, nil
	}))
	l.Queue(Resource{Name: "slow", Type: TypeJSON, URL: "slow.json"})

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background()) }()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("strategy never started")
	}
	assert.Equal(t, StatusLoading, l.Status())
	assert.ErrorIs(t, l.Load(context.Background()), ErrAlreadyLoading)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StatusComplete, l.Status())
}

func TestUnknownTypeIsAcquisitionFailure(t *testing.T) {
	l, _ := newTestLoader(t, staticStrategy(map[string]any{"a.json": 1}, nil))
	l.Queue(
		Resource{Name: "a", Type: TypeJSON, URL: "a.json"},
		Resource{Name: "mesh", Type: Type("fbx"), URL: "mesh.fbx"},
	)
	require.NoError(t, l.Load(context.Background()))

	l2, _ := newTestLoader(t, staticStrategy(nil, nil))
	l2.Queue(Resource{Name: "mesh", Type: Type("fbx"), URL: "mesh.fbx", RejectOnFailure: true})
	err := l2.Load(context.Background())

	var unknown *UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, Type("fbx"), unknown.Type)
}

func TestObserverReceivesBatch(t *testing.T) {
	var got Batch
	l, _ := newTestLoader(t,
		staticStrategy(map[string]any{"a.json": 1}, map[string]error{"b.json": errors.New("gone")}),
		WithName("assets"),
		WithObserver(ObserverFunc(func(ctx context.Context, b Batch) { got = b })),
	)
	l.Queue(
		Resource{Name: "a", Type: TypeJSON, URL: "a.json"},
		Resource{Name: "b", Type: TypeJSON, URL: "b.json"},
	)
	require.NoError(t, l.Load(context.Background()))

	assert.Equal(t, "assets", got.Loader)
	require.Len(t, got.Outcomes, 2)
	assert.NoError(t, got.Outcomes[0].Err)
	assert.Error(t, got.Outcomes[1].Err)
	assert.NoError(t, got.Err)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	s := staticStrategy(nil, nil)
	require.NoError(t, reg.Register(TypeYAML, s))
	require.NoError(t, reg.Register(TypeBlob, s))
	assert.Error(t, reg.Register(TypeYAML, s))
	assert.Error(t, reg.Register("", s))
	assert.Equal(t, []Type{TypeBlob, TypeYAML}, reg.Types())

	_, err := reg.Strategy(TypeGLTF)
	var unknown *UnknownTypeError
	assert.ErrorAs(t, err, &unknown)
}

func TestProgressRatio(t *testing.T) {
	assert.Equal(t, 0.0, Progress{Loaded: 5}.Ratio())
	assert.Equal(t, 0.5, Progress{Loaded: 5, Total: 10}.Ratio())
	assert.Equal(t, 1.0, Progress{Loaded: 20, Total: 10}.Ratio())
}
