// Package loader 并发获取一批命名资源。
//
// 每个资源带有关键性标记：非关键资源失败只会记录日志并缺席结果表，
// 关键资源失败会使整批加载失败，但不会取消其他正在进行的获取。
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gocrud/program/logging"
)

// Loader 资源加载器
//
// 状态流转：idle -> loading -> complete | error。
// 加载中再次调用 Load 返回 ErrAlreadyLoading；complete 状态下 Load 为空操作。
type Loader struct {
	name      string
	registry  *Registry
	logger    logging.Logger
	observers []Observer

	mu        sync.RWMutex
	status    Status
	pending   []Resource
	index     map[string]int
	resources map[string]any
	progress  map[string]Progress
}

// Option 加载器选项
type Option func(*Loader)

// WithLogger 设置日志记录器
func WithLogger(logger logging.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithName 设置加载器名称（用于日志与观察者）
func WithName(name string) Option {
	return func(l *Loader) {
		l.name = name
	}
}

// WithObserver 添加批次观察者
func WithObserver(observer Observer) Option {
	return func(l *Loader) {
		if observer != nil {
			l.observers = append(l.observers, observer)
		}
	}
}

// New 创建加载器
func New(registry *Registry, opts ...Option) *Loader {
	if registry == nil {
		registry = NewRegistry()
	}
	l := &Loader{
		name:      "default",
		registry:  registry,
		logger:    logging.NewNopLogger(),
		status:    StatusIdle,
		index:     make(map[string]int),
		resources: make(map[string]any),
		progress:  make(map[string]Progress),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.WithFields(logging.F("loader", l.name))
	return l
}

// Name 返回加载器名称
func (l *Loader) Name() string { return l.name }

// Queue 将资源加入待加载队列
//
// 同名资源已在队列中时记录警告，并用后入队的描述替换之前的描述。
func (l *Loader) Queue(resources ...Resource) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range resources {
		if i, exists := l.index[r.Name]; exists {
			l.logger.Warn("Resource already queued, replacing",
				logging.F("name", r.Name),
				logging.F("previous", l.pending[i].URL),
				logging.F("url", r.URL))
			l.pending[i] = r
			continue
		}
		l.index[r.Name] = len(l.pending)
		l.pending = append(l.pending, r)
	}
}

// Pending 返回尚未加载的资源描述副本
func (l *Loader) Pending() []Resource {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Resource(nil), l.pending...)
}

// Get 按名称获取已加载资源，不存在时返回 false，不会阻塞
func (l *Loader) Get(name string) (any, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.resources[name]
	return v, ok
}

// Names 返回已加载资源名称
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.resources))
	for name := range l.resources {
		names = append(names, name)
	}
	return names
}

// Status 返回当前状态
func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// Progress 汇总当前批次所有传输的字节进度
func (l *Loader) Progress() Progress {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total Progress
	for _, p := range l.progress {
		total.Loaded += p.Loaded
		total.Total += p.Total
	}
	return total
}

// Load 并发获取所有已入队资源，等待全部结束后返回
//
// 非关键资源失败不会返回错误；任一关键资源失败时返回 *CriticalLoadError，
// 其中列出所有失败的关键资源。无论结果如何，待加载队列都会被清空。
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	switch l.status {
	case StatusLoading:
		l.mu.Unlock()
		return ErrAlreadyLoading
	case StatusComplete:
		l.mu.Unlock()
		l.logger.Warn("Resources already loaded, ignoring load call")
		return nil
	}

	batch := l.pending
	l.pending = nil
	l.index = make(map[string]int)

	if len(batch) == 0 {
		l.status = StatusComplete
		l.mu.Unlock()
		l.logger.Warn("No resources to load")
		return nil
	}

	l.status = StatusLoading
	l.progress = make(map[string]Progress, len(batch))
	l.mu.Unlock()

	started := time.Now()
	l.logger.Debug("Loading resources", logging.F("count", len(batch)))

	outcomes := make([]Outcome, len(batch))

	// 每个任务都返回 nil：一个资源失败不能取消其他资源
	var g errgroup.Group
	for i, r := range batch {
		g.Go(func() error {
			outcomes[i] = l.acquire(ctx, r)
			return nil
		})
	}
	_ = g.Wait()

	var critical *CriticalLoadError
	succeeded, failed := 0, 0
	for _, o := range outcomes {
		if o.Err == nil {
			succeeded++
			continue
		}
		failed++
		if o.Resource.RejectOnFailure {
			if critical == nil {
				critical = &CriticalLoadError{}
			}
			critical.Names = append(critical.Names, o.Resource.Name)
			critical.Errs = append(critical.Errs, o.Err)
		}
	}

	var err error
	l.mu.Lock()
	if critical != nil {
		l.status = StatusError
		err = critical
	} else {
		l.status = StatusComplete
	}
	l.mu.Unlock()

	if critical != nil {
		l.logger.Error("Error loading resources", logging.Err(err))
	} else {
		l.logger.Info("Resources loaded",
			logging.F("successful", succeeded),
			logging.F("failed", failed),
			logging.F("elapsed", time.Since(started).String()))
	}

	result := Batch{Loader: l.name, Started: started, Outcomes: outcomes, Err: err}
	for _, o := range l.observers {
		o.Observe(ctx, result)
	}

	return err
}

// acquire 获取单个资源并记录结果
func (l *Loader) acquire(ctx context.Context, r Resource) Outcome {
	start := time.Now()
	outcome := Outcome{Resource: r}

	strategy, err := l.registry.Strategy(r.Type)
	if err != nil {
		outcome.Err = &AcquireError{Name: r.Name, URL: r.URL, Err: err}
		l.logFailure(r, err)
		return outcome
	}

	value, err := strategy.Acquire(ctx, r.URL, func(loaded, total int64) {
		l.mu.Lock()
		l.progress[r.Name] = Progress{Loaded: loaded, Total: total}
		l.mu.Unlock()
	})
	outcome.Duration = time.Since(start)

	l.mu.Lock()
	outcome.Bytes = l.progress[r.Name].Loaded
	if err == nil {
		l.resources[r.Name] = value
	}
	l.mu.Unlock()

	if err != nil {
		outcome.Err = &AcquireError{Name: r.Name, URL: r.URL, Err: err}
		l.logFailure(r, err)
		return outcome
	}

	l.logger.Debug(fmt.Sprintf("Resource loaded: %s", r.Name),
		logging.F("type", string(r.Type)),
		logging.F("duration", outcome.Duration.String()))
	return outcome
}

func (l *Loader) logFailure(r Resource, err error) {
	fields := []logging.Field{
		logging.F("name", r.Name),
		logging.F("type", string(r.Type)),
		logging.F("critical", r.RejectOnFailure),
		logging.Err(err),
	}
	if r.RejectOnFailure {
		l.logger.Error("Failed to load resource", fields...)
		return
	}
	l.logger.Warn("Failed to load optional resource, skipping", fields...)
}

// Lookup 按名称获取资源并断言为 T
func Lookup[T any](l *Loader, name string) (T, bool) {
	var zero T
	v, ok := l.Get(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
