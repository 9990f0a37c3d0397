// Package cron 以后台服务的形式运行定时任务。
package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gocrud/program/logging"
)

// Option 调度器选项
type Option func(*options)

type options struct {
	location         *time.Location
	enableSeconds    bool
	enableCronLogger bool
}

// WithSeconds 启用秒级精度（6 段表达式）
func WithSeconds() Option {
	return func(o *options) { o.enableSeconds = true }
}

// WithLocation 设置时区，默认 UTC
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// EnableCronLogger 启用 cron 库的内部调度日志
func EnableCronLogger() Option {
	return func(o *options) { o.enableCronLogger = true }
}

// Scheduler 定时任务调度器，实现 hosting.Service
type Scheduler struct {
	name   string
	cron   *cron.Cron
	logger logging.Logger
	mu     sync.RWMutex
	jobs   map[string]cron.EntryID
}

// NewScheduler 创建调度器
func NewScheduler(name string, logger logging.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	o := &options{location: time.UTC}
	for _, opt := range opts {
		opt(o)
	}

	cronOpts := []cron.Option{
		cron.WithLocation(o.location),
		cron.WithChain(cron.Recover(newCronLogger(logger))),
	}
	if o.enableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}
	if o.enableSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	return &Scheduler{
		name:   name,
		cron:   cron.New(cronOpts...),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Name 实现 hosting.Service
func (s *Scheduler) Name() string { return s.name }

// AddJob 添加定时任务，同名任务会先被移除
//
// spec 例如 "@every 10s"、"*/5 * * * *"。
func (s *Scheduler) AddJob(spec, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.jobs[name]; exists {
		s.cron.Remove(id)
	}
	id, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug(fmt.Sprintf("Cron job '%s' started", name))
		job()
	})
	if err != nil {
		return fmt.Errorf("cron: failed to add job '%s': %w", name, err)
	}
	s.jobs[name] = id
	s.logger.Debug(fmt.Sprintf("Cron job '%s' registered with spec '%s'", name, spec))
	return nil
}

// RemoveJob 移除定时任务
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, exists := s.jobs[name]; exists {
		s.cron.Remove(id)
		delete(s.jobs, name)
	}
}

// Jobs 返回已注册任务数
func (s *Scheduler) Jobs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Next 返回任务下一次运行时间
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.RLock()
	id, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Start 启动调度并阻塞直到 ctx 取消
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info(fmt.Sprintf("Scheduler '%s' starting with %d jobs", s.name, s.Jobs()))
	s.cron.Start()
	<-ctx.Done()
	return ctx.Err()
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger 将 logging.Logger 适配为 cron.Logger
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Err(err))
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.F(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
	}
	return fields
}
