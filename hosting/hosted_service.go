// Package hosting 管理与帧循环并行运行的后台服务（调试 HTTP 服务、定时任务等）。
package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gocrud/program/logging"
)

// Service 后台服务
//
// Start 阻塞运行直到 ctx 取消或出错，由管理器在独立 goroutine 中调用。
// Stop 执行额外的清理，ctx 携带关闭超时。
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServiceError 后台服务异常退出
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("hosting: service '%s' failed: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Manager 后台服务管理器
type Manager struct {
	services []Service
	logger   logging.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
	started  bool
}

// NewManager 创建管理器
func NewManager(logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Manager{logger: logger}
}

// Add 添加服务，StartAll 之后添加的服务不会被启动
func (m *Manager) Add(service Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		m.logger.Warn("Service added after start, ignoring", logging.F("service", service.Name()))
		return
	}
	m.services = append(m.services, service)
}

// Len 返回服务数量
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.services)
}

// Names 返回服务名称（注册顺序）
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.services))
	for i, s := range m.services {
		names[i] = s.Name()
	}
	return names
}

// StartAll 并发启动所有服务
//
// 返回的通道接收非取消类的启动错误（*ServiceError），缓冲区大小等于服务数量。
func (m *Manager) StartAll(ctx context.Context) <-chan error {
	m.mu.Lock()
	m.started = true
	services := append([]Service(nil), m.services...)
	m.mu.Unlock()

	errCh := make(chan error, len(services))
	if len(services) == 0 {
		return errCh
	}
	m.logger.Info(fmt.Sprintf("Starting %d background services", len(services)))

	for _, svc := range services {
		m.wg.Add(1)
		go func(svc Service) {
			defer m.wg.Done()
			err := svc.Start(ctx)
			switch {
			case err == nil:
				m.logger.Debug("Service completed", logging.F("service", svc.Name()))
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				m.logger.Debug("Service stopped (context done)", logging.F("service", svc.Name()))
			default:
				m.logger.Error("Service error", logging.F("service", svc.Name()), logging.Err(err))
				errCh <- &ServiceError{Service: svc.Name(), Err: err}
			}
		}(svc)
	}
	return errCh
}

// StopAll 按注册的逆序依次停止服务，并等待所有 Start 返回
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	services := append([]Service(nil), m.services...)
	m.mu.RUnlock()

	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]
		if err := svc.Stop(ctx); err != nil {
			m.logger.Error("Failed to stop service", logging.F("service", svc.Name()), logging.Err(err))
			errs = append(errs, fmt.Errorf("stop %s: %w", svc.Name(), err))
			continue
		}
		m.logger.Debug("Service stopped", logging.F("service", svc.Name()))
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("hosting: waiting for services: %w", ctx.Err()))
	}
	return errors.Join(errs...)
}

// funcService 由函数构成的服务
type funcService struct {
	name string
	run  func(ctx context.Context) error
	stop func(ctx context.Context) error
}

// NewService 用运行函数与可选的停止函数创建服务
func NewService(name string, run func(ctx context.Context) error, stop func(ctx context.Context) error) Service {
	return &funcService{name: name, run: run, stop: stop}
}

func (s *funcService) Name() string { return s.name }

func (s *funcService) Start(ctx context.Context) error { return s.run(ctx) }

func (s *funcService) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	return s.stop(ctx)
}
