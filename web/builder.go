// Package web 基于 gin 的 HTTP 主机，作为后台服务与帧循环并行运行。
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/gocrud/program/logging"
)

// Controller 挂载一组路由
type Controller interface {
	MountRoutes(router gin.IRouter)
}

// Builder Web 主机构建器
type Builder struct {
	name        string
	logger      logging.Logger
	addr        string
	engine      *gin.Engine
	controllers []Controller
}

// NewBuilder 创建 Web 构建器
func NewBuilder(name string) *Builder {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Builder{
		name:   name,
		logger: logging.NewNopLogger(),
		addr:   ":8080",
		engine: engine,
	}
}

// UseLogger 设置日志记录器，并记录每个请求
func (b *Builder) UseLogger(logger logging.Logger) *Builder {
	if logger == nil {
		return b
	}
	b.logger = logger
	b.engine.Use(requestLogger(logger))
	return b
}

// UseAddr 设置监听地址，例如 ":9090" 或 "127.0.0.1:0"
func (b *Builder) UseAddr(addr string) *Builder {
	b.addr = addr
	return b
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.GET(path, handlers...)
	return b
}

// Group 创建路由组
func (b *Builder) Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return b.engine.Group(relativePath, handlers...)
}

// AddControllers 添加控制器，路由在 Build 时挂载
func (b *Builder) AddControllers(controllers ...Controller) *Builder {
	b.controllers = append(b.controllers, controllers...)
	return b
}

// Engine 获取 gin 引擎
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}

// Build 挂载控制器并创建主机
func (b *Builder) Build() *Host {
	for _, c := range b.controllers {
		c.MountRoutes(b.engine)
	}
	return &Host{
		name:   b.name,
		engine: b.engine,
		logger: b.logger,
		server: &http.Server{Addr: b.addr, Handler: b.engine},
	}
}

// Host Web 主机，实现 hosting.Service
type Host struct {
	name   string
	engine *gin.Engine
	server *http.Server
	logger logging.Logger

	mu      sync.RWMutex
	address string
}

// Name 实现 hosting.Service
func (h *Host) Name() string { return h.name }

// Handler 返回 HTTP 处理器（用于 httptest）
func (h *Host) Handler() http.Handler { return h.engine }

// Address 实际监听地址，仅在 Start 后有效
func (h *Host) Address() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.address
}

// Start 监听并阻塞服务，直到 Stop 被调用或 ctx 取消
func (h *Host) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", h.server.Addr, err)
	}
	h.mu.Lock()
	h.address = ln.Addr().String()
	h.mu.Unlock()

	h.logger.Info("Web host started", logging.F("name", h.name), logging.F("address", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		_ = h.server.Close()
	}()

	if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭
func (h *Host) Stop(ctx context.Context) error {
	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("Failed to shutdown web host gracefully", logging.Err(err))
		return err
	}
	h.logger.Info("Web host stopped", logging.F("name", h.name))
	return nil
}

// requestLogger 记录请求日志的中间件
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("HTTP request",
			logging.F("method", c.Request.Method),
			logging.F("path", c.Request.URL.Path),
			logging.F("status", c.Writer.Status()))
	}
}
