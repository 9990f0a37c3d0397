package plugins

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/gocrud/program/core"
	"github.com/gocrud/program/loader"
	"github.com/gocrud/program/web"
)

// FrameStatus 帧循环状态
type FrameStatus struct {
	Frame      uint64   `json:"frame"`
	Delta      float64  `json:"delta"`
	Elapsed    float64  `json:"elapsed"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	PixelRatio float64  `json:"pixelRatio"`
	Aspect     float64  `json:"aspect"`
	Keys       []string `json:"keys"`
	Objects    []string `json:"objects"`
}

// ResourceStatus 加载器状态
type ResourceStatus struct {
	Status   loader.Status   `json:"status"`
	Progress loader.Progress `json:"progress"`
	Ratio    float64         `json:"ratio"`
	Loaded   []string        `json:"loaded"`
}

// Inspector 只读调试 HTTP 服务
//
// 帧循环在 OnAfterAnimate 中更新快照，HTTP 处理函数只读快照，不直接访问 Context。
type Inspector struct {
	host *web.Host

	mu     sync.RWMutex
	status FrameStatus
	stats  *Stats
	loader *loader.Loader
}

// NewInspector 创建调试服务，addr 例如 "127.0.0.1:9090"
func NewInspector(addr string) *Inspector {
	i := &Inspector{}
	i.host = web.NewBuilder("inspector").
		UseAddr(addr).
		AddControllers(i).
		Build()
	return i
}

// Handler 返回 HTTP 处理器
func (i *Inspector) Handler() http.Handler { return i.host.Handler() }

// Address 实际监听地址
func (i *Inspector) Address() string { return i.host.Address() }

// MountRoutes 实现 web.Controller
func (i *Inspector) MountRoutes(r gin.IRouter) {
	r.GET("/status", i.getStatus)
	r.GET("/context", i.getContext)
	r.GET("/stats", i.getStats)
	r.GET("/resources", i.getResources)
}

func (i *Inspector) getStatus(c *gin.Context) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	c.JSON(http.StatusOK, i.status)
}

func (i *Inspector) getContext(c *gin.Context) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"keys": i.status.Keys, "objects": i.status.Objects})
}

func (i *Inspector) getStats(c *gin.Context) {
	i.mu.RLock()
	stats := i.stats
	i.mu.RUnlock()
	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "stats plugin not registered"})
		return
	}
	c.JSON(http.StatusOK, stats.Snapshot())
}

func (i *Inspector) getResources(c *gin.Context) {
	i.mu.RLock()
	l := i.loader
	i.mu.RUnlock()
	if l == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no resource loader"})
		return
	}
	names := l.Names()
	sort.Strings(names)
	p := l.Progress()
	c.JSON(http.StatusOK, ResourceStatus{Status: l.Status(), Progress: p, Ratio: p.Ratio(), Loaded: names})
}

// update 在帧循环 goroutine 上复制上下文状态
func (i *Inspector) update(c *core.Context) {
	w, h := c.Surface.Size()
	objects := c.Scene.Objects()
	names := make([]string, len(objects))
	for n, o := range objects {
		names[n] = o.Name()
	}
	status := FrameStatus{
		Frame:      c.Frame(),
		Delta:      c.Delta(),
		Elapsed:    c.Clock.Elapsed(),
		Width:      w,
		Height:     h,
		PixelRatio: c.Surface.PixelRatio(),
		Aspect:     c.Camera.Aspect(),
		Keys:       c.Keys(),
		Objects:    names,
	}
	stats, _ := core.Lookup[*Stats](c, StatsKey)
	l, _ := core.Lookup[*loader.Loader](c, LoaderKey)

	i.mu.Lock()
	i.status = status
	i.stats = stats
	i.loader = l
	i.mu.Unlock()
}

// Module 返回调试服务模块
func (i *Inspector) Module() core.Module {
	return core.NewModule("InspectorPlugin",
		core.OnInit(func(ctx context.Context, c *core.Context) error {
			i.update(c)
			c.AddService(i.host)
			return nil
		}),
		core.OnAfterAnimate(func(c *core.Context) error {
			i.update(c)
			return nil
		}),
	)
}
