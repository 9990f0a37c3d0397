package main

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/gocrud/program/core"
	"github.com/gocrud/program/engine"
	"github.com/gocrud/program/events"
	"github.com/gocrud/program/loader"
	"github.com/gocrud/program/loader/decode"
	"github.com/gocrud/program/logging"
	"github.com/gocrud/program/plugins"
	"github.com/gocrud/program/state"
)

// 每秒旋转的弧度
const spinSpeed = 0.5

var carModels = []string{"race", "truck", "van"}

// car 场景中的一辆车
type car struct {
	mu       sync.RWMutex
	name     string
	visible  bool
	rotation float64
	scale    float64
	model    *decode.Model
}

func (c *car) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *car) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

func (c *car) Visible() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visible
}

func (c *car) SetVisible(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = visible
}

// carKit 车辆展示：空格键循环切换可见车辆，当前车辆随时间旋转并缓慢缩放
type carKit struct {
	cars     []*car
	selected *state.Store[int]

	mu      sync.Mutex
	release []func()
}

func newCarKit() *carKit {
	return &carKit{selected: state.New(0)}
}

func (k *carKit) resources() []loader.Resource {
	res := make([]loader.Resource, len(carModels))
	for i, name := range carModels {
		res[i] = loader.Resource{
			Name: name,
			Type: loader.TypeGLTF,
			URL:  fmt.Sprintf("models/%s.glb", name),
		}
	}
	return res
}

func (k *carKit) Module() core.Module {
	return core.NewModule("CarKit",
		core.OnLoad(k.queue),
		core.OnInit(k.build),
		core.OnEventListener(k.listen),
		core.OnAnimate(k.animate),
	)
}

// queue 在加载模块之前排队车辆模型
func (k *carKit) queue(ctx context.Context, c *core.Context) error {
	l, ok := core.Lookup[*loader.Loader](c, plugins.LoaderKey)
	if !ok {
		return fmt.Errorf("resource loader not available")
	}
	l.Queue(k.resources()...)
	return nil
}

func (k *carKit) build(ctx context.Context, c *core.Context) error {
	l, ok := core.Lookup[*loader.Loader](c, plugins.LoaderKey)
	if !ok {
		return fmt.Errorf("resource loader not available")
	}
	for _, name := range carModels {
		model, ok := loader.Lookup[*decode.Model](l, name)
		if !ok {
			c.Logger().Warn("Car model missing, skipping", logging.F("car", name))
			continue
		}
		k.cars = append(k.cars, &car{name: name, scale: 1, model: model})
		c.Logger().Debug("Car model ready", logging.F("car", name), logging.F("nodes", len(model.Nodes)))
	}
	for _, cr := range k.cars {
		c.Scene.Add(cr)
	}
	k.hold(k.selected.Subscribe(k.show))
	k.show(k.selected.Get())
	return nil
}

func (k *carKit) listen(ctx context.Context, c *core.Context) error {
	off := c.Events().On(events.EventKeyDown, func(payload any) {
		key, ok := payload.(events.Key)
		if !ok || key.Code != "Space" || len(k.cars) == 0 {
			return
		}
		k.selected.Update(func(i *int) { *i = (*i + 1) % len(k.cars) })
		c.Logger().Info("Switched car", logging.F("car", k.cars[k.selected.Get()].Name()))
	})
	k.hold(off)
	return nil
}

func (k *carKit) animate(c *core.Context) error {
	cr := k.current()
	if cr == nil {
		return nil
	}
	elapsed := c.Clock.Elapsed()
	cr.mu.Lock()
	cr.rotation = math.Mod(cr.rotation+c.Delta()*spinSpeed, 2*math.Pi)
	cr.scale = engine.RangeTimedScale(math.Sin(elapsed), 0.95, 1.05)
	cr.mu.Unlock()
	return nil
}

func (k *carKit) hold(fn func()) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.release = append(k.release, fn)
}

// Close 取消状态订阅和事件监听，可重复调用
func (k *carKit) Close() {
	k.mu.Lock()
	release := k.release
	k.release = nil
	k.mu.Unlock()
	for i := len(release) - 1; i >= 0; i-- {
		release[i]()
	}
}

func (k *carKit) current() *car {
	if len(k.cars) == 0 {
		return nil
	}
	return k.cars[k.selected.Get()%len(k.cars)]
}

func (k *carKit) show(selected int) {
	for i, cr := range k.cars {
		cr.SetVisible(i == selected)
	}
}
