package plugins

import (
	"context"

	"github.com/gocrud/program/core"
	"github.com/gocrud/program/events"
	"github.com/gocrud/program/logging"
)

// Events 将宿主输入队列中的窗口尺寸变化、按键等事件转发到运行时事件总线
//
// 事件在每帧开始时投递，处理函数与其他帧钩子在同一个 goroutine 上执行。
func Events(queue *events.Queue) core.Module {
	return core.NewModule("EventsManager",
		core.OnEventListener(func(ctx context.Context, c *core.Context) error {
			c.Logger().Debug("Forwarding host events",
				logging.F("resizeHandlers", c.Events().Count(events.EventWindowResize)),
				logging.F("keyHandlers", c.Events().Count(events.EventKeyDown)))
			return nil
		}),
		core.OnAnimate(func(c *core.Context) error {
			queue.Drain(c.Events())
			return nil
		}),
	)
}
