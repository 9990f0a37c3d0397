// Package events 提供运行时与模块之间的命名事件总线。
package events

import (
	"sync"
)

// 运行时发布的事件名称
const (
	// EventWindowResize 宿主窗口尺寸变化，载荷为 Resize
	EventWindowResize = "onWindowResize"
	// EventKeyDown 按键按下，载荷为 Key
	EventKeyDown = "onKeyDown"
)

// Resize 窗口尺寸
type Resize struct {
	Width  int
	Height int
}

// Key 按键事件
type Key struct {
	// Code 按键代码，如 "Space"、"KeyD"
	Code string
}

// Handler 事件处理函数，载荷对总线不透明
type Handler func(payload any)

// Unsubscribe 取消订阅，可重复调用
type Unsubscribe func()

type subscription struct {
	id      uint64
	handler Handler
}

// Bus 同步事件总线
//
// Emit 在调用方 goroutine 上按订阅顺序依次调用处理函数。
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   uint64
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]subscription)}
}

// On 订阅事件，返回取消订阅的句柄
func (b *Bus) On(name string, handler Handler) Unsubscribe {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.off(name, id) })
	}
}

func (b *Bus) off(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[name]
	for i, s := range subs {
		if s.id == id {
			// 复制而不是原地修改，正在进行的 Emit 持有旧切片
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.handlers, name)
			} else {
				b.handlers[name] = next
			}
			return
		}
	}
}

// Emit 发布事件
func (b *Bus) Emit(name string, payload any) {
	b.mu.RLock()
	subs := b.handlers[name]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(payload)
	}
}

// Count 返回某事件的订阅者数量
func (b *Bus) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

// Clear 移除所有订阅
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]subscription)
}
