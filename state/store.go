// Package state 提供可观察的共享状态。
//
// Store 持有一个值，修改后同步通知所有订阅者；订阅返回取消函数，
// 由订阅者自己负责在生命周期结束时调用。
package state

import (
	"sync"
)

// Store 可观察状态容器
type Store[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   map[uint64]func(T)
	order  []uint64
	nextID uint64
}

// New 创建带初始值的 Store
func New[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, subs: make(map[uint64]func(T))}
}

// Get 返回当前值
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set 替换当前值并通知订阅者
func (s *Store[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()
	s.notify(value)
}

// Update 在锁内修改值，然后通知订阅者
func (s *Store[T]) Update(fn func(*T)) {
	s.mu.Lock()
	fn(&s.value)
	value := s.value
	s.mu.Unlock()
	s.notify(value)
}

// Subscribe 注册观察者，按注册顺序通知；返回的函数用于取消订阅
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Subscribers 返回当前订阅者数量
func (s *Store[T]) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Store[T]) notify(value T) {
	s.mu.RLock()
	fns := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(value)
	}
}
