package loader

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gocrud/program/engine"
)

// Registry 资源类型到获取策略的映射
type Registry struct {
	mu         sync.RWMutex
	strategies map[Type]engine.Strategy
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[Type]engine.Strategy)}
}

// Register 注册策略，类型重复或策略为空时返回错误
func (r *Registry) Register(typ Type, strategy engine.Strategy) error {
	if typ == "" {
		return fmt.Errorf("loader: strategy type is required")
	}
	if strategy == nil {
		return fmt.Errorf("loader: strategy is required for %s", typ)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[typ]; exists {
		return fmt.Errorf("loader: strategy %s already registered", typ)
	}
	r.strategies[typ] = strategy
	return nil
}

// MustRegister 注册失败时 panic
func (r *Registry) MustRegister(typ Type, strategy engine.Strategy) {
	if err := r.Register(typ, strategy); err != nil {
		panic(err)
	}
}

// Strategy 返回类型对应的策略；未注册时返回 *UnknownTypeError
func (r *Registry) Strategy(typ Type) (engine.Strategy, error) {
	r.mu.RLock()
	s, ok := r.strategies[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTypeError{Type: typ}
	}
	return s, nil
}

// Types 返回已注册类型（排序）
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]Type, 0, len(r.strategies))
	for t := range r.strategies {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
