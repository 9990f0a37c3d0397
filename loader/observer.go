package loader

import (
	"context"
	"time"
)

// Outcome 单个资源的加载结果
type Outcome struct {
	Resource Resource
	// Err 为 nil 表示成功
	Err      error
	Bytes    int64
	Duration time.Duration
}

// Batch 一次 Load 调用的全部结果
type Batch struct {
	Loader   string
	Started  time.Time
	Outcomes []Outcome
	// Err 整批结果：nil 或 *CriticalLoadError
	Err error
}

// Observer 在每批加载全部结束后收到结果
//
// Observe 在调用 Load 的 goroutine 上同步执行，位于 Load 返回之前。
type Observer interface {
	Observe(ctx context.Context, batch Batch)
}

// ObserverFunc 将函数适配为 Observer
type ObserverFunc func(ctx context.Context, batch Batch)

// Observe 实现 Observer
func (f ObserverFunc) Observe(ctx context.Context, batch Batch) { f(ctx, batch) }
