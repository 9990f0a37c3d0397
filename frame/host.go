// Package frame 提供帧循环的宿主节拍。
package frame

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Host 宿主的帧节拍原语
//
// Next 阻塞直到下一帧可以开始；ctx 取消时返回 ctx.Err()。
type Host interface {
	Next(ctx context.Context) error
}

// HostFunc 将函数适配为 Host
type HostFunc func(ctx context.Context) error

// Next 实现 Host
func (f HostFunc) Next(ctx context.Context) error { return f(ctx) }

// DefaultFPS 默认帧率
const DefaultFPS = 60

// Ticker 以固定帧率放行的宿主，基于令牌桶限速
type Ticker struct {
	limiter *rate.Limiter
	fps     float64
}

// NewTicker 创建固定帧率宿主，fps <= 0 时使用 DefaultFPS
func NewTicker(fps float64) *Ticker {
	if fps <= 0 {
		fps = DefaultFPS
	}
	// burst 为 1：落后时不会连续补帧
	return &Ticker{
		limiter: rate.NewLimiter(rate.Limit(fps), 1),
		fps:     fps,
	}
}

// FPS 返回目标帧率
func (t *Ticker) FPS() float64 { return t.fps }

// Interval 返回帧间隔
func (t *Ticker) Interval() time.Duration {
	return time.Duration(float64(time.Second) / t.fps)
}

// Next 等待下一个令牌
func (t *Ticker) Next(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Immediate 不等待的宿主，只检查 ctx
func Immediate() Host {
	return HostFunc(func(ctx context.Context) error {
		return ctx.Err()
	})
}
