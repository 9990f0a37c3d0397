package logging

import (
	"bytes"
	"sync"
)

// bufferPool 字节缓冲池，格式化时复用 buffer
type bufferPool struct {
	pool sync.Pool
}

func newBufferPool() *bufferPool {
	return &bufferPool{
		pool: sync.Pool{
			New: func() any {
				return new(bytes.Buffer)
			},
		},
	}
}

// Get 获取一个 buffer
func (p *bufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

// Put 归还一个 buffer
func (p *bufferPool) Put(b *bytes.Buffer) {
	b.Reset()
	p.pool.Put(b)
}

var buffers = newBufferPool()
