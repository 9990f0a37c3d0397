// Package source 按定位符的协议获取原始字节。
//
// 支持的定位符：
//
//	models/car.glb            相对于根目录的本地路径
//	file:///srv/assets/a.png  本地绝对路径
//	https://cdn.example/a.png HTTP(S)
//	s3://bucket/key           S3 兼容对象存储
//	redis://key               Redis 字符串键
//
// 以 .zst 或 .lz4 结尾的定位符在获取后透明解压。
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// DefaultMaxDecodedSize 解压后内容的默认上限
const DefaultMaxDecodedSize int64 = 256 << 20

// ErrDecodedTooLarge 解压后的内容超过上限
var ErrDecodedTooLarge = errors.New("source: decoded content exceeds limit")

// ProgressFunc 字节进度回调，total 未知时为 0
type ProgressFunc func(loaded, total int64)

// Fetcher 获取定位符对应的完整内容
type Fetcher interface {
	Fetch(ctx context.Context, locator string, progress ProgressFunc) ([]byte, error)
}

// FetcherFunc 将函数适配为 Fetcher
type FetcherFunc func(ctx context.Context, locator string, progress ProgressFunc) ([]byte, error)

// Fetch 实现 Fetcher
func (f FetcherFunc) Fetch(ctx context.Context, locator string, progress ProgressFunc) ([]byte, error) {
	return f(ctx, locator, progress)
}

// UnsupportedSchemeError 定位符协议没有注册获取器
type UnsupportedSchemeError struct {
	Scheme string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("source: unsupported scheme %q", e.Scheme)
}

// Mux 按协议分发的获取器
type Mux struct {
	mu         sync.RWMutex
	fetchers   map[string]Fetcher
	maxDecoded int64
}

// NewMux 创建分发器，本地路径与 file:// 由 root 下的 File 处理，http/https 由带默认超时的 HTTP 处理
func NewMux(root string) *Mux {
	m := &Mux{fetchers: make(map[string]Fetcher), maxDecoded: DefaultMaxDecodedSize}
	file := NewFile(root)
	web := NewHTTP(nil)
	m.Handle("", file)
	m.Handle("file", file)
	m.Handle("http", web)
	m.Handle("https", web)
	return m
}

// Handle 为协议注册获取器，已存在时覆盖
func (m *Mux) Handle(scheme string, f Fetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchers[strings.ToLower(scheme)] = f
}

// SetMaxDecodedSize 设置 .zst/.lz4 解压后的大小上限，n <= 0 时恢复默认值
func (m *Mux) SetMaxDecodedSize(n int64) {
	if n <= 0 {
		n = DefaultMaxDecodedSize
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxDecoded = n
}

// Fetch 实现 Fetcher
func (m *Mux) Fetch(ctx context.Context, locator string, progress ProgressFunc) ([]byte, error) {
	if progress == nil {
		progress = func(int64, int64) {}
	}
	scheme := Scheme(locator)

	m.mu.RLock()
	f, ok := m.fetchers[scheme]
	limit := m.maxDecoded
	m.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedSchemeError{Scheme: scheme}
	}

	data, err := f.Fetch(ctx, locator, progress)
	if err != nil {
		return nil, err
	}
	switch name := strings.ToLower(trimQuery(locator)); {
	case strings.HasSuffix(name, ".zst"):
		return decompress(data, limit)
	case strings.HasSuffix(name, ".lz4"):
		return decompressLZ4(data, limit)
	}
	return data, nil
}

// Scheme 返回定位符的协议（小写），本地路径返回空字符串
func Scheme(locator string) string {
	i := strings.Index(locator, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(locator[:i])
}

// splitHostPath 将 scheme://host/path 拆分为 host 与 path
func splitHostPath(locator string) (host, path string, err error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", fmt.Errorf("source: invalid locator %q: %w", locator, err)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func trimQuery(locator string) string {
	if i := strings.IndexAny(locator, "?#"); i >= 0 {
		return locator[:i]
	}
	return locator
}

var decoderPool sync.Pool

func getDecoder() (*zstd.Decoder, error) {
	if v := decoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	// 单协程解码，窗口内存不超过默认上限
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(DefaultMaxDecodedSize)))
}

func decompress(data []byte, limit int64) ([]byte, error) {
	dec, err := getDecoder()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = dec.Reset(nil)
		decoderPool.Put(dec)
	}()

	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("source: zstd decode: %w", err)
	}
	out, err := readLimited(dec, limit)
	if err != nil {
		return nil, fmt.Errorf("source: zstd decode: %w", err)
	}
	return out, nil
}

func decompressLZ4(data []byte, limit int64) ([]byte, error) {
	out, err := readLimited(lz4.NewReader(bytes.NewReader(data)), limit)
	if err != nil {
		return nil, fmt.Errorf("source: lz4 decode: %w", err)
	}
	return out, nil
}

// readLimited 最多读取 limit 字节，超出时返回 ErrDecodedTooLarge
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrDecodedTooLarge, limit)
	}
	return out, nil
}

// countingReader 读取时上报累计字节数
type countingReader struct {
	r        io.Reader
	total    int64
	read     int64
	progress ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.read += int64(n)
		c.progress(c.read, c.total)
	}
	return n, err
}

// readAll 读取全部内容并上报进度
func readAll(r io.Reader, total int64, progress ProgressFunc) ([]byte, error) {
	if total < 0 {
		total = 0
	}
	cr := &countingReader{r: r, total: total, progress: progress}
	return io.ReadAll(cr)
}
