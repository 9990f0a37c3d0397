package program

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gocrud/program/core"
	"github.com/gocrud/program/loader"
	"github.com/gocrud/program/loader/decode"
	"github.com/gocrud/program/loader/journal"
	"github.com/gocrud/program/loader/source"
	"github.com/gocrud/program/logging"
	"github.com/gocrud/program/plugins"
)

// Assets 资源加载相关对象：协议分发、获取策略、加载器与可选的加载日志库
type Assets struct {
	Mux     *source.Mux
	Loader  *loader.Loader
	Journal *journal.Store

	closers []io.Closer
	logger  logging.Logger
}

// NewAssets 按配置创建资源加载器，Manifest 中的资源立即排队
func NewAssets(s AssetSettings, logger logging.Logger) (*Assets, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	a := &Assets{Mux: source.NewMux(s.Root), logger: logger}
	web := source.NewHTTPWithTimeout(time.Duration(s.HTTPTimeout))
	a.Mux.Handle("http", web)
	a.Mux.Handle("https", web)
	a.Mux.SetMaxDecodedSize(s.MaxDecodedSize)

	if s.S3 != nil {
		s3, err := source.DialS3(*s.S3)
		if err != nil {
			return nil, err
		}
		a.Mux.Handle("s3", s3)
	}
	if s.Redis != nil {
		r, err := source.DialRedis(*s.Redis)
		if err != nil {
			return nil, err
		}
		a.Mux.Handle("redis", r)
		a.closers = append(a.closers, r)
	}

	opts := []loader.Option{loader.WithLogger(logger)}
	if s.Loader != "" {
		opts = append(opts, loader.WithName(s.Loader))
	}
	if s.Journal != "" {
		store, err := journal.Open(journal.Options{DSN: s.Journal, Logger: logger.WithCategory("Journal")})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Journal = store
		a.closers = append(a.closers, store)
		opts = append(opts, loader.WithObserver(store))
	}

	a.Loader = loader.New(decode.NewRegistry(a.Mux), opts...)
	if len(s.Manifest) > 0 {
		a.Loader.Queue(s.Manifest...)
	}
	return a, nil
}

// Module 返回加载模块
//
// 在 OnLoad 中等待所有已排队资源完成。其他模块可以在排在它前面的 OnLoad 中
// 通过 plugins.LoaderKey 取得加载器并排队，在 OnInit 中读取结果。
func (a *Assets) Module() core.Module {
	return core.NewModule("ResourceLoader",
		core.OnLoad(func(ctx context.Context, c *core.Context) error {
			c.Provide(plugins.LoaderKey, a.Loader)
			if err := a.Loader.Load(ctx); err != nil {
				return fmt.Errorf("load %s: %w", a.Loader.Name(), err)
			}
			return nil
		}),
	)
}

// Close 关闭 Redis 连接与加载日志库
func (a *Assets) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
