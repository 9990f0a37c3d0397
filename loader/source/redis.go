package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions Redis 连接配置
type RedisOptions struct {
	Addr        string        `json:"addr" yaml:"addr"`
	Password    string        `json:"password" yaml:"password"`
	DB          int           `json:"db" yaml:"db"`
	DialTimeout time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout time.Duration `json:"readTimeout" yaml:"readTimeout"`
	PoolSize    int           `json:"poolSize" yaml:"poolSize"`
	KeyPrefix   string        `json:"keyPrefix" yaml:"keyPrefix"`
}

// Validate 校验配置
func (o RedisOptions) Validate() error {
	if o.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	if o.DB < 0 {
		return fmt.Errorf("redis db must be >= 0")
	}
	return nil
}

// Redis 从 redis://key 读取字符串键的值
//
// 键可以包含斜杠，例如 redis://scenes/garage.json 读取键 "scenes/garage.json"。
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis 使用已有客户端创建获取器
func NewRedis(client redis.UniversalClient, keyPrefix string) *Redis {
	return &Redis{client: client, prefix: keyPrefix}
}

// DialRedis 按配置创建客户端与获取器
func DialRedis(opts RedisOptions) (*Redis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
		ReadTimeout: opts.ReadTimeout,
		PoolSize:    opts.PoolSize,
	})
	return NewRedis(client, opts.KeyPrefix), nil
}

// Key 返回定位符对应的 Redis 键
func (r *Redis) Key(locator string) string {
	key := strings.TrimPrefix(locator, "redis://")
	return r.prefix + trimQuery(key)
}

// Fetch 实现 Fetcher
func (r *Redis) Fetch(ctx context.Context, locator string, progress ProgressFunc) ([]byte, error) {
	key := r.Key(locator)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	if err != nil {
		return nil, err
	}
	n := int64(len(data))
	progress(n, n)
	return data, nil
}

// Close 关闭底层客户端
func (r *Redis) Close() error {
	return r.client.Close()
}
