package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound 对象或键不存在
var ErrNotFound = errors.New("source: not found")

// S3Options S3 兼容对象存储连接配置
type S3Options struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	AccessKey string `json:"accessKey" yaml:"accessKey"`
	SecretKey string `json:"secretKey" yaml:"secretKey"`
	UseSSL    bool   `json:"useSSL" yaml:"useSSL"`
	Region    string `json:"region" yaml:"region"`
}

// Validate 校验配置
func (o S3Options) Validate() error {
	if o.Endpoint == "" {
		return fmt.Errorf("s3 endpoint is required")
	}
	return nil
}

// S3 从 s3://bucket/key 获取对象
type S3 struct {
	client *minio.Client
}

// NewS3 使用已有客户端创建获取器
func NewS3(client *minio.Client) *S3 {
	return &S3{client: client}
}

// DialS3 按配置创建客户端与获取器
func DialS3(opts S3Options) (*S3, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("source: create s3 client: %w", err)
	}
	return NewS3(client), nil
}

// Fetch 实现 Fetcher
func (s *S3) Fetch(ctx context.Context, locator string, progress ProgressFunc) ([]byte, error) {
	bucket, key, err := splitHostPath(locator)
	if err != nil {
		return nil, err
	}
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("source: s3 locator %q needs bucket and key", locator)
	}

	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, s3Error(locator, err)
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s3Error(locator, err)
	}
	defer obj.Close()

	data, err := readAll(obj, info.Size, progress)
	if err != nil {
		return nil, s3Error(locator, err)
	}
	return data, nil
}

func s3Error(locator string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NotFound" || resp.Code == "NoSuchBucket" {
		return fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	return err
}
