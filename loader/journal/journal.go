// Package journal 将每批资源加载结果写入数据库，便于排查缺失资源。
package journal

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gocrud/program/loader"
	"github.com/gocrud/program/logging"
)

// Record 单个资源的一次加载记录
type Record struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Batch      string    `gorm:"index;size:64" json:"batch"`
	Loader     string    `gorm:"index;size:128" json:"loader"`
	Name       string    `gorm:"index;size:255" json:"name"`
	Type       string    `gorm:"size:32" json:"type"`
	URL        string    `json:"url"`
	Critical   bool      `json:"critical"`
	Succeeded  bool      `gorm:"index" json:"succeeded"`
	Error      string    `json:"error,omitempty"`
	Bytes      int64     `json:"bytes"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

// TableName 表名
func (Record) TableName() string { return "load_records" }

// Options 日志库配置
type Options struct {
	// DSN sqlite 数据源，例如 "file:journal.db" 或 ":memory:"
	DSN    string
	Logger logging.Logger
}

// Store 加载记录存储，实现 loader.Observer
type Store struct {
	db     *gorm.DB
	logger logging.Logger
}

// Open 打开 sqlite 数据库并迁移表结构
func Open(opts Options) (*Store, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("journal: dsn is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	db, err := gorm.Open(sqlite.Open(opts.DSN), &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", opts.DSN, err)
	}
	return New(db, logger)
}

// New 使用已有连接创建存储
func New(db *gorm.DB, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite 内存库每个连接是独立的数据库
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Observe 实现 loader.Observer，写入失败只记录日志
func (s *Store) Observe(ctx context.Context, batch loader.Batch) {
	if err := s.Append(ctx, batch); err != nil {
		s.logger.Error("Failed to write load journal", logging.F("loader", batch.Loader), logging.Err(err))
	}
}

// Append 写入一批加载结果
func (s *Store) Append(ctx context.Context, batch loader.Batch) error {
	if len(batch.Outcomes) == 0 {
		return nil
	}
	id := batch.Started.UTC().Format("20060102T150405.000000000")
	records := make([]Record, 0, len(batch.Outcomes))
	for _, o := range batch.Outcomes {
		r := Record{
			Batch:      id,
			Loader:     batch.Loader,
			Name:       o.Resource.Name,
			Type:       string(o.Resource.Type),
			URL:        o.Resource.URL,
			Critical:   o.Resource.RejectOnFailure,
			Succeeded:  o.Err == nil,
			Bytes:      o.Bytes,
			DurationMs: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			r.Error = o.Err.Error()
		}
		records = append(records, r)
	}
	return s.db.WithContext(ctx).Create(&records).Error
}

// Recent 返回最近的记录，按时间倒序
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&records).Error
	return records, err
}

// Failures 返回指定资源名称的失败记录，name 为空时返回全部失败记录
func (s *Store) Failures(ctx context.Context, name string) ([]Record, error) {
	q := s.db.WithContext(ctx).Where("succeeded = ?", false)
	if name != "" {
		q = q.Where("name = ?", name)
	}
	var records []Record
	err := q.Order("id desc").Find(&records).Error
	return records, err
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
