package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/gocrud/program/logging"
)

const slowQuery = 200 * time.Millisecond

// gormLogger 将 gorm 日志转发到 logging.Logger
type gormLogger struct {
	logger logging.Logger
	level  gormlogger.LogLevel
}

func newGormLogger(logger logging.Logger) gormlogger.Interface {
	return &gormLogger{logger: logger.WithCategory("Journal"), level: gormlogger.Warn}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.logger.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logger.Error("Query failed", logging.F("sql", sql), logging.F("rows", rows), logging.Err(err))
	case elapsed > slowQuery && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.Warn("Slow query", logging.F("sql", sql), logging.F("rows", rows), logging.F("elapsed", elapsed.String()))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.Debug("Query", logging.F("sql", sql), logging.F("rows", rows))
	}
}
