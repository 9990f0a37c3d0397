package logging

import (
	"time"
)

// LogEntry 一条日志记录，由 Logger 生成后交给各个 LoggerProvider
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}

// Formatter 将日志条目编码为输出字节
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}
