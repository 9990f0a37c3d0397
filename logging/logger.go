package logging

import (
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel 日志级别
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
	// LogLevelNone 关闭所有输出
	LogLevelNone
)

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel 解析配置中的级别名称，未知名称返回 Info
func ParseLevel(name string) LogLevel {
	switch name {
	case "trace", "TRACE":
		return LogLevelTrace
	case "debug", "DEBUG":
		return LogLevelDebug
	case "warn", "WARN", "warning":
		return LogLevelWarn
	case "error", "ERROR":
		return LogLevelError
	case "fatal", "FATAL":
		return LogLevelFatal
	case "none", "off":
		return LogLevelNone
	default:
		return LogLevelInfo
	}
}

// Field 日志字段
type Field struct {
	Key   string
	Value any
}

// F 构造字段的简写
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Err 将 error 转换为 "error" 字段
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger 日志接口
type Logger interface {
	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)
	WithFields(fields ...Field) Logger
	WithCategory(category string) Logger
}

// LoggerFactory 日志工厂接口
type LoggerFactory interface {
	CreateLogger(category string) Logger
	AddProvider(provider LoggerProvider)
	SetMinimumLevel(level LogLevel)
}

// LoggerProvider 日志提供者接口
type LoggerProvider interface {
	// Write 输出一条已过滤的日志
	Write(entry *LogEntry)
	SetMinimumLevel(level LogLevel)
}

// loggerFactory 日志工厂实现
type loggerFactory struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	mu           sync.RWMutex
}

func (f *loggerFactory) CreateLogger(category string) Logger {
	return &logger{factory: f, category: category}
}

func (f *loggerFactory) AddProvider(provider LoggerProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	provider.SetMinimumLevel(f.minimumLevel)
	f.providers = append(f.providers, provider)
}

func (f *loggerFactory) SetMinimumLevel(level LogLevel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minimumLevel = level
	for _, provider := range f.providers {
		provider.SetMinimumLevel(level)
	}
}

func (f *loggerFactory) dispatch(entry *LogEntry) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if entry.Level < f.minimumLevel {
		return
	}
	for _, provider := range f.providers {
		provider.Write(entry)
	}
}

// logger 按类别记录日志，实际输出交给工厂中的所有提供者
type logger struct {
	factory  *loggerFactory
	category string
	fields   []Field
}

func (l *logger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *logger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *logger) Info(msg string, fields ...Field) { l.Log(LogLevelInfo, msg, fields...) }
func (l *logger) Warn(msg string, fields ...Field) { l.Log(LogLevelWarn, msg, fields...) }
func (l *logger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }

func (l *logger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l *logger) Log(level LogLevel, msg string, fields ...Field) {
	l.factory.dispatch(&LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   mergeFields(l.fields, fields),
	})
}

func (l *logger) WithFields(fields ...Field) Logger {
	return &logger{
		factory:  l.factory,
		category: l.category,
		fields:   mergeFields(l.fields, fields),
	}
}

func (l *logger) WithCategory(category string) Logger {
	return &logger{
		factory:  l.factory,
		category: category,
		fields:   l.fields,
	}
}

// mergeFields 合并字段，始终返回新切片，避免共享底层数组
func mergeFields(base, extra []Field) []Field {
	if len(extra) == 0 {
		return base
	}
	out := make([]Field, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	// Json 使用 JSON 格式输出（忽略颜色）
	Json   bool
	Output io.Writer
}

// ConsoleLoggerProvider 控制台日志提供者
type ConsoleLoggerProvider struct {
	output       io.Writer
	formatter    Formatter
	minimumLevel LogLevel
	mu           sync.Mutex
}

// NewConsoleLoggerProvider 创建控制台日志提供者
func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *ConsoleLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}

	var formatter Formatter
	if options.Json {
		formatter = NewJsonFormatter()
	} else {
		text := NewTextFormatter()
		text.IncludeTimestamp = options.IncludeTimestamp
		if options.TimestampFormat != "" {
			text.TimestampFormat = options.TimestampFormat
		}
		text.ColorOutput = options.ColorOutput
		formatter = text
	}

	return &ConsoleLoggerProvider{
		output:       options.Output,
		formatter:    formatter,
		minimumLevel: LogLevelInfo,
	}
}

// Write 格式化并写出日志
func (p *ConsoleLoggerProvider) Write(entry *LogEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry.Level < p.minimumLevel {
		return
	}

	data, err := p.formatter.Format(entry)
	if err != nil {
		return
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	p.output.Write(data)
}

// SetMinimumLevel 设置最小日志级别
func (p *ConsoleLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

// colorize 为日志级别添加颜色
func colorize(level LogLevel, text string) string {
	const (
		reset   = "\033[0m"
		gray    = "\033[90m"
		cyan    = "\033[36m"
		green   = "\033[32m"
		yellow  = "\033[33m"
		red     = "\033[31m"
		magenta = "\033[35m"
	)

	switch level {
	case LogLevelTrace:
		return gray + text + reset
	case LogLevelDebug:
		return cyan + text + reset
	case LogLevelInfo:
		return green + text + reset
	case LogLevelWarn:
		return yellow + text + reset
	case LogLevelError:
		return red + text + reset
	case LogLevelFatal:
		return magenta + text + reset
	default:
		return text
	}
}
