package logging

import "io"

// NewLogger 创建一个默认的控制台 Logger
func NewLogger() Logger {
	builder := NewLoggingBuilder()
	builder.AddConsole()
	factory := builder.Build()
	return factory.CreateLogger("default")
}

// NewNopLogger 创建一个丢弃所有输出的 Logger
func NewNopLogger() Logger {
	return NewLoggingBuilder().SetMinimumLevel(LogLevelNone).Build().CreateLogger("")
}

// NewWriterLogger 创建写入 w 的 Logger，级别从 Trace 开始
func NewWriterLogger(w io.Writer, category string) Logger {
	return NewLoggingBuilder().
		SetMinimumLevel(LogLevelTrace).
		AddWriter(w).
		Build().
		CreateLogger(category)
}
