package logging

import (
	"encoding/json"
	"fmt"
)

// JsonFormatter JSON 格式化器
type JsonFormatter struct {
	TimestampFormat string
}

// NewJsonFormatter 创建 JSON 格式化器
func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

// Format 格式化日志（单行 JSON，不含换行）
func (f *JsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]any, 5)

	data["time"] = entry.Time.Format(f.TimestampFormat)
	data["level"] = entry.Level.String()
	if entry.Category != "" {
		data["category"] = entry.Category
	}
	data["msg"] = entry.Message

	if len(entry.Fields) > 0 {
		fields := make(map[string]any, len(entry.Fields))
		for _, field := range entry.Fields {
			// error 等不可序列化的值按字符串输出
			switch v := field.Value.(type) {
			case error:
				fields[field.Key] = v.Error()
			case fmt.Stringer:
				fields[field.Key] = v.String()
			default:
				fields[field.Key] = v
			}
		}
		data["fields"] = fields
	}

	return json.Marshal(data)
}
