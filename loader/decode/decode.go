// Package decode 将获取到的字节解码为各资源类型的值。
package decode

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gocrud/program/engine"
	"github.com/gocrud/program/loader"
	"github.com/gocrud/program/loader/source"
)

// Func 字节解码函数
type Func func(data []byte) (any, error)

// Strategy 组合获取器与解码函数
func Strategy(f source.Fetcher, decode Func) engine.Strategy {
	return engine.StrategyFunc(func(ctx context.Context, url string, progress engine.ProgressFunc) (any, error) {
		var p source.ProgressFunc
		if progress != nil {
			p = source.ProgressFunc(progress)
		}
		data, err := f.Fetch(ctx, url, p)
		if err != nil {
			return nil, err
		}
		return decode(data)
	})
}

// NewRegistry 创建注册了全部内置类型的注册表
func NewRegistry(f source.Fetcher) *loader.Registry {
	reg := loader.NewRegistry()
	reg.MustRegister(loader.TypeTexture, Strategy(f, Texture))
	reg.MustRegister(loader.TypeGLTF, Strategy(f, GLTF))
	reg.MustRegister(loader.TypeJSON, Strategy(f, JSON))
	reg.MustRegister(loader.TypeYAML, Strategy(f, YAML))
	reg.MustRegister(loader.TypeBlob, Strategy(f, Blob))
	return reg
}

// JSON 解码为通用值（map[string]any、[]any 等）
func JSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode: json: %w", err)
	}
	return v, nil
}

// YAML 解码为通用值
func YAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode: yaml: %w", err)
	}
	return v, nil
}

// Blob 原样返回字节
func Blob(data []byte) (any, error) {
	return data, nil
}
