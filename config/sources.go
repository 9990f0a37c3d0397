package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// JsonFileSource JSON 文件配置源
type JsonFileSource struct {
	Path     string
	Optional bool
}

func (s *JsonFileSource) Name() string { return fmt.Sprintf("JsonFile(%s)", s.Path) }

func (s *JsonFileSource) Load() (map[string]any, error) {
	return loadFile(s.Path, s.Optional, json.Unmarshal)
}

// YamlFileSource YAML 文件配置源
type YamlFileSource struct {
	Path     string
	Optional bool
}

func (s *YamlFileSource) Name() string { return fmt.Sprintf("YamlFile(%s)", s.Path) }

func (s *YamlFileSource) Load() (map[string]any, error) {
	return loadFile(s.Path, s.Optional, yaml.Unmarshal)
}

func loadFile(path string, optional bool, unmarshal func([]byte, any) error) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, err
	}
	result := make(map[string]any)
	if err := unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return result, nil
}

// EnvironmentVariableSource 环境变量配置源
//
// PREFIX_RUNTIME_FPS=30 映射为 runtime:fps，键统一小写；设置 Section 时挂在该节下。
type EnvironmentVariableSource struct {
	Prefix  string
	Section string
}

func (s *EnvironmentVariableSource) Name() string {
	return fmt.Sprintf("EnvironmentVariables(%s)", s.Prefix)
}

func (s *EnvironmentVariableSource) Load() (map[string]any, error) {
	result := make(map[string]any)
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if s.Prefix != "" {
			if !strings.HasPrefix(key, s.Prefix) {
				continue
			}
			key = strings.TrimPrefix(key, s.Prefix)
		}
		if key == "" {
			continue
		}
		key = strings.ReplaceAll(strings.ToLower(key), "_", ":")
		if s.Section != "" {
			key = s.Section + ":" + key
		}
		setNestedValue(result, key, parseScalar(value))
	}
	return result, nil
}

// InMemorySource 内存配置源
type InMemorySource struct {
	Data map[string]any
}

func (s *InMemorySource) Name() string { return "InMemory" }

func (s *InMemorySource) Load() (map[string]any, error) {
	result := make(map[string]any)
	mergeMaps(result, s.Data)
	return result, nil
}

// EtcdOptions etcd 配置源选项
type EtcdOptions struct {
	Endpoints   []string      `json:"endpoints"`
	Username    string        `json:"username"`
	Password    string        `json:"password"`
	Prefix      string        `json:"prefix"`      // 键前缀，如 /program/
	Timeout     time.Duration `json:"timeout"`     // 读取超时，默认 5 秒
	DialTimeout time.Duration `json:"dialTimeout"` // 拨号超时，默认 5 秒
}

// EtcdSource etcd 配置源
//
// 键 /program/runtime/fps 映射为 runtime:fps；值依次尝试按 JSON、YAML 解析，都失败时作为字符串。
type EtcdSource struct {
	Options EtcdOptions
}

func (s *EtcdSource) Name() string { return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints) }

func (s *EtcdSource) Load() (map[string]any, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create etcd client: %w", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Options.Timeout)
	defer cancel()

	prefix := s.Options.Prefix
	if prefix == "" {
		prefix = "/"
	}
	resp, err := cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("get %s from etcd: %w", prefix, err)
	}

	result := make(map[string]any)
	for _, kv := range resp.Kvs {
		key := strings.TrimPrefix(strings.TrimPrefix(string(kv.Key), s.Options.Prefix), "/")
		if key == "" {
			continue
		}
		setNestedValue(result, strings.ReplaceAll(key, "/", ":"), decodeValue(kv.Value))
	}
	return result, nil
}

func decodeValue(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	if err := yaml.Unmarshal(raw, &v); err == nil && v != nil {
		return v
	}
	return string(raw)
}

// parseScalar 将字符串转为 int、float 或 bool，都失败时原样返回
func parseScalar(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// setNestedValue 按 "a:b:c" 路径写入值，中途遇到非 map 节点时放弃
func setNestedValue(data map[string]any, path string, value any) {
	parts := strings.Split(path, ":")
	current := data
	for _, part := range parts[:len(parts)-1] {
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		m, ok := current[part].(map[string]any)
		if !ok {
			return
		}
		current = m
	}
	current[parts[len(parts)-1]] = value
}
