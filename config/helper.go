package config

import "errors"

// Load 将配置节绑定为 T，section 为空时绑定全部配置
func Load[T any](cfg Configuration, section string) (T, error) {
	var t T
	err := cfg.Bind(section, &t)
	return t, err
}

// LoadOrDefault 将配置节绑定到 def 的副本上，配置节不存在时直接返回 def
func LoadOrDefault[T any](cfg Configuration, section string, def T) (T, error) {
	t := def
	err := cfg.Bind(section, &t)
	var notFound *KeyNotFoundError
	if errors.As(err, &notFound) {
		return def, nil
	}
	return t, err
}
