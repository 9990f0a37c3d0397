package core

import (
	"fmt"
	"time"
)

// 像素比限制
const (
	MinPixelRatio = 1.0
	MaxPixelRatio = 1.6
)

// DefaultMountID 默认挂载标识
const DefaultMountID = "#webgl-canvas"

// MainCameraName 主相机名称
const MainCameraName = "MainCamera"

// RenderMode 每帧的渲染方式
type RenderMode string

const (
	// RenderDirect 由渲染表面直接渲染场景与主相机
	RenderDirect RenderMode = "webgl"
	// RenderComposer 由后处理合成器渲染
	RenderComposer RenderMode = "post-processor"
)

// ParseRenderMode 解析渲染方式，空字符串视为 RenderDirect
func ParseRenderMode(s string) (RenderMode, error) {
	switch RenderMode(s) {
	case "", RenderDirect:
		return RenderDirect, nil
	case RenderComposer:
		return RenderComposer, nil
	}
	return "", fmt.Errorf("%w: unknown render mode %q", ErrConfiguration, s)
}

// Settings 核心对象的创建参数
type Settings struct {
	MinPixelRatio float64
	MaxPixelRatio float64

	FOV            float64
	CameraPosition [3]float64
	CameraTarget   [3]float64

	// ShutdownTimeout 停止后台服务的超时
	ShutdownTimeout time.Duration
}

// DefaultSettings 默认参数
func DefaultSettings() Settings {
	return Settings{
		MinPixelRatio:   MinPixelRatio,
		MaxPixelRatio:   MaxPixelRatio,
		FOV:             75,
		CameraPosition:  [3]float64{0.5, 0.5, 5},
		ShutdownTimeout: 5 * time.Second,
	}
}

func (s Settings) validate() error {
	if s.MinPixelRatio <= 0 || s.MaxPixelRatio < s.MinPixelRatio {
		return fmt.Errorf("%w: invalid pixel ratio bounds [%v, %v]", ErrConfiguration, s.MinPixelRatio, s.MaxPixelRatio)
	}
	if s.FOV <= 0 || s.FOV >= 180 {
		return fmt.Errorf("%w: invalid camera fov %v", ErrConfiguration, s.FOV)
	}
	return nil
}
