// Package program 将配置、资源加载器、插件与模块运行时组装为可运行的程序。
package program

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gocrud/program/config"
	"github.com/gocrud/program/core"
	"github.com/gocrud/program/frame"
	"github.com/gocrud/program/loader"
	"github.com/gocrud/program/loader/source"
)

// SettingsSection 配置节名称
const SettingsSection = "program"

// Duration 可从 "1.5s" 或秒数绑定的时长
type Duration time.Duration

// UnmarshalJSON 实现 json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*d = Duration(t * float64(time.Second))
	case string:
		parsed, err := time.ParseDuration(t)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// MarshalJSON 实现 json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Settings 程序配置
type Settings struct {
	Mount      string  `json:"mount"`
	RenderMode string  `json:"renderMode"`
	FPS        float64 `json:"fps"`

	Viewport   ViewportSettings   `json:"viewport"`
	PixelRatio PixelRatioSettings `json:"pixelRatio"`
	Camera     CameraSettings     `json:"camera"`

	ShutdownTimeout Duration `json:"shutdownTimeout"`

	Assets    AssetSettings     `json:"assets"`
	Inspector InspectorSettings `json:"inspector"`
	Stats     StatsSettings     `json:"stats"`
	Debug     bool              `json:"debug"`
	Log       LogSettings       `json:"log"`
}

// ViewportSettings 无头视口尺寸
type ViewportSettings struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	PixelRatio float64 `json:"pixelRatio"`
}

// PixelRatioSettings 像素比上下限
type PixelRatioSettings struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CameraSettings 主相机参数
type CameraSettings struct {
	FOV      float64    `json:"fov"`
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
}

// AssetSettings 资源加载配置
type AssetSettings struct {
	// Loader 加载器名称
	Loader string `json:"loader"`
	// Root 相对路径与 file:// 的根目录
	Root    string               `json:"root"`
	S3      *source.S3Options    `json:"s3"`
	Redis   *source.RedisOptions `json:"redis"`
	Journal string               `json:"journal"` // sqlite DSN，为空时不记录
	// HTTPTimeout http(s) 获取的整体超时，为 0 时使用 source.DefaultHTTPTimeout
	HTTPTimeout Duration `json:"httpTimeout"`
	// MaxDecodedSize .zst/.lz4 解压后的字节上限，为 0 时使用 source.DefaultMaxDecodedSize
	MaxDecodedSize int64 `json:"maxDecodedSize"`
	// Manifest 启动时排队的资源
	Manifest []loader.Resource `json:"manifest"`
}

// InspectorSettings 调试 HTTP 服务配置
type InspectorSettings struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// StatsSettings 帧统计配置
type StatsSettings struct {
	Enabled bool `json:"enabled"`
	// Report cron 表达式，为空时不输出周期日志
	Report string `json:"report"`
}

// LogSettings 日志配置
type LogSettings struct {
	Level string `json:"level"`
	Json  bool   `json:"json"`
}

// DefaultSettings 默认配置
func DefaultSettings() Settings {
	cs := core.DefaultSettings()
	return Settings{
		Mount:      core.DefaultMountID,
		RenderMode: string(core.RenderDirect),
		FPS:        frame.DefaultFPS,
		Viewport:   ViewportSettings{Width: 1280, Height: 720, PixelRatio: 1},
		PixelRatio: PixelRatioSettings{Min: cs.MinPixelRatio, Max: cs.MaxPixelRatio},
		Camera: CameraSettings{
			FOV:      cs.FOV,
			Position: cs.CameraPosition,
			Target:   cs.CameraTarget,
		},
		ShutdownTimeout: Duration(cs.ShutdownTimeout),
		Assets:          AssetSettings{Loader: "default", Root: "."},
		Inspector:       InspectorSettings{Addr: "127.0.0.1:9090"},
		Log:             LogSettings{Level: "info"},
	}
}

// LoadSettings 从配置节 program 读取配置，未出现的字段保留默认值
func LoadSettings(cfg config.Configuration) (Settings, error) {
	s, err := config.LoadOrDefault(cfg, SettingsSection, DefaultSettings())
	if err != nil {
		return Settings{}, fmt.Errorf("program: load settings: %w", err)
	}
	return s, s.Validate()
}

// Validate 校验配置
func (s Settings) Validate() error {
	if _, err := core.ParseRenderMode(s.RenderMode); err != nil {
		return err
	}
	if s.FPS < 0 {
		return fmt.Errorf("%w: fps must be >= 0", core.ErrConfiguration)
	}
	if s.Viewport.Width <= 0 || s.Viewport.Height <= 0 {
		return fmt.Errorf("%w: invalid viewport %dx%d", core.ErrConfiguration, s.Viewport.Width, s.Viewport.Height)
	}
	if s.Assets.HTTPTimeout < 0 || s.Assets.MaxDecodedSize < 0 {
		return fmt.Errorf("%w: asset limits must be >= 0", core.ErrConfiguration)
	}
	if s.Assets.S3 != nil {
		if err := s.Assets.S3.Validate(); err != nil {
			return fmt.Errorf("%w: %v", core.ErrConfiguration, err)
		}
	}
	if s.Assets.Redis != nil {
		if err := s.Assets.Redis.Validate(); err != nil {
			return fmt.Errorf("%w: %v", core.ErrConfiguration, err)
		}
	}
	return nil
}

// coreSettings 转换为运行时参数
func (s Settings) coreSettings() core.Settings {
	return core.Settings{
		MinPixelRatio:   s.PixelRatio.Min,
		MaxPixelRatio:   s.PixelRatio.Max,
		FOV:             s.Camera.FOV,
		CameraPosition:  s.Camera.Position,
		CameraTarget:    s.Camera.Target,
		ShutdownTimeout: time.Duration(s.ShutdownTimeout),
	}
}
