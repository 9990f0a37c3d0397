package loader

// Type 资源类型标签，用于选择获取策略
type Type string

// 内置资源类型
const (
	TypeTexture Type = "texture"
	TypeGLTF    Type = "gltf"
	TypeJSON    Type = "json"
	TypeYAML    Type = "yaml"
	TypeBlob    Type = "blob"
)

// Resource 资源描述
type Resource struct {
	// Name 在同一个 Loader 内唯一
	Name string `json:"name" yaml:"name"`
	Type Type   `json:"type" yaml:"type"`
	// URL 资源定位符：路径、file://、http(s)://、s3://、redis://
	URL string `json:"url" yaml:"url"`
	// RejectOnFailure 为 true 时获取失败会导致整批加载失败
	RejectOnFailure bool `json:"rejectOnFailure" yaml:"rejectOnFailure"`
}

// Status 加载器状态
type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Progress 尽力而为的字节进度
type Progress struct {
	Loaded int64 `json:"loaded"`
	Total  int64 `json:"total"`
}

// Ratio 返回 [0, 1] 的完成比例，总量未知时返回 0
func (p Progress) Ratio() float64 {
	if p.Total <= 0 {
		return 0
	}
	r := float64(p.Loaded) / float64(p.Total)
	if r > 1 {
		return 1
	}
	return r
}
