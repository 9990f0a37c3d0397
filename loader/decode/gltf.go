package decode

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// GLB 容器常量
const (
	glbMagic     = 0x46546C67 // "glTF"
	glbHeaderLen = 12
	chunkJSON    = 0x4E4F534A
	chunkBIN     = 0x004E4942
)

// ErrUnsupportedVersion glTF 资源版本不是 2.x
var ErrUnsupportedVersion = errors.New("decode: unsupported glTF version")

// Model 解码后的 glTF 模型
//
// 只解析场景图结构；几何数据保留在 Binary 中交由引擎上传。
type Model struct {
	Asset     Asset      `json:"asset"`
	Scene     *int       `json:"scene,omitempty"`
	Scenes    []Scene    `json:"scenes,omitempty"`
	Nodes     []Node     `json:"nodes,omitempty"`
	Meshes    []Mesh     `json:"meshes,omitempty"`
	Materials []Material `json:"materials,omitempty"`
	Buffers   []Buffer   `json:"buffers,omitempty"`

	// Binary GLB 内嵌的 BIN 块，.gltf 文本格式为空
	Binary []byte `json:"-"`
}

type Asset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

type Scene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

type Node struct {
	Name        string    `json:"name,omitempty"`
	Mesh        *int      `json:"mesh,omitempty"`
	Children    []int     `json:"children,omitempty"`
	Translation []float64 `json:"translation,omitempty"`
	Rotation    []float64 `json:"rotation,omitempty"`
	Scale       []float64 `json:"scale,omitempty"`
}

type Mesh struct {
	Name       string            `json:"name,omitempty"`
	Primitives []json.RawMessage `json:"primitives"`
}

type Material struct {
	Name string `json:"name,omitempty"`
}

type Buffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

// NodeNames 返回默认场景中所有节点名称（深度优先）
func (m *Model) NodeNames() []string {
	var roots []int
	switch {
	case m.Scene != nil && *m.Scene < len(m.Scenes):
		roots = m.Scenes[*m.Scene].Nodes
	case len(m.Scenes) > 0:
		roots = m.Scenes[0].Nodes
	default:
		for i := range m.Nodes {
			roots = append(roots, i)
		}
	}

	var names []string
	seen := make(map[int]bool)
	var walk func(i int)
	walk = func(i int) {
		if i < 0 || i >= len(m.Nodes) || seen[i] {
			return
		}
		seen[i] = true
		names = append(names, m.Nodes[i].Name)
		for _, c := range m.Nodes[i].Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return names
}

// GLTF 解码 .gltf（JSON）或 .glb（二进制容器）为 *Model
func GLTF(data []byte) (any, error) {
	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic {
		return parseGLB(data)
	}
	return parseDocument(data, nil)
}

func parseDocument(doc, bin []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("decode: gltf: %w", err)
	}
	if !strings.HasPrefix(m.Asset.Version, "2") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, m.Asset.Version)
	}
	m.Binary = bin
	return &m, nil
}

func parseGLB(data []byte) (*Model, error) {
	if len(data) < glbHeaderLen {
		return nil, errors.New("decode: glb: truncated header")
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != 2 {
		return nil, fmt.Errorf("%w: glb container %d", ErrUnsupportedVersion, version)
	}
	length := int(binary.LittleEndian.Uint32(data[8:12]))
	if length < glbHeaderLen {
		return nil, fmt.Errorf("decode: glb: declared length %d shorter than header", length)
	}
	if length > len(data) {
		return nil, fmt.Errorf("decode: glb: declared length %d exceeds %d bytes", length, len(data))
	}

	var doc, bin []byte
	r := bytes.NewReader(data[glbHeaderLen:length])
	for r.Len() > 0 {
		var hdr struct {
			Length uint32
			Type   uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
			return nil, fmt.Errorf("decode: glb: chunk header: %w", err)
		}
		if int(hdr.Length) > r.Len() {
			return nil, errors.New("decode: glb: truncated chunk")
		}
		chunk := make([]byte, hdr.Length)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, fmt.Errorf("decode: glb: chunk body: %w", err)
		}
		switch hdr.Type {
		case chunkJSON:
			doc = chunk
		case chunkBIN:
			bin = chunk
		}
	}
	if doc == nil {
		return nil, errors.New("decode: glb: missing JSON chunk")
	}
	return parseDocument(doc, bin)
}
