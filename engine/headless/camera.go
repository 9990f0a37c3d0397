package headless

import "github.com/gocrud/program/engine"

// Camera 透视相机，仅记录参数
type Camera struct {
	*Node
	fov         float64
	aspect      float64
	position    [3]float64
	target      [3]float64
	projections int
}

// NewCamera 创建透视相机
func NewCamera(fov, aspect float64) *Camera {
	return &Camera{Node: NewNode("", "PerspectiveCamera"), fov: fov, aspect: aspect}
}

func (c *Camera) FOV() float64 { return c.fov }
func (c *Camera) Aspect() float64 { return c.aspect }
func (c *Camera) SetAspect(aspect float64) { c.aspect = aspect }
func (c *Camera) UpdateProjection() { c.projections++ }
func (c *Camera) SetPosition(x, y, z float64) { c.position = [3]float64{x, y, z} }
func (c *Camera) LookAt(x, y, z float64) { c.target = [3]float64{x, y, z} }

// Projections 返回投影矩阵被重算的次数
func (c *Camera) Projections() int { return c.projections }

func (c *Camera) Position() (x, y, z float64) {
	return c.position[0], c.position[1], c.position[2]
}

// Target 返回 LookAt 的目标点
func (c *Camera) Target() (x, y, z float64) {
	return c.target[0], c.target[1], c.target[2]
}

func (c *Camera) Clone(name string) engine.Camera {
	clone := NewCamera(c.fov, c.aspect)
	clone.SetName(name)
	clone.position = c.position
	clone.target = c.target
	return clone
}
