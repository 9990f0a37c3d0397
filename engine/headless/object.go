package headless

import (
	"sync"

	"github.com/gocrud/program/engine"
)

// Node 通用场景对象，可以包含子对象
type Node struct {
	name     string
	kind     string
	visible  bool
	children []engine.Object
	mu       sync.RWMutex
}

// NewNode 创建一个可见的节点
func NewNode(name, kind string) *Node {
	return &Node{name: name, kind: kind, visible: true}
}

func (n *Node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

func (n *Node) SetName(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.name = name
}

// Kind 返回节点类型，如 "AxesHelper"、"Mesh"
func (n *Node) Kind() string { return n.kind }

func (n *Node) Visible() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.visible
}

func (n *Node) SetVisible(visible bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.visible = visible
}

// Add 添加子对象
func (n *Node) Add(children ...engine.Object) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.children = append(n.children, children...)
}

// Children 返回子对象副本
func (n *Node) Children() []engine.Object {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]engine.Object(nil), n.children...)
}

// Scene 场景根节点
type Scene struct {
	root *Node
}

// NewScene 创建空场景
func NewScene() *Scene {
	return &Scene{root: NewNode("Scene", "Scene")}
}

func (s *Scene) Add(objects ...engine.Object) { s.root.Add(objects...) }

func (s *Scene) Remove(object engine.Object) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	for i, child := range s.root.children {
		if child == object {
			s.root.children = append(s.root.children[:i], s.root.children[i+1:]...)
			return
		}
	}
}

func (s *Scene) Objects() []engine.Object { return s.root.Children() }

func (s *Scene) ObjectByName(name string) (engine.Object, bool) {
	return find(s.root.Children(), name)
}

func find(objects []engine.Object, name string) (engine.Object, bool) {
	for _, obj := range objects {
		if obj.Name() == name {
			return obj, true
		}
		if parent, ok := obj.(interface{ Children() []engine.Object }); ok {
			if found, ok := find(parent.Children(), name); ok {
				return found, true
			}
		}
	}
	return nil, false
}
