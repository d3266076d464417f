// Package scene is the host-agnostic node tree produced by an import.
package scene

import (
	"github.com/binzume/zenconv/geom"
	"github.com/binzume/zenconv/mesh"
)

type Node struct {
	Name        string
	Translation geom.Vector3
	Rotation    geom.Quaternion
	Scale       geom.Vector3
	Parent      *Node
	Children    []*Node
	Meshes      []*mesh.BufferSet
	Skin        *Skin
	Extras      map[string]interface{}
}

// Skin binds skinned buffer sets to joint nodes. Joint slot i is Joints[i].
type Skin struct {
	Joints              []*Node
	InverseBindMatrices []*geom.Matrix4
}

func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: geom.Quaternion{W: 1},
		Scale:    geom.Vector3{X: 1, Y: 1, Z: 1},
	}
}

// AddChild detaches c from its current parent and appends it.
func (n *Node) AddChild(c *Node) *Node {
	if c.Parent != nil {
		c.Parent.Remove(c)
	}
	c.Parent = n
	n.Children = append(n.Children, c)
	return c
}

// Remove detaches a direct child. Returns false if c is not a child of n.
func (n *Node) Remove(c *Node) bool {
	for i, ch := range n.Children {
		if ch == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			c.Parent = nil
			return true
		}
	}
	return false
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find returns the first node named name in depth-first order, including n itself.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if c.Name == name {
			found = c
		}
		return found == nil
	})
	return found
}

// Walk visits n and its descendants depth-first, parents first. Returning false stops the walk.
func (n *Node) Walk(f func(*Node) bool) bool {
	if !f(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(f) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes in the subtree.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool { count++; return true })
	return count
}

func (n *Node) SetExtra(key string, v interface{}) {
	if n.Extras == nil {
		n.Extras = map[string]interface{}{}
	}
	n.Extras[key] = v
}

func (n *Node) LocalMatrix() *geom.Matrix4 {
	return geom.NewTRSMatrix4(&n.Translation, &n.Rotation, &n.Scale)
}

func (n *Node) WorldMatrix() *geom.Matrix4 {
	if n.Parent == nil {
		return n.LocalMatrix()
	}
	return n.Parent.WorldMatrix().Mul(n.LocalMatrix())
}

// SetMatrix replaces the local transform with the decomposition of m.
func (n *Node) SetMatrix(m *geom.Matrix4) {
	t, r, s := m.Decompose()
	n.Translation, n.Rotation, n.Scale = *t, *r, *s
}

// MatrixRelativeTo returns the transform from n's space into ancestor's space.
// A nil ancestor, or one that is not an ancestor of n, yields the world matrix.
func (n *Node) MatrixRelativeTo(ancestor *Node) *geom.Matrix4 {
	m := n.LocalMatrix()
	for p := n.Parent; p != nil && p != ancestor; p = p.Parent {
		m = p.LocalMatrix().Mul(m)
	}
	return m
}
