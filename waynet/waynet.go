// Package waynet builds the weighted navigation graph of a world's way net.
package waynet

import (
	"github.com/binzume/zenconv/geom"
	"github.com/binzume/zenconv/logger"
	"github.com/binzume/zenconv/mesh"
	"github.com/binzume/zenconv/zen"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Node struct {
	Name      string
	Position  geom.Vector3 // meters
	Direction geom.Vector3
	Neighbors []string
	distances map[string]float32
}

// Distance returns the cached distance to a neighbor.
func (n *Node) Distance(neighbor string) (float32, bool) {
	d, ok := n.distances[neighbor]
	return d, ok
}

func (n *Node) addNeighbor(name string) {
	for _, nb := range n.Neighbors {
		if nb == name {
			return
		}
	}
	n.Neighbors = append(n.Neighbors, name)
}

type Graph struct {
	nodes map[string]*Node
	order []string
	// number of distances actually computed; the reverse direction reuses them
	computed int
}

// Build creates one node per point and two directed adjacency entries per edge.
func Build(points []*zen.WayPoint, edges []zen.WayEdge) (*Graph, error) {
	g := &Graph{nodes: make(map[string]*Node, len(points))}
	for _, p := range points {
		if _, exists := g.nodes[p.Name]; exists {
			logger.Warn("duplicate waypoint", zap.String("name", p.Name))
			continue
		}
		pos := mesh.ToMeters(p.Position)
		g.nodes[p.Name] = &Node{
			Name:      p.Name,
			Position:  *geom.NewVector3FromArray(pos),
			Direction: *geom.NewVector3FromArray(p.Direction),
			distances: map[string]float32{},
		}
		g.order = append(g.order, p.Name)
	}

	for i, e := range edges {
		if e.A < 0 || e.A >= len(points) || e.B < 0 || e.B >= len(points) {
			return nil, errors.Wrapf(&mesh.IndexError{What: "waypoint", Index: outOfRange(e, len(points)), Len: len(points)}, "edge %d", i)
		}
		a, b := g.nodes[points[e.A].Name], g.nodes[points[e.B].Name]
		a.addNeighbor(b.Name)
		b.addNeighbor(a.Name)
	}

	for _, name := range g.order {
		n := g.nodes[name]
		for _, nb := range n.Neighbors {
			if _, ok := n.distances[nb]; ok {
				continue
			}
			other := g.nodes[nb]
			if d, ok := other.distances[n.Name]; ok {
				n.distances[nb] = d
				continue
			}
			n.distances[nb] = geom.Distance(&n.Position, &other.Position)
			g.computed++
		}
	}
	return g, nil
}

func outOfRange(e zen.WayEdge, n int) int {
	if e.A < 0 || e.A >= n {
		return e.A
	}
	return e.B
}

func (g *Graph) Node(name string) *Node {
	return g.nodes[name]
}

// Distance returns the edge weight between two adjacent waypoints.
func (g *Graph) Distance(a, b string) (float32, bool) {
	n := g.nodes[a]
	if n == nil {
		return 0, false
	}
	return n.Distance(b)
}

func (g *Graph) Neighbors(name string) []string {
	if n := g.nodes[name]; n != nil {
		return n.Neighbors
	}
	return nil
}

func (g *Graph) Len() int {
	return len(g.nodes)
}

// Names returns the waypoint names in input order.
func (g *Graph) Names() []string {
	return g.order
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, node := range g.nodes {
		n += len(node.Neighbors)
	}
	return n / 2
}
