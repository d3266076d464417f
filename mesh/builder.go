package mesh

import (
	"math"

	"github.com/binzume/zenconv/logger"
	"github.com/binzume/zenconv/zen"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Kind selects how source geometry is interpreted.
type Kind int

const (
	World Kind = iota
	SkinnedModel
	RigidModel
)

func (k Kind) String() string {
	switch k {
	case World:
		return "world"
	case SkinnedModel:
		return "skinned"
	case RigidModel:
		return "rigid"
	}
	return "unknown"
}

// MaxInfluences is the number of bone slots per vertex.
const MaxInfluences = 4

const weightEpsilon = 1e-3

type StreamBuilder struct {
	Kind    Kind
	weights [][]zen.SoftSkinWeight
	slots   map[int]int
}

func NewStreamBuilder(kind Kind) *StreamBuilder {
	return &StreamBuilder{Kind: kind}
}

// NewSkinnedStreamBuilder maps each weight's node to its index in nodeOrder.
func NewSkinnedStreamBuilder(weights [][]zen.SoftSkinWeight, nodeOrder []int) *StreamBuilder {
	slots := make(map[int]int, len(nodeOrder))
	for i, n := range nodeOrder {
		if _, ok := slots[n]; !ok {
			slots[n] = i
		}
	}
	return &StreamBuilder{Kind: SkinnedModel, weights: weights, slots: slots}
}

// SkinWeights returns the bone slots and weights of a position.
func (b *StreamBuilder) SkinWeights(position int) ([MaxInfluences]uint16, [MaxInfluences]float32, error) {
	var joints [MaxInfluences]uint16
	var weights [MaxInfluences]float32
	if err := checkIndex("skin weights", position, len(b.weights)); err != nil {
		return joints, weights, err
	}
	ws := b.weights[position]
	if len(ws) == 0 || len(ws) > MaxInfluences {
		return joints, weights, errors.Wrapf(ErrInvalidWeights, "position %d has %d influences", position, len(ws))
	}
	var sum float32
	for i, w := range ws {
		slot, ok := b.slots[w.Node]
		if !ok {
			return joints, weights, &IndexError{What: "bone node", Index: w.Node, Len: len(b.slots)}
		}
		joints[i] = uint16(slot)
		weights[i] = w.Weight
		sum += w.Weight
	}
	if !(sum > 0) {
		return joints, weights, errors.Wrapf(ErrInvalidWeights, "position %d has zero total weight", position)
	}
	if math.Abs(float64(sum-1)) > weightEpsilon {
		logger.Debug("renormalizing skin weights", zap.Int("position", position), zap.Float32("sum", sum))
		for i := range ws {
			weights[i] /= sum
		}
	}
	return joints, weights, nil
}

// BuildSubmesh expands every triangle corner of a submesh into its own vertex.
func (b *StreamBuilder) BuildSubmesh(positions []zen.Vec3, sub *zen.SubMesh) (*BufferSet, error) {
	if sub == nil || !sub.Material.HasTexture() {
		return nil, ErrNoGeometry
	}
	mat := sub.Material
	set := NewBufferSet(&mat)
	skinned := b.Kind == SkinnedModel
	set.grow(len(sub.Triangles)*3, skinned)
	if skinned {
		set.Joints = make([][4]uint16, 0, len(sub.Triangles)*3)
		set.Weights = make([][4]float32, 0, len(sub.Triangles)*3)
	}
	for t, tri := range sub.Triangles {
		for _, wi := range tri.Wedges {
			if err := checkIndex("wedge", wi, len(sub.Wedges)); err != nil {
				return nil, errors.Wrapf(err, "triangle %d", t)
			}
			w := sub.Wedges[wi]
			if err := checkIndex("position", w.Index, len(positions)); err != nil {
				return nil, errors.Wrapf(err, "wedge %d", wi)
			}
			if skinned {
				j, wt, err := b.SkinWeights(w.Index)
				if err != nil {
					return nil, err
				}
				set.Joints = append(set.Joints, j)
				set.Weights = append(set.Weights, wt)
			}
			set.Indices = append(set.Indices, uint32(len(set.Vertices)))
			set.Vertices = append(set.Vertices, ToMeters(positions[w.Index]))
			set.Normals = append(set.Normals, w.Normal)
			set.UVs = append(set.UVs, w.Texture)
		}
	}
	return set, nil
}

// BuildMesh returns one buffer set per textured submesh.
func (b *StreamBuilder) BuildMesh(m *zen.MultiResolutionMesh) ([]*BufferSet, error) {
	if m == nil {
		return nil, ErrNoGeometry
	}
	var sets []*BufferSet
	for i, sub := range m.SubMeshes {
		set, err := b.BuildSubmesh(m.Positions, sub)
		if err == ErrNoGeometry {
			continue
		} else if err != nil {
			return nil, errors.Wrapf(err, "submesh %d", i)
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		return nil, ErrNoGeometry
	}
	return sets, nil
}

// FanTriangles triangulates a convex polygon with n vertices as (0, i, i+1).
func FanTriangles(n int) [][3]int {
	if n < 3 {
		return nil
	}
	tris := make([][3]int, 0, n-2)
	for i := 1; i < n-1; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return tris
}

// AppendPolygon fans a world polygon into set. Positions and features are referenced directly.
func (b *StreamBuilder) AppendPolygon(set *BufferSet, m *zen.Mesh, p *zen.Polygon) error {
	if len(p.PositionIndices) != len(p.FeatureIndices) {
		return errors.Wrapf(ErrCorrupt, "polygon has %d positions but %d features", len(p.PositionIndices), len(p.FeatureIndices))
	}
	if p.LightMapIndex >= 0 {
		if err := checkIndex("lightmap", p.LightMapIndex, len(m.LightMaps)); err != nil {
			return err
		}
	}
	for i, pi := range p.PositionIndices {
		if err := checkIndex("position", pi, len(m.Positions)); err != nil {
			return err
		}
		if err := checkIndex("feature", p.FeatureIndices[i], len(m.Features)); err != nil {
			return err
		}
	}
	tris := FanTriangles(len(p.PositionIndices))
	set.grow(len(tris)*3, false)
	for _, tri := range tris {
		for _, c := range tri {
			f := m.Features[p.FeatureIndices[c]]
			set.Indices = append(set.Indices, uint32(len(set.Vertices)))
			set.Vertices = append(set.Vertices, ToMeters(m.Positions[p.PositionIndices[c]]))
			set.Normals = append(set.Normals, f.Normal)
			set.UVs = append(set.UVs, f.Texture)
		}
	}
	// the last lightmapped polygon decides the lightmap of the set
	if p.LightMapIndex >= 0 && len(tris) > 0 {
		set.LightMap = p.LightMapIndex
	}
	return nil
}
