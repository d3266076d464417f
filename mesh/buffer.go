// Package mesh turns wedge and polygon indexed source geometry into flat buffer sets.
package mesh

import (
	"fmt"

	"github.com/binzume/zenconv/zen"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// UnitsPerMeter converts source units (centimeters) to output units.
const UnitsPerMeter = 100

var (
	// ErrNoGeometry means nothing renderable was produced, e.g. every material is textureless.
	ErrNoGeometry = errors.New("no renderable geometry")
	// ErrCorrupt is matched by every data corruption error of this package.
	ErrCorrupt = errors.New("corrupt geometry")
	// ErrInvalidWeights is returned for positions without usable skin weights.
	ErrInvalidWeights = errors.Wrap(ErrCorrupt, "invalid skin weights")
)

// IndexError reports an index outside of the referenced list.
type IndexError struct {
	What  string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.What, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrCorrupt
}

func checkIndex[T constraints.Integer](what string, i T, n int) error {
	if i < 0 || uint64(i) >= uint64(n) {
		return &IndexError{What: what, Index: int(i), Len: n}
	}
	return nil
}

// ToMeters converts a source position.
func ToMeters(v zen.Vec3) [3]float32 {
	return [3]float32{v[0] / UnitsPerMeter, v[1] / UnitsPerMeter, v[2] / UnitsPerMeter}
}

// BufferSet is one independently indexed surface.
// Vertices, Normals and UVs (and Joints/Weights if present) are parallel arrays.
type BufferSet struct {
	Material *zen.Material
	Vertices [][3]float32
	Normals  [][3]float32
	UVs      [][2]float32
	Indices  []uint32
	Joints   [][4]uint16
	Weights  [][4]float32
	LightMap int // -1: none
}

func NewBufferSet(mat *zen.Material) *BufferSet {
	return &BufferSet{Material: mat, LightMap: -1}
}

func (b *BufferSet) grow(vertices int, skinned bool) {
	if free := cap(b.Vertices) - len(b.Vertices); free >= vertices {
		return
	}
	n := len(b.Vertices) + vertices
	b.Vertices = append(make([][3]float32, 0, n), b.Vertices...)
	b.Normals = append(make([][3]float32, 0, n), b.Normals...)
	b.UVs = append(make([][2]float32, 0, n), b.UVs...)
	b.Indices = append(make([]uint32, 0, n), b.Indices...)
	if skinned {
		b.Joints = append(make([][4]uint16, 0, n), b.Joints...)
		b.Weights = append(make([][4]float32, 0, n), b.Weights...)
	}
}

func (b *BufferSet) VertexCount() int {
	return len(b.Vertices)
}

func (b *BufferSet) TriangleCount() int {
	return len(b.Indices) / 3
}

func (b *BufferSet) IsEmpty() bool {
	return len(b.Indices) == 0
}

func (b *BufferSet) Skinned() bool {
	return b.Joints != nil
}

// Texture is the texture name of the material, or "".
func (b *BufferSet) Texture() string {
	if b.Material == nil {
		return ""
	}
	return b.Material.Texture
}

// Bounds returns the axis aligned bounding box of the vertices.
func (b *BufferSet) Bounds() (min, max [3]float32) {
	for i, v := range b.Vertices {
		for k := 0; k < 3; k++ {
			if i == 0 || v[k] < min[k] {
				min[k] = v[k]
			}
			if i == 0 || v[k] > max[k] {
				max[k] = v[k]
			}
		}
	}
	return
}

// Validate checks the buffer invariants.
func (b *BufferSet) Validate() error {
	n := len(b.Vertices)
	if len(b.Normals) != n || len(b.UVs) != n {
		return errors.Wrapf(ErrCorrupt, "attribute length mismatch: %d vertices, %d normals, %d uvs", n, len(b.Normals), len(b.UVs))
	}
	if b.Joints != nil && (len(b.Joints) != n || len(b.Weights) != n) {
		return errors.Wrapf(ErrCorrupt, "skin length mismatch: %d vertices, %d joints, %d weights", n, len(b.Joints), len(b.Weights))
	}
	if len(b.Indices)%3 != 0 {
		return errors.Wrapf(ErrCorrupt, "index count %d is not a multiple of 3", len(b.Indices))
	}
	for _, i := range b.Indices {
		if err := checkIndex("vertex", i, n); err != nil {
			return err
		}
	}
	return nil
}
