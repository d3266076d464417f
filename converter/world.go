package converter

import (
	"sort"

	"github.com/binzume/zenconv/logger"
	"github.com/binzume/zenconv/mesh"
	"github.com/binzume/zenconv/zen"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WorldAssembler groups the BSP leaf polygons of a world mesh by material.
type WorldAssembler struct {
	SkipPortals bool
}

// Assemble returns one buffer set per material index that produced triangles.
func (w *WorldAssembler) Assemble(m *zen.Mesh, bsp *zen.BspTree) (map[int]*mesh.BufferSet, error) {
	if m == nil || bsp == nil {
		return nil, errors.Wrap(mesh.ErrNoGeometry, "world has no mesh")
	}
	sets := make([]*mesh.BufferSet, len(m.Materials))
	for i, mat := range m.Materials {
		sets[i] = mesh.NewBufferSet(mat)
	}

	b := mesh.NewStreamBuilder(mesh.World)
	seen := make(map[int]bool, len(bsp.LeafPolygonIndices))
	portals := 0
	for _, pi := range bsp.LeafPolygonIndices {
		if seen[pi] {
			continue
		}
		seen[pi] = true
		if pi < 0 || pi >= len(m.Polygons) {
			return nil, &mesh.IndexError{What: "polygon", Index: pi, Len: len(m.Polygons)}
		}
		p := m.Polygons[pi]
		if p.IsPortal && w.SkipPortals {
			portals++
			continue
		}
		if p.MaterialIndex < 0 || p.MaterialIndex >= len(sets) {
			return nil, errors.Wrapf(&mesh.IndexError{What: "material", Index: p.MaterialIndex, Len: len(sets)}, "polygon %d", pi)
		}
		set := sets[p.MaterialIndex]
		if !set.Material.HasTexture() {
			continue
		}
		if err := b.AppendPolygon(set, m, p); err != nil {
			return nil, errors.Wrapf(err, "polygon %d", pi)
		}
	}

	result := map[int]*mesh.BufferSet{}
	for i, set := range sets {
		if !set.IsEmpty() {
			result[i] = set
		}
	}
	logger.Debug("assembled world mesh",
		zap.Int("polygons", len(seen)), zap.Int("portals", portals), zap.Int("materials", len(result)))
	if len(result) == 0 {
		return nil, mesh.ErrNoGeometry
	}
	return result, nil
}

// MaterialIndices returns the keys of an Assemble result in ascending order.
func MaterialIndices(sets map[int]*mesh.BufferSet) []int {
	keys := make([]int, 0, len(sets))
	for k := range sets {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
