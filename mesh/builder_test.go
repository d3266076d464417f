package mesh

import (
	"testing"

	"github.com/binzume/zenconv/zen"
	"github.com/pkg/errors"
)

func quadSubmesh(texture string) *zen.SubMesh {
	return &zen.SubMesh{
		Material: zen.Material{Name: "M", Texture: texture},
		Wedges: []zen.Wedge{
			{Index: 0, Texture: zen.Vec2{0, 0}, Normal: zen.Vec3{0, 1, 0}},
			{Index: 1, Texture: zen.Vec2{1, 0}, Normal: zen.Vec3{0, 1, 0}},
			{Index: 2, Texture: zen.Vec2{1, 1}, Normal: zen.Vec3{0, 1, 0}},
			{Index: 3, Texture: zen.Vec2{0, 1}, Normal: zen.Vec3{0, 1, 0}},
		},
		Triangles: []zen.Triangle{{Wedges: [3]int{0, 1, 2}}, {Wedges: [3]int{0, 2, 3}}},
	}
}

var quadPositions = []zen.Vec3{{0, 0, 0}, {100, 0, 0}, {100, 200, 300}, {0, 0, 100}}

func TestBuildSubmesh(t *testing.T) {
	set, err := NewStreamBuilder(RigidModel).BuildSubmesh(quadPositions, quadSubmesh("WALL.TGA"))
	if err != nil {
		t.Fatal(err)
	}
	if set.VertexCount() != 6 || len(set.Normals) != 6 || len(set.UVs) != 6 || len(set.Indices) != 6 {
		t.Fatalf("unexpected lengths: %d %d %d %d", len(set.Vertices), len(set.Normals), len(set.UVs), len(set.Indices))
	}
	for i, idx := range set.Indices {
		if idx != uint32(i) {
			t.Errorf("index %d = %d", i, idx)
		}
	}
	if set.Vertices[2] != [3]float32{1, 2, 3} {
		t.Errorf("position not scaled: %v", set.Vertices[2])
	}
	if set.UVs[5] != [2]float32{0, 1} {
		t.Errorf("uv: %v", set.UVs[5])
	}
	if set.Skinned() {
		t.Error("rigid set has skin")
	}
	if err := set.Validate(); err != nil {
		t.Error(err)
	}
	if set.Texture() != "WALL.TGA" {
		t.Errorf("texture: %q", set.Texture())
	}
}

func TestBuildSubmeshErrors(t *testing.T) {
	b := NewStreamBuilder(RigidModel)

	if _, err := b.BuildSubmesh(quadPositions, quadSubmesh("")); err != ErrNoGeometry {
		t.Errorf("textureless: %v", err)
	}

	sub := quadSubmesh("A.TGA")
	sub.Triangles = append(sub.Triangles, zen.Triangle{Wedges: [3]int{0, 1, 9}})
	_, err := b.BuildSubmesh(quadPositions, sub)
	var ie *IndexError
	if !errors.As(err, &ie) || ie.What != "wedge" || ie.Index != 9 {
		t.Errorf("bad wedge: %v", err)
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("not corrupt: %v", err)
	}

	sub = quadSubmesh("A.TGA")
	sub.Wedges[1].Index = 4
	_, err = b.BuildSubmesh(quadPositions, sub)
	if !errors.As(err, &ie) || ie.What != "position" || ie.Len != 4 {
		t.Errorf("bad position: %v", err)
	}
}

func TestBuildMesh(t *testing.T) {
	m := &zen.MultiResolutionMesh{
		Positions: quadPositions,
		SubMeshes: []*zen.SubMesh{quadSubmesh(""), quadSubmesh("B.TGA"), quadSubmesh("C.TGA")},
	}
	sets, err := NewStreamBuilder(RigidModel).BuildMesh(m)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 2 || sets[0].Texture() != "B.TGA" || sets[1].Texture() != "C.TGA" {
		t.Fatalf("unexpected sets: %v", sets)
	}
	// offsets restart per set
	if sets[1].Indices[0] != 0 {
		t.Errorf("offset carried over: %d", sets[1].Indices[0])
	}

	m.SubMeshes = m.SubMeshes[:1]
	if _, err := NewStreamBuilder(RigidModel).BuildMesh(m); err != ErrNoGeometry {
		t.Errorf("all textureless: %v", err)
	}
	if _, err := NewStreamBuilder(RigidModel).BuildMesh(nil); err != ErrNoGeometry {
		t.Errorf("nil mesh: %v", err)
	}
}

func TestSkinWeights(t *testing.T) {
	weights := make([][]zen.SoftSkinWeight, 4)
	for i := range weights {
		weights[i] = []zen.SoftSkinWeight{{Node: 7, Weight: 0.6}, {Node: 2, Weight: 0.4}}
	}
	b := NewSkinnedStreamBuilder(weights, []int{4, 7, 2})

	joints, w, err := b.SkinWeights(0)
	if err != nil {
		t.Fatal(err)
	}
	if joints != [4]uint16{1, 2, 0, 0} {
		t.Errorf("joints: %v", joints)
	}
	if w != [4]float32{0.6, 0.4, 0, 0} {
		t.Errorf("weights: %v", w)
	}

	set, err := b.BuildSubmesh(quadPositions, quadSubmesh("SKIN.TGA"))
	if err != nil {
		t.Fatal(err)
	}
	if !set.Skinned() || len(set.Joints) != 6 || len(set.Weights) != 6 {
		t.Fatalf("skin lengths: %d %d", len(set.Joints), len(set.Weights))
	}
	if err := set.Validate(); err != nil {
		t.Error(err)
	}
}

func TestSkinWeightsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		weights []zen.SoftSkinWeight
		corrupt error
	}{
		{"empty", nil, ErrInvalidWeights},
		{"zero", []zen.SoftSkinWeight{{Node: 1, Weight: 0}}, ErrInvalidWeights},
		{"too many", []zen.SoftSkinWeight{{Node: 1, Weight: .2}, {Node: 1, Weight: .2}, {Node: 1, Weight: .2}, {Node: 1, Weight: .2}, {Node: 1, Weight: .2}}, ErrInvalidWeights},
		{"unknown node", []zen.SoftSkinWeight{{Node: 5, Weight: 1}}, ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewSkinnedStreamBuilder([][]zen.SoftSkinWeight{tt.weights}, []int{0, 1})
			if _, _, err := b.SkinWeights(0); !errors.Is(err, tt.corrupt) {
				t.Errorf("got %v, want %v", err, tt.corrupt)
			}
		})
	}

	b := NewSkinnedStreamBuilder(nil, []int{0})
	var ie *IndexError
	if _, _, err := b.SkinWeights(3); !errors.As(err, &ie) {
		t.Errorf("missing weights: %v", err)
	}
}

func TestSkinWeightsRenormalize(t *testing.T) {
	b := NewSkinnedStreamBuilder([][]zen.SoftSkinWeight{{{Node: 0, Weight: 1}, {Node: 1, Weight: 1}}}, []int{0, 1})
	_, w, err := b.SkinWeights(0)
	if err != nil {
		t.Fatal(err)
	}
	if w[0] != 0.5 || w[1] != 0.5 {
		t.Errorf("weights: %v", w)
	}
}

func TestFanTriangles(t *testing.T) {
	for n := 0; n < 3; n++ {
		if tris := FanTriangles(n); tris != nil {
			t.Errorf("n=%d: %v", n, tris)
		}
	}
	tris := FanTriangles(6)
	if len(tris) != 4 {
		t.Fatalf("len: %d", len(tris))
	}
	for i, tri := range tris {
		if tri != [3]int{0, i + 1, i + 2} {
			t.Errorf("triangle %d: %v", i, tri)
		}
	}
}

func TestAppendPolygon(t *testing.T) {
	m := &zen.Mesh{
		Positions: []zen.Vec3{{0, 0, 0}, {100, 0, 0}, {100, 0, 100}, {0, 0, 100}, {50, 0, 150}},
		Features:  []zen.Feature{{Texture: zen.Vec2{0, 0}}, {Texture: zen.Vec2{1, 0}}, {Texture: zen.Vec2{1, 1}}, {Texture: zen.Vec2{0, 1}}, {Texture: zen.Vec2{.5, 1.5}}},
		LightMaps: []*zen.LightMap{{Image: "LM0"}, {Image: "LM1"}, {Image: "LM2"}},
	}
	set := NewBufferSet(&zen.Material{Texture: "GROUND.TGA"})
	b := NewStreamBuilder(World)
	p := &zen.Polygon{PositionIndices: []int{0, 1, 2, 3, 4}, FeatureIndices: []int{0, 1, 2, 3, 4}, LightMapIndex: 2}
	if err := b.AppendPolygon(set, m, p); err != nil {
		t.Fatal(err)
	}
	if set.TriangleCount() != 3 || set.VertexCount() != 9 {
		t.Fatalf("triangles %d vertices %d", set.TriangleCount(), set.VertexCount())
	}
	if set.Vertices[1] != [3]float32{1, 0, 0} || set.Vertices[5] != [3]float32{0, 0, 1} {
		t.Errorf("vertices: %v", set.Vertices)
	}
	if set.LightMap != 2 {
		t.Errorf("lightmap: %d", set.LightMap)
	}

	// second polygon continues the running offset
	tri := &zen.Polygon{PositionIndices: []int{0, 1, 2}, FeatureIndices: []int{0, 1, 2}, LightMapIndex: -1}
	if err := b.AppendPolygon(set, m, tri); err != nil {
		t.Fatal(err)
	}
	if set.Indices[9] != 9 || set.TriangleCount() != 4 {
		t.Errorf("offset: %v", set.Indices)
	}
	if set.LightMap != 2 {
		t.Errorf("unlit polygon changed lightmap: %d", set.LightMap)
	}
	relit := &zen.Polygon{PositionIndices: []int{0, 2, 3}, FeatureIndices: []int{0, 2, 3}, LightMapIndex: 1}
	if err := b.AppendPolygon(set, m, relit); err != nil {
		t.Fatal(err)
	}
	if set.LightMap != 1 {
		t.Errorf("last lightmap should win: %d", set.LightMap)
	}
	if err := set.Validate(); err != nil {
		t.Error(err)
	}

	bad := &zen.Polygon{PositionIndices: []int{0, 1, 7}, FeatureIndices: []int{0, 1, 2}}
	var ie *IndexError
	if err := b.AppendPolygon(set, m, bad); !errors.As(err, &ie) || ie.What != "position" {
		t.Errorf("bad position: %v", err)
	}
	badLightMap := &zen.Polygon{PositionIndices: []int{0, 1, 2}, FeatureIndices: []int{0, 1, 2}, LightMapIndex: 3}
	if err := b.AppendPolygon(set, m, badLightMap); !errors.As(err, &ie) || ie.What != "lightmap" {
		t.Errorf("bad lightmap: %v", err)
	}
	mismatch := &zen.Polygon{PositionIndices: []int{0, 1, 2}, FeatureIndices: []int{0, 1}}
	if err := b.AppendPolygon(set, m, mismatch); !errors.Is(err, ErrCorrupt) {
		t.Errorf("mismatch: %v", err)
	}
}

func TestValidate(t *testing.T) {
	set := NewBufferSet(nil)
	set.Vertices = [][3]float32{{0, 0, 0}}
	set.Normals = [][3]float32{{0, 1, 0}}
	set.UVs = [][2]float32{{0, 0}}
	set.Indices = []uint32{0, 0, 1}
	var ie *IndexError
	if err := set.Validate(); !errors.As(err, &ie) || ie.Index != 1 {
		t.Errorf("got %v", err)
	}
	set.Indices = []uint32{0, 0}
	if err := set.Validate(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("got %v", err)
	}
}

func TestToMeters(t *testing.T) {
	if v := ToMeters(zen.Vec3{100, 200, 300}); v != [3]float32{1, 2, 3} {
		t.Errorf("got %v", v)
	}
}
