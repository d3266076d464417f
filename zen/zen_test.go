package zen

import (
	"bytes"
	"strings"
	"testing"
)

const worldYAML = `
mesh:
  name: world
  materials:
    - {name: GROUND, texture: GROUND.TGA}
    - {name: EMPTY, texture: ""}
  positions: [[0, 0, 0], [100, 0, 0], [100, 0, 100], [0, 0, 100]]
  features:
    - {texture: [0, 0], normal: [0, 1, 0]}
  polygons:
    - {material: 0, positions: [0, 1, 2, 3], features: [0, 0, 0, 0]}
    - {material: 1, lightmap: 2, positions: [0, 1, 2], features: [0, 0, 0], portal: true}
bsp:
  mode: outdoor
  leaf_polygons: [0, 1, 0]
waynet:
  points:
    - {name: WP_A, position: [0, 0, 0], direction: [0, 0, 1]}
    - {name: WP_B, position: [300, 0, 400], direction: [0, 0, 1]}
  edges:
    - {a: 0, b: 1}
vobs:
  - type: oCItem
    name: ITFO_APPLE
    instance: ITFO_APPLE
    position: [10, 20, 30]
    children:
      - {type: zCVob, name: CHILD, show_visual: true, visual: {type: mrm, name: CHILD.3DS}}
`

func TestDecodeWorld(t *testing.T) {
	var w World
	if err := (YAMLCodec{}).Decode(strings.NewReader(worldYAML), &w); err != nil {
		t.Fatal(err)
	}
	if len(w.Mesh.Materials) != 2 || w.Mesh.Materials[0].Texture != "GROUND.TGA" {
		t.Error("materials:", w.Mesh.Materials)
	}
	if w.Mesh.Materials[1].HasTexture() {
		t.Error("empty texture should not count")
	}
	if p := w.Mesh.Polygons[0]; p.LightMapIndex != -1 || len(p.PositionIndices) != 4 {
		t.Error("polygon 0:", p)
	}
	if p := w.Mesh.Polygons[1]; p.LightMapIndex != 2 || !p.IsPortal {
		t.Error("polygon 1:", p)
	}
	if len(w.BspTree.LeafPolygonIndices) != 3 || w.BspTree.Mode != BspOutdoor {
		t.Error("bsp:", w.BspTree)
	}
	if len(w.WayNet.Edges) != 1 || w.WayNet.Points[1].Position != (Vec3{300, 0, 400}) {
		t.Error("waynet:", w.WayNet)
	}
	if len(w.RootObjects) != 1 || w.RootObjects[0].Rotation != [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1} {
		t.Error("vob rotation should default to identity")
	}

	var names []string
	w.RootObjects[0].Walk(func(v *Vob) { names = append(names, v.Name) })
	if strings.Join(names, ",") != "ITFO_APPLE,CHILD" {
		t.Error("walk order:", names)
	}
}

func TestDecodeHierarchyDefaults(t *testing.T) {
	var h ModelHierarchy
	src := `
nodes:
  - {name: BIP01}
  - {name: BIP01 SPINE, parent: 0}
root_translation: [0, 90, 0]
`
	if err := (YAMLCodec{}).Decode(strings.NewReader(src), &h); err != nil {
		t.Fatal(err)
	}
	if h.Nodes[0].Parent != -1 || h.Nodes[1].Parent != 0 {
		t.Error("parents:", h.Nodes[0].Parent, h.Nodes[1].Parent)
	}
	if h.Nodes[0].Transform[0] != 1 || h.Nodes[0].Transform[15] != 1 {
		t.Error("transform should default to identity", h.Nodes[0].Transform)
	}
	if h.NodeIndex("BIP01 SPINE") != 1 || h.NodeIndex("NONE") != -1 {
		t.Error("NodeIndex")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	mrm := &MultiResolutionMesh{
		Positions: []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		SubMeshes: []*SubMesh{{
			Material:  Material{Name: "M", Texture: "M.TGA"},
			Wedges:    []Wedge{{Index: 0}, {Index: 1}, {Index: 2}},
			Triangles: []Triangle{{Wedges: [3]int{0, 1, 2}}},
		}},
	}
	var buf bytes.Buffer
	codec := YAMLCodec{Strict: true}
	if err := codec.Encode(&buf, mrm); err != nil {
		t.Fatal(err)
	}
	var out MultiResolutionMesh
	if err := codec.Decode(&buf, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.SubMeshes) != 1 || out.SubMeshes[0].Triangles[0].Wedges != [3]int{0, 1, 2} {
		t.Error("decoded:", out.SubMeshes)
	}
}

func TestDecodeEmpty(t *testing.T) {
	var w World
	if err := (YAMLCodec{}).Decode(strings.NewReader(""), &w); err == nil {
		t.Error("empty input should fail")
	}
}
