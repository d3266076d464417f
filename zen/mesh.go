package zen

import "github.com/binzume/zenconv/geom"

type Material struct {
	Name             string   `yaml:"name"`
	Group            string   `yaml:"group,omitempty"`
	Texture          string   `yaml:"texture"`
	Color            [4]uint8 `yaml:"color,omitempty"`
	AlphaFunc        string   `yaml:"alpha_func,omitempty"`
	DisableCollision bool     `yaml:"disable_collision,omitempty"`
}

// HasTexture reports whether the material can produce geometry.
func (m *Material) HasTexture() bool {
	return m != nil && m.Texture != ""
}

// Wedge binds a shared position to a per-corner normal and texture coordinate.
type Wedge struct {
	Normal  Vec3 `yaml:"normal"`
	Texture Vec2 `yaml:"texture"`
	Index   int  `yaml:"index"`
}

// Triangle holds three wedge indices.
type Triangle struct {
	Wedges [3]int `yaml:"wedges"`
}

type SubMesh struct {
	Material  Material   `yaml:"material"`
	Triangles []Triangle `yaml:"triangles"`
	Wedges    []Wedge    `yaml:"wedges"`
}

// MultiResolutionMesh is the MRM format. Submeshes share Positions.
type MultiResolutionMesh struct {
	Positions []Vec3     `yaml:"positions"`
	SubMeshes []*SubMesh `yaml:"submeshes"`
	AlphaTest bool       `yaml:"alpha_test,omitempty"`
}

// Materials returns the submesh materials in order.
func (m *MultiResolutionMesh) Materials() []*Material {
	var mats []*Material
	for _, s := range m.SubMeshes {
		mats = append(mats, &s.Material)
	}
	return mats
}

// SoftSkinWeight binds a position to one hierarchy node. Node is a hierarchy node index.
type SoftSkinWeight struct {
	Weight   float32 `yaml:"weight"`
	Position Vec3    `yaml:"position,omitempty"`
	Node     int     `yaml:"node"`
}

// SoftSkinMesh is one skinned part of a model mesh.
// Weights is indexed by position; Nodes lists the hierarchy nodes the part references.
type SoftSkinMesh struct {
	Mesh    MultiResolutionMesh `yaml:"mesh"`
	Weights [][]SoftSkinWeight  `yaml:"weights"`
	Nodes   []int               `yaml:"nodes"`
}

// ModelMesh is the MDM format.
type ModelMesh struct {
	Meshes      []*SoftSkinMesh                 `yaml:"meshes"`
	Attachments map[string]*MultiResolutionMesh `yaml:"attachments"`
	Checksum    uint32                          `yaml:"checksum,omitempty"`
}

type ModelHierarchyNode struct {
	Name      string       `yaml:"name"`
	Parent    int          `yaml:"parent"`
	Transform geom.Matrix4 `yaml:"transform"`
}

// UnmarshalYAML defaults to a root node with an identity transform.
func (n *ModelHierarchyNode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain ModelHierarchyNode
	v := plain{Parent: -1, Transform: *geom.NewMatrix4()}
	if err := unmarshal(&v); err != nil {
		return err
	}
	*n = ModelHierarchyNode(v)
	return nil
}

// ModelHierarchy is the MDH format.
type ModelHierarchy struct {
	Nodes           []*ModelHierarchyNode `yaml:"nodes"`
	RootTranslation Vec3                  `yaml:"root_translation"`
	Checksum        uint32                `yaml:"checksum,omitempty"`
}

// NodeIndex returns the index of the node with the given name, or -1.
func (h *ModelHierarchy) NodeIndex(name string) int {
	for i, n := range h.Nodes {
		if n.Name == name {
			return i
		}
	}
	return -1
}

// Model is the MDL format: a hierarchy and its mesh in one file.
type Model struct {
	Hierarchy ModelHierarchy `yaml:"hierarchy"`
	Mesh      ModelMesh      `yaml:"mesh"`
}

// Mesh is the MSH format and the world mesh. Polygons index Positions and Features directly.
type Mesh struct {
	Name      string      `yaml:"name"`
	Materials []*Material `yaml:"materials"`
	Positions []Vec3      `yaml:"positions"`
	Features  []Feature   `yaml:"features"`
	Polygons  []*Polygon  `yaml:"polygons"`
	LightMaps []*LightMap `yaml:"lightmaps,omitempty"`
}

// Feature is a per-corner vertex attribute of a polygon.
type Feature struct {
	Texture Vec2   `yaml:"texture"`
	Light   uint32 `yaml:"light,omitempty"`
	Normal  Vec3   `yaml:"normal"`
}

type Polygon struct {
	MaterialIndex   int   `yaml:"material"`
	LightMapIndex   int   `yaml:"lightmap"`
	PositionIndices []int `yaml:"positions"`
	FeatureIndices  []int `yaml:"features"`
	IsPortal        bool  `yaml:"portal,omitempty"`
	IsOccluder      bool  `yaml:"occluder,omitempty"`
	IsLod           bool  `yaml:"lod,omitempty"`
}

// UnmarshalYAML defaults to a polygon without a lightmap.
func (p *Polygon) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain Polygon
	v := plain{LightMapIndex: -1}
	if err := unmarshal(&v); err != nil {
		return err
	}
	*p = Polygon(v)
	return nil
}

type LightMap struct {
	Image   string  `yaml:"image"`
	Origin  Vec3    `yaml:"origin"`
	Normals [2]Vec3 `yaml:"normals"`
}

// MorphMesh is the MMB format.
type MorphMesh struct {
	Name      string              `yaml:"name"`
	Mesh      MultiResolutionMesh `yaml:"mesh"`
	Morphs    []MorphAnimation    `yaml:"morphs"`
	Sources   []string            `yaml:"sources,omitempty"`
	Positions []Vec3              `yaml:"positions,omitempty"`
}

type MorphAnimation struct {
	Name       string  `yaml:"name"`
	Layer      int     `yaml:"layer"`
	BlendIn    float32 `yaml:"blend_in"`
	BlendOut   float32 `yaml:"blend_out"`
	Duration   float32 `yaml:"duration"`
	Speed      float32 `yaml:"speed"`
	FrameCount int     `yaml:"frame_count"`
	Vertices   []int   `yaml:"vertices"`
	Samples    []Vec3  `yaml:"samples"`
}

// ModelAnimation is the MAN format.
type ModelAnimation struct {
	Name        string            `yaml:"name"`
	Next        string            `yaml:"next,omitempty"`
	Layer       int               `yaml:"layer"`
	FrameCount  int               `yaml:"frame_count"`
	FPS         float32           `yaml:"fps"`
	NodeIndices []int             `yaml:"node_indices"`
	Samples     []AnimationSample `yaml:"samples"`
	Checksum    uint32            `yaml:"checksum,omitempty"`
}

type AnimationSample struct {
	Position Vec3       `yaml:"position"`
	Rotation [4]float32 `yaml:"rotation"`
}

// ModelScript is the MDS format.
type ModelScript struct {
	Skeleton   string            `yaml:"skeleton"`
	Meshes     []string          `yaml:"meshes,omitempty"`
	Animations []ScriptAnimation `yaml:"animations,omitempty"`
}

type ScriptAnimation struct {
	Name  string `yaml:"name"`
	Layer int    `yaml:"layer"`
	Next  string `yaml:"next,omitempty"`
	Model string `yaml:"model,omitempty"`
}
