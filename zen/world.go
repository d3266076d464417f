package zen

// World is the ZEN world archive.
type World struct {
	Mesh        *Mesh   `yaml:"mesh"`
	BspTree     BspTree `yaml:"bsp"`
	WayNet      WayNet  `yaml:"waynet"`
	RootObjects []*Vob  `yaml:"vobs"`
}

type BspTreeMode string

const (
	BspIndoor  BspTreeMode = "indoor"
	BspOutdoor BspTreeMode = "outdoor"
)

// BspTree only keeps what geometry assembly needs. LeafPolygonIndices may repeat a polygon.
type BspTree struct {
	Mode               BspTreeMode `yaml:"mode"`
	PolygonIndices     []int       `yaml:"polygons,omitempty"`
	LeafPolygonIndices []int       `yaml:"leaf_polygons"`
}

type WayPoint struct {
	Name       string `yaml:"name"`
	Position   Vec3   `yaml:"position"`
	Direction  Vec3   `yaml:"direction"`
	WaterDepth int    `yaml:"water_depth,omitempty"`
	UnderWater bool   `yaml:"under_water,omitempty"`
	FreePoint  bool   `yaml:"free_point,omitempty"`
}

// WayEdge connects two waypoints by index. Edges are stored once per pair.
type WayEdge struct {
	A int `yaml:"a"`
	B int `yaml:"b"`
}

type WayNet struct {
	Points []*WayPoint `yaml:"points"`
	Edges  []WayEdge   `yaml:"edges"`
}

type VobType string

const (
	VobTypeVob                 VobType = "zCVob"
	VobTypeLevelCompo          VobType = "zCVobLevelCompo"
	VobTypeItem                VobType = "oCItem"
	VobTypeMob                 VobType = "oCMOB"
	VobTypeMobInter            VobType = "oCMobInter"
	VobTypeMobBed              VobType = "oCMobBed"
	VobTypeMobFire             VobType = "oCMobFire"
	VobTypeMobLadder           VobType = "oCMobLadder"
	VobTypeMobSwitch           VobType = "oCMobSwitch"
	VobTypeMobWheel            VobType = "oCMobWheel"
	VobTypeMobContainer        VobType = "oCMobContainer"
	VobTypeMobDoor             VobType = "oCMobDoor"
	VobTypeStair               VobType = "zCVobStair"
	VobTypeLight               VobType = "zCVobLight"
	VobTypeSound               VobType = "zCVobSound"
	VobTypeSoundDaytime        VobType = "zCVobSoundDaytime"
	VobTypeZoneMusic           VobType = "oCZoneMusic"
	VobTypeZoneMusicDefault    VobType = "oCZoneMusicDefault"
	VobTypeSpot                VobType = "zCVobSpot"
	VobTypeStartpoint          VobType = "zCVobStartpoint"
	VobTypeScreenFX            VobType = "zCVobScreenFX"
	VobTypeAnimate             VobType = "zCVobAnimate"
	VobTypeLensFlare           VobType = "zCVobLensFlare"
	VobTypeTriggerWorldStart   VobType = "zCTriggerWorldStart"
	VobTypeTriggerList         VobType = "zCTriggerList"
	VobTypeTriggerScript       VobType = "oCTriggerScript"
	VobTypeTriggerChangeLevel  VobType = "oCTriggerChangeLevel"
	VobTypeCSTrigger           VobType = "oCCSTrigger"
	VobTypeMover               VobType = "zCMover"
	VobTypeMoverController     VobType = "zCMoverController"
	VobTypePFXController       VobType = "zCPFXController"
	VobTypeZoneFog             VobType = "zCZoneZFog"
	VobTypeZoneFogDefault      VobType = "zCZoneZFogDefault"
	VobTypeZoneFarPlane        VobType = "zCZoneVobFarPlane"
	VobTypeZoneFarPlaneDefault VobType = "zCZoneVobFarPlaneDefault"
)

type VisualType string

const (
	VisualDecal           VisualType = "decal"
	VisualMesh            VisualType = "mesh"
	VisualMultiResolution VisualType = "mrm"
	VisualParticleEffect  VisualType = "pfx"
	VisualAiCamera        VisualType = "camera"
	VisualModel           VisualType = "model"
	VisualMorphMesh       VisualType = "mmb"
)

type Visual struct {
	Type VisualType `yaml:"type"`
	Name string     `yaml:"name"`
}

// Vob is a placed world object. Rotation is a row-major 3x3 matrix.
type Vob struct {
	Type        VobType    `yaml:"type"`
	Name        string     `yaml:"name"`
	Position    Vec3       `yaml:"position"`
	Rotation    [9]float32 `yaml:"rotation"`
	ShowVisual  bool       `yaml:"show_visual"`
	Visual      *Visual    `yaml:"visual,omitempty"`
	CdDynamic   bool       `yaml:"cd_dynamic,omitempty"`
	Instance    string     `yaml:"instance,omitempty"`
	LightStatic bool       `yaml:"light_static,omitempty"`
	LightType   string     `yaml:"light_type,omitempty"`
	Children    []*Vob     `yaml:"children,omitempty"`
}

// UnmarshalYAML defaults to an identity rotation.
func (v *Vob) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain Vob
	p := plain{Rotation: [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}}
	if err := unmarshal(&p); err != nil {
		return err
	}
	*v = Vob(p)
	return nil
}

// Walk visits v and its children depth-first, parents before children.
func (v *Vob) Walk(f func(v *Vob)) {
	f(v)
	for _, c := range v.Children {
		c.Walk(f)
	}
}
