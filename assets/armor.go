package assets

import "github.com/binzume/zenconv/zen"

// ArmorCorrections lists model meshes shipped with misplaced positions and the
// offset (in source units) that puts them back onto the body. The values are
// patch data for these exact assets.
var ArmorCorrections = map[string]zen.Vec3{
	"hum_grds_armor":     {0.5, -0.5, 13},
	"hum_grdm_armor":     {0.5, -0.5, 13},
	"hum_grdl_armor":     {0.5, -0.5, 13},
	"hum_novm_armor":     {0.5, -0.5, 13},
	"hum_tpll_armor":     {0.5, -0.5, 13},
	"hum_body_cooksmith": {0.5, -0.5, 13},
	"hum_vlkl_armor":     {0.5, -0.5, 13},
	"hum_vlkm_armor":     {0.5, -0.5, 13},
	"hum_kdfs_armor":     {0.5, -0.5, 13},
}

func applyArmorCorrection(key string, m *zen.ModelMesh) bool {
	off, ok := ArmorCorrections[key]
	if !ok {
		return false
	}
	for _, s := range m.Meshes {
		for i, p := range s.Mesh.Positions {
			s.Mesh.Positions[i] = zen.Vec3{p[0] + off[0], p[1] + off[1], p[2] + off[2]}
		}
	}
	return true
}
