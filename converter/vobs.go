package converter

import (
	"context"
	"fmt"

	"github.com/binzume/zenconv/geom"
	"github.com/binzume/zenconv/logger"
	"github.com/binzume/zenconv/mesh"
	"github.com/binzume/zenconv/scene"
	"github.com/binzume/zenconv/zen"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NonTeleportTypes are placed under the non-teleport root. Everything else goes under the teleport root.
var NonTeleportTypes = map[zen.VobType]bool{
	zen.VobTypeItem:             true,
	zen.VobTypeMobLadder:        true,
	zen.VobTypeZoneMusic:        true,
	zen.VobTypeZoneMusicDefault: true,
	zen.VobTypeSound:            true,
	zen.VobTypeSoundDaytime:     true,
}

// defaultMeshTypes resolve their geometry from the visual or object name.
var defaultMeshTypes = map[zen.VobType]bool{
	zen.VobTypeMobContainer: true,
	zen.VobTypeMobFire:      true,
	zen.VobTypeMobInter:     true,
	zen.VobTypeMobDoor:      true,
	zen.VobTypeMobSwitch:    true,
	zen.VobTypeMob:          true,
	zen.VobTypeStair:        true,
	zen.VobTypeMobBed:       true,
	zen.VobTypeMobWheel:     true,
}

type VobStats struct {
	Created     int
	Skipped     int
	Unsupported int
	Failed      int
}

// VobImporter converts placed world objects in batches.
type VobImporter struct {
	Teleport    *scene.Node
	NonTeleport *scene.Node
	Stats       VobStats

	session     *Session
	queue       []*zen.Vob
	next        int
	groups      map[*scene.Node]map[zen.VobType]*scene.Node
	unsupported map[string]bool
}

// NewVobImporter flattens vobs depth-first, parents before children.
func NewVobImporter(s *Session, vobs []*zen.Vob) *VobImporter {
	var queue []*zen.Vob
	for _, v := range vobs {
		v.Walk(func(v *zen.Vob) { queue = append(queue, v) })
	}
	return &VobImporter{
		Teleport:    scene.NewNode("Vobs"),
		NonTeleport: scene.NewNode("Vobs"),
		session:     s,
		queue:       queue,
		groups:      map[*scene.Node]map[zen.VobType]*scene.Node{},
		unsupported: map[string]bool{},
	}
}

func (v *VobImporter) Remaining() int {
	return len(v.queue) - v.next
}

// ProcessBatch imports at most n objects and returns the number still queued.
func (v *VobImporter) ProcessBatch(n int) int {
	for ; n > 0 && v.next < len(v.queue); n-- {
		vob := v.queue[v.next]
		v.next++
		node, err := v.importVob(vob)
		if err != nil {
			v.Stats.Failed++
			logger.Warn("failed to import object", zap.String("type", string(vob.Type)),
				zap.String("name", vob.Name), zap.Error(err))
			continue
		}
		if node == nil {
			v.Stats.Skipped++
			continue
		}
		v.Stats.Created++
	}
	return v.Remaining()
}

// Run processes batches until the queue is empty. ctx is checked between batches.
func (v *VobImporter) Run(ctx context.Context, batchSize int, yield func(remaining int)) error {
	if batchSize <= 0 {
		batchSize = len(v.queue) + 1
	}
	for v.Remaining() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := v.ProcessBatch(batchSize)
		if yield != nil {
			yield(remaining)
		}
	}
	return nil
}

func (v *VobImporter) importVob(vob *zen.Vob) (*scene.Node, error) {
	switch {
	case vob.Type == zen.VobTypeItem:
		return v.item(vob)
	case vob.Type == zen.VobTypeLight:
		return v.light(vob), nil
	case vob.Type == zen.VobTypeMobLadder:
		return v.defaultMesh(vob)
	case defaultMeshTypes[vob.Type]:
		return v.defaultMesh(vob)
	case vob.Type == zen.VobTypeVob:
		if vob.Visual == nil {
			return nil, nil
		}
		switch vob.Visual.Type {
		case zen.VisualDecal, zen.VisualParticleEffect:
			v.skipUnsupported("visual " + string(vob.Visual.Type))
			return nil, nil
		}
		return v.defaultMesh(vob)
	}
	v.skipUnsupported(string(vob.Type))
	return nil, nil
}

func (v *VobImporter) skipUnsupported(category string) {
	v.Stats.Unsupported++
	if v.unsupported[category] {
		return
	}
	v.unsupported[category] = true
	logger.Info("skipping unsupported objects", zap.String("category", category))
}

// group returns the per-type container node, created on first use.
func (v *VobImporter) group(t zen.VobType) *scene.Node {
	root := v.Teleport
	if NonTeleportTypes[t] {
		root = v.NonTeleport
	}
	groups := v.groups[root]
	if groups == nil {
		groups = map[zen.VobType]*scene.Node{}
		v.groups[root] = groups
	}
	g := groups[t]
	if g == nil {
		g = root.AddChild(scene.NewNode(string(t)))
		groups[t] = g
	}
	return g
}

func (v *VobImporter) newNode(vob *zen.Vob, name string) *scene.Node {
	node := scene.NewNode(name)
	node.Translation = *geom.NewVector3FromArray(mesh.ToMeters(vob.Position))
	_, rot, _ := geom.NewMatrix4FromRotation3(vob.Rotation).Decompose()
	node.Rotation = *rot
	node.SetExtra("vob_type", string(vob.Type))
	if vob.Name != "" {
		node.SetExtra("vob_name", vob.Name)
	}
	return node
}

func (v *VobImporter) item(vob *zen.Vob) (*scene.Node, error) {
	name := vob.Instance
	if name == "" {
		name = vob.Name
	}
	if name == "" {
		return nil, errors.New("item has no instance name")
	}
	item, err := v.session.Resolver.Item(name)
	if err != nil {
		return nil, err
	}
	mrm, err := v.session.Resolver.MultiResolutionMesh(item.Visual)
	if err != nil {
		return nil, errors.Wrapf(err, "item %s", item.Name)
	}
	sets, err := BuildRigidMesh(mrm)
	if err == mesh.ErrNoGeometry {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "item %s", item.Name)
	}
	node := v.newNode(vob, item.Visual)
	node.Meshes = sets
	node.SetExtra("instance", item.Name)
	v.group(vob.Type).AddChild(node)
	return node, nil
}

// light keeps dynamic lights as empty nodes. Static lights are baked into the world.
func (v *VobImporter) light(vob *zen.Vob) *scene.Node {
	if vob.LightStatic {
		return nil
	}
	node := v.newNode(vob, fmt.Sprintf("%s Light %s", vob.LightType, vob.Name))
	node.SetExtra("light_type", vob.LightType)
	v.group(vob.Type).AddChild(node)
	return node
}

// meshName is the visual name when the visual is shown, the object name otherwise.
func meshName(vob *zen.Vob) string {
	if vob.ShowVisual && vob.Visual != nil {
		return vob.Visual.Name
	}
	return vob.Name
}

func (v *VobImporter) defaultMesh(vob *zen.Vob) (*scene.Node, error) {
	name := meshName(vob)
	if name == "" {
		return nil, nil
	}
	node := v.newNode(vob, name)
	ok, err := v.session.attachVisual(name, node)
	if err != nil || !ok {
		return nil, err
	}
	if vob.CdDynamic {
		node.SetExtra("collision", true)
	}
	v.group(vob.Type).AddChild(node)
	return node, nil
}
