package converter

import (
	"fmt"
	"sort"

	"github.com/binzume/zenconv/geom"
	"github.com/binzume/zenconv/mesh"
	"github.com/binzume/zenconv/scene"
	"github.com/binzume/zenconv/zen"
	"github.com/pkg/errors"
)

// ErrBoneNotFound is returned when an attachment names a node missing from the hierarchy.
var ErrBoneNotFound = errors.New("bone not found")

// SharedAnchorNames are hierarchy nodes reused when a node of the same name already exists under the root.
var SharedAnchorNames = map[string]bool{
	"BIP01": true,
}

// ModelAssembler builds the bone tree and skinned parts of a model under a root node.
type ModelAssembler struct {
	// AttachmentFilter excludes attachments when it returns false.
	AttachmentFilter func(name string) bool
}

type modelPart struct {
	name  string
	sets  []*mesh.BufferSet
	nodes []int
}

// Assemble returns the buffer sets keyed by part or bone name.
// skipped is true when nothing renderable exists; root is not modified in that case.
func (a *ModelAssembler) Assemble(mdm *zen.ModelMesh, mdh *zen.ModelHierarchy, root *scene.Node) (map[string][]*mesh.BufferSet, bool, error) {
	if mdm == nil || mdh == nil {
		return nil, true, nil
	}
	if err := checkParents(mdh); err != nil {
		return nil, false, err
	}

	var parts []*modelPart
	for i, ssm := range mdm.Meshes {
		if ssm == nil {
			return nil, false, errors.Wrapf(mesh.ErrCorrupt, "soft skin mesh %d is empty", i)
		}
		b := mesh.NewSkinnedStreamBuilder(ssm.Weights, ssm.Nodes)
		sets, err := b.BuildMesh(&ssm.Mesh)
		if err == mesh.ErrNoGeometry {
			continue
		} else if err != nil {
			return nil, false, errors.Wrapf(err, "soft skin mesh %d", i)
		}
		for _, n := range ssm.Nodes {
			if n < 0 || n >= len(mdh.Nodes) {
				return nil, false, errors.Wrapf(&mesh.IndexError{What: "hierarchy node", Index: n, Len: len(mdh.Nodes)}, "soft skin mesh %d", i)
			}
		}
		parts = append(parts, &modelPart{name: fmt.Sprintf("part_%d", len(parts)), sets: sets, nodes: ssm.Nodes})
	}

	var attachments []*modelPart
	for _, name := range sortedKeys(mdm.Attachments) {
		if a.AttachmentFilter != nil && !a.AttachmentFilter(name) {
			continue
		}
		sets, err := BuildRigidMesh(mdm.Attachments[name])
		if err == mesh.ErrNoGeometry {
			continue
		} else if err != nil {
			return nil, false, errors.Wrapf(err, "attachment %s", name)
		}
		if mdh.NodeIndex(name) < 0 {
			return nil, false, errors.Wrapf(ErrBoneNotFound, "attachment %s", name)
		}
		attachments = append(attachments, &modelPart{name: name, sets: sets})
	}

	if len(parts) == 0 && len(attachments) == 0 {
		return nil, true, nil
	}

	bones, err := buildBones(mdh, root)
	if err != nil {
		return nil, false, err
	}

	result := map[string][]*mesh.BufferSet{}
	for _, p := range parts {
		node := root.AddChild(scene.NewNode(p.name))
		node.Meshes = p.sets
		skin := &scene.Skin{}
		for _, n := range p.nodes {
			joint := bones[n]
			skin.Joints = append(skin.Joints, joint)
			skin.InverseBindMatrices = append(skin.InverseBindMatrices, joint.MatrixRelativeTo(root).Inverse())
		}
		node.Skin = skin
		result[p.name] = p.sets
	}
	for _, p := range attachments {
		bone := bones[mdh.NodeIndex(p.name)]
		bone.Meshes = append(bone.Meshes, p.sets...)
		result[p.name] = p.sets
	}
	return result, false, nil
}

// buildBones creates one node per hierarchy entry, parented by index.
// The parent indices must have passed checkParents.
func buildBones(mdh *zen.ModelHierarchy, root *scene.Node) ([]*scene.Node, error) {
	bones := make([]*scene.Node, len(mdh.Nodes))
	reused := make([]bool, len(mdh.Nodes))
	for i, n := range mdh.Nodes {
		if SharedAnchorNames[n.Name] {
			if existing := root.Find(n.Name); existing != nil && existing != root {
				bones[i] = existing
				reused[i] = true
			}
		}
		if bones[i] == nil {
			bones[i] = scene.NewNode(n.Name)
		}
	}
	for i, n := range mdh.Nodes {
		bone := bones[i]
		setBoneTransform(bone, &n.Transform)
		if reused[i] {
			continue
		}
		if n.Parent == -1 {
			root.AddChild(bone)
		} else {
			bones[n.Parent].AddChild(bone)
		}
	}
	// applied after parenting so the local translation is not counted twice
	rootTranslation := mesh.ToMeters(mdh.RootTranslation)
	for i, n := range mdh.Nodes {
		if n.Parent == -1 {
			bones[i].Translation = *geom.NewVector3FromArray(rootTranslation)
		}
	}
	return bones, nil
}

// checkParents rejects parent indices outside the hierarchy and parent cycles.
// Parents may be listed after their children.
func checkParents(mdh *zen.ModelHierarchy) error {
	for i, n := range mdh.Nodes {
		if n == nil {
			return errors.Wrapf(mesh.ErrCorrupt, "hierarchy node %d is empty", i)
		}
		if n.Parent < -1 || n.Parent >= len(mdh.Nodes) {
			return &mesh.IndexError{What: "parent", Index: n.Parent, Len: len(mdh.Nodes)}
		}
	}
	for i := range mdh.Nodes {
		p := mdh.Nodes[i].Parent
		for steps := 0; p != -1; steps++ {
			if p == i || steps >= len(mdh.Nodes) {
				return errors.Wrapf(mesh.ErrCorrupt, "parent cycle at node %s", mdh.Nodes[i].Name)
			}
			p = mdh.Nodes[p].Parent
		}
	}
	return nil
}

func setBoneTransform(node *scene.Node, m *geom.Matrix4) {
	node.SetMatrix(m)
	node.Translation = *geom.NewVector3FromArray(mesh.ToMeters(node.Translation.Array()))
}

// BuildRigidMesh converts a standalone multi-resolution mesh.
func BuildRigidMesh(mrm *zen.MultiResolutionMesh) ([]*mesh.BufferSet, error) {
	return mesh.NewStreamBuilder(mesh.RigidModel).BuildMesh(mrm)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
