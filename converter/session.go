package converter

import (
	"context"

	"github.com/binzume/zenconv/assets"
	"github.com/binzume/zenconv/config"
	"github.com/binzume/zenconv/geom"
	"github.com/binzume/zenconv/logger"
	"github.com/binzume/zenconv/mesh"
	"github.com/binzume/zenconv/scene"
	"github.com/binzume/zenconv/vfs"
	"github.com/binzume/zenconv/waynet"
	"github.com/binzume/zenconv/zen"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Session owns the asset caches of one import. It is not safe for concurrent use.
type Session struct {
	Config   *config.Config
	Resolver *assets.Resolver
	Models   ModelAssembler

	fs *vfs.Vfs
}

func NewSession(cfg *config.Config, store assets.Store) *Session {
	r := assets.NewResolver(store, nil)
	r.FixArmorPositions = cfg.Import.FixArmorPositions
	return &Session{Config: cfg, Resolver: r}
}

// OpenSession validates cfg and mounts the game archives. Later archives win when newer.
func OpenSession(cfg *config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fs := vfs.New()
	for _, pattern := range cfg.Data.Archives {
		n, err := fs.MountGlob(cfg.DataDir(), pattern, vfs.OverwriteOlder)
		if err != nil {
			fs.Close()
			return nil, errors.Wrap(config.ErrInvalidConfig, err.Error())
		}
		logger.Info("mounted archives", zap.String("pattern", pattern), zap.Int("count", n))
	}
	for _, dir := range cfg.Data.Directories {
		if err := fs.MountDisk(dir, vfs.OverwriteAll); err != nil {
			fs.Close()
			return nil, errors.Wrap(config.ErrInvalidConfig, err.Error())
		}
	}
	s := NewSession(cfg, fs)
	s.fs = fs
	return s, nil
}

// Close drops every cached asset and releases mounted archives.
func (s *Session) Close() error {
	s.Resolver.Reset()
	if s.fs != nil {
		return s.fs.Close()
	}
	return nil
}

// ImportWorld converts a world. A missing world or corrupt world mesh aborts the import;
// failures of single objects are logged.
func (s *Session) ImportWorld(ctx context.Context, name string) (*scene.Node, *waynet.Graph, error) {
	if name == "" {
		return nil, nil, errors.Wrap(config.ErrInvalidConfig, "world name is required")
	}
	w, err := s.Resolver.World(name)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "world %s", name)
	}
	root := scene.NewNode(name)

	if err := s.importWorldMesh(ctx, w, root.AddChild(scene.NewNode("Mesh"))); err != nil {
		return nil, nil, err
	}

	if s.Config.World.ImportVobs {
		imp := NewVobImporter(s, w.RootObjects)
		root.AddChild(scene.NewNode("Teleport")).AddChild(imp.Teleport)
		root.AddChild(scene.NewNode("NonTeleport")).AddChild(imp.NonTeleport)
		err := imp.Run(ctx, s.Config.Import.VobsPerBatch, func(remaining int) {
			logger.Debug("object batch done", zap.Int("remaining", remaining))
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("imported objects", zap.Int("created", imp.Stats.Created), zap.Int("skipped", imp.Stats.Skipped),
			zap.Int("unsupported", imp.Stats.Unsupported), zap.Int("failed", imp.Stats.Failed))
	}

	var graph *waynet.Graph
	if s.Config.World.ImportWaynet {
		graph = importWaynet(&w.WayNet, root.AddChild(scene.NewNode("WayNet")))
	}
	return root, graph, nil
}

func (s *Session) importWorldMesh(ctx context.Context, w *zen.World, parent *scene.Node) error {
	wa := &WorldAssembler{SkipPortals: s.Config.World.SkipPortals}
	sets, err := wa.Assemble(w.Mesh, &w.BspTree)
	if errors.Is(err, mesh.ErrNoGeometry) {
		logger.Warn("world has no renderable geometry")
		return nil
	} else if err != nil {
		return errors.Wrap(err, "world mesh")
	}
	batch := s.Config.Import.MeshesPerBatch
	for i, idx := range MaterialIndices(sets) {
		if batch > 0 && i > 0 && i%batch == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		set := sets[idx]
		node := parent.AddChild(scene.NewNode(set.Material.Name))
		node.Meshes = []*mesh.BufferSet{set}
		if set.LightMap >= 0 {
			node.SetExtra("lightmap", set.LightMap)
		}
	}
	logger.Info("imported world mesh", zap.Int("materials", len(sets)))
	return nil
}

func importWaynet(wn *zen.WayNet, parent *scene.Node) *waynet.Graph {
	points := parent.AddChild(scene.NewNode("Waypoints"))
	for _, p := range wn.Points {
		node := points.AddChild(scene.NewNode(p.Name))
		node.Translation = *geom.NewVector3FromArray(mesh.ToMeters(p.Position))
	}
	graph, err := waynet.Build(wn.Points, wn.Edges)
	if err != nil {
		logger.Warn("invalid way net", zap.Error(err))
		return nil
	}
	logger.Info("built way net", zap.Int("points", graph.Len()), zap.Int("edges", graph.EdgeCount()))
	return graph
}

// ImportModel converts a single MDL, MDH+MDM or MRM asset.
func (s *Session) ImportModel(name string) (*scene.Node, error) {
	root := scene.NewNode(assets.NormalizeKey(name))
	ok, err := s.attachVisual(name, root)
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", name)
	}
	if !ok {
		return nil, errors.Wrapf(mesh.ErrNoGeometry, "model %s", name)
	}
	return root, nil
}

// attachVisual resolves name as MDL, then MDH+MDM, then MRM and adds its geometry to node.
// It returns false when the asset exists but has nothing renderable.
func (s *Session) attachVisual(name string, node *scene.Node) (bool, error) {
	mdl, err := s.Resolver.Model(name)
	if err == nil {
		return s.attachModel(&mdl.Mesh, &mdl.Hierarchy, node)
	} else if !errors.Is(err, assets.ErrMissingAsset) {
		return false, err
	}

	mdh, err := s.Resolver.ModelHierarchy(name)
	if err == nil {
		mdm, err := s.Resolver.ModelMesh(name)
		if err == nil {
			return s.attachModel(mdm, mdh, node)
		} else if !errors.Is(err, assets.ErrMissingAsset) {
			return false, err
		}
	} else if !errors.Is(err, assets.ErrMissingAsset) {
		return false, err
	}

	mrm, err := s.Resolver.MultiResolutionMesh(name)
	if err != nil {
		return false, err
	}
	sets, err := BuildRigidMesh(mrm)
	if err == mesh.ErrNoGeometry {
		return false, nil
	} else if err != nil {
		return false, err
	}
	node.Meshes = sets
	return true, nil
}

func (s *Session) attachModel(mdm *zen.ModelMesh, mdh *zen.ModelHierarchy, node *scene.Node) (bool, error) {
	_, skipped, err := s.Models.Assemble(mdm, mdh, node)
	if err != nil {
		return false, err
	}
	return !skipped, nil
}
