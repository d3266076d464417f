// Package assets resolves asset keys to decoded records and caches the results.
package assets

import (
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/binzume/zenconv/logger"
	"github.com/binzume/zenconv/zen"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrMissingAsset is returned when no file for a key exists in the store.
var ErrMissingAsset = errors.New("missing asset")

// Store is the backing file namespace. *vfs.Vfs implements it.
// Open must return an error matching fs.ErrNotExist for unknown names.
type Store interface {
	Open(name string) (io.ReadCloser, error)
}

type Stats struct {
	Loads  int // files read from the store
	Hits   int
	Misses int
}

type kind string

const (
	kindTexture   kind = "texture"
	kindWorld     kind = "zen"
	kindMesh      kind = "msh"
	kindMRM       kind = "mrm"
	kindMDH       kind = "mdh"
	kindMDM       kind = "mdm"
	kindMDL       kind = "mdl"
	kindAnimation kind = "man"
	kindScript    kind = "mds"
	kindMorph     kind = "mmb"
	kindInstances kind = "instances"
	kindItem      kind = "item"
	kindSfx       kind = "sfx"
	kindPfx       kind = "pfx"
	kindMusic     kind = "music"
)

// Instance tables, decoded with the codec.
const (
	ItemScript  = "gothic.dat"
	SfxScript   = "sfx.dat"
	PfxScript   = "pfx.dat"
	MusicScript = "music.dat"
)

// cached holds a decoded value or the error of the first attempt.
type cached struct {
	value interface{}
	err   error
}

// Resolver loads records lazily and keeps them for the lifetime of an import.
// It is not safe for concurrent use.
type Resolver struct {
	store Store
	codec zen.Codec

	// FixArmorPositions applies ArmorCorrections to model meshes.
	FixArmorPositions bool

	caches map[kind]map[string]*cached
	stats  Stats
}

func NewResolver(store Store, codec zen.Codec) *Resolver {
	if codec == nil {
		codec = zen.YAMLCodec{}
	}
	return &Resolver{store: store, codec: codec, caches: map[kind]map[string]*cached{}}
}

// NormalizeKey lower-cases a key and strips its extension.
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if ext := path.Ext(key); ext != "" && !strings.ContainsAny(ext, "/\\ ") {
		key = key[:len(key)-len(ext)]
	}
	return key
}

func (r *Resolver) Stats() Stats {
	return r.stats
}

// Reset drops every cached record.
func (r *Resolver) Reset() {
	r.caches = map[kind]map[string]*cached{}
	r.stats = Stats{}
}

func (r *Resolver) lookup(k kind, key string, load func() (interface{}, error)) (interface{}, error) {
	c := r.caches[k]
	if c == nil {
		c = map[string]*cached{}
		r.caches[k] = c
	}
	if e, ok := c[key]; ok {
		r.stats.Hits++
		return e.value, e.err
	}
	r.stats.Misses++
	v, err := load()
	if err != nil && !errors.Is(err, ErrMissingAsset) {
		logger.Warn("asset load failed", zap.String("kind", string(k)), zap.String("key", key), zap.Error(err))
	}
	c[key] = &cached{value: v, err: err}
	return v, err
}

// open tries each name in order and returns the first one present in the store.
func (r *Resolver) open(names ...string) (io.ReadCloser, string, error) {
	for _, name := range names {
		f, err := r.store.Open(name)
		if err == nil {
			r.stats.Loads++
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, name, errors.Wrapf(err, "open %s", name)
		}
	}
	return nil, "", errors.Wrapf(ErrMissingAsset, "%s", strings.Join(names, ", "))
}

func (r *Resolver) decodeFile(name string, v interface{}) error {
	f, _, err := r.open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := r.codec.Decode(f, v); err != nil {
		return errors.Wrapf(err, "decode %s", name)
	}
	return nil
}

func record[T any](r *Resolver, k kind, key, file string, post func(v *T)) (*T, error) {
	v, err := r.lookup(k, key, func() (interface{}, error) {
		rec := new(T)
		if err := r.decodeFile(file, rec); err != nil {
			return nil, err
		}
		if post != nil {
			post(rec)
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// World loads a .zen world.
func (r *Resolver) World(name string) (*zen.World, error) {
	key := NormalizeKey(name)
	return record[zen.World](r, kindWorld, key, key+".zen", nil)
}

// Mesh loads a static .msh mesh.
func (r *Resolver) Mesh(name string) (*zen.Mesh, error) {
	key := NormalizeKey(name)
	return record[zen.Mesh](r, kindMesh, key, key+".msh", nil)
}

func (r *Resolver) MultiResolutionMesh(name string) (*zen.MultiResolutionMesh, error) {
	key := NormalizeKey(name)
	return record[zen.MultiResolutionMesh](r, kindMRM, key, key+".mrm", nil)
}

func (r *Resolver) ModelHierarchy(name string) (*zen.ModelHierarchy, error) {
	key := NormalizeKey(name)
	return record[zen.ModelHierarchy](r, kindMDH, key, key+".mdh", nil)
}

// ModelMesh loads a .mdm and applies the armor correction if enabled.
func (r *Resolver) ModelMesh(name string) (*zen.ModelMesh, error) {
	key := NormalizeKey(name)
	return record(r, kindMDM, key, key+".mdm", func(m *zen.ModelMesh) {
		if r.FixArmorPositions {
			applyArmorCorrection(key, m)
		}
	})
}

func (r *Resolver) Model(name string) (*zen.Model, error) {
	key := NormalizeKey(name)
	return record[zen.Model](r, kindMDL, key, key+".mdl", nil)
}

// ModelAnimation loads "<mds>-<anim>.man".
func (r *Resolver) ModelAnimation(mds, anim string) (*zen.ModelAnimation, error) {
	key := NormalizeKey(mds) + "-" + NormalizeKey(anim)
	return record[zen.ModelAnimation](r, kindAnimation, key, key+".man", nil)
}

func (r *Resolver) ModelScript(name string) (*zen.ModelScript, error) {
	key := NormalizeKey(name)
	return record[zen.ModelScript](r, kindScript, key, key+".mds", nil)
}

func (r *Resolver) MorphMesh(name string) (*zen.MorphMesh, error) {
	key := NormalizeKey(name)
	return record[zen.MorphMesh](r, kindMorph, key, key+".mmb", nil)
}
