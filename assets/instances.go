package assets

import (
	"strings"

	"github.com/binzume/zenconv/zen"
	"github.com/pkg/errors"
)

func (r *Resolver) instances(file string) (*zen.InstanceTable, error) {
	return record[zen.InstanceTable](r, kindInstances, file, file, nil)
}

func instance[T any](r *Resolver, k kind, file, name string, list func(t *zen.InstanceTable) []*T, nameOf func(*T) string) (*T, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	v, err := r.lookup(k, key, func() (interface{}, error) {
		t, err := r.instances(file)
		if err != nil {
			return nil, err
		}
		for _, inst := range list(t) {
			if strings.ToLower(nameOf(inst)) == key {
				return inst, nil
			}
		}
		return nil, errors.Wrapf(ErrMissingAsset, "instance %s in %s", name, file)
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// Item returns the item script instance with the given name.
func (r *Resolver) Item(name string) (*zen.ItemInstance, error) {
	return instance(r, kindItem, ItemScript, name,
		func(t *zen.InstanceTable) []*zen.ItemInstance { return t.Items },
		func(i *zen.ItemInstance) string { return i.Name })
}

func (r *Resolver) SoundEffect(name string) (*zen.SoundEffectInstance, error) {
	return instance(r, kindSfx, SfxScript, name,
		func(t *zen.InstanceTable) []*zen.SoundEffectInstance { return t.SoundEffects },
		func(i *zen.SoundEffectInstance) string { return i.Name })
}

func (r *Resolver) ParticleEffect(name string) (*zen.ParticleEffectInstance, error) {
	return instance(r, kindPfx, PfxScript, name,
		func(t *zen.InstanceTable) []*zen.ParticleEffectInstance { return t.ParticleEffects },
		func(i *zen.ParticleEffectInstance) string { return i.Name })
}

func (r *Resolver) MusicTheme(name string) (*zen.MusicThemeInstance, error) {
	return instance(r, kindMusic, MusicScript, name,
		func(t *zen.InstanceTable) []*zen.MusicThemeInstance { return t.MusicThemes },
		func(i *zen.MusicThemeInstance) string { return i.Name })
}
