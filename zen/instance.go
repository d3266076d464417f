package zen

// InstanceTable is the decoded output of a script instance file (items, sounds, particles, music).
type InstanceTable struct {
	Items           []*ItemInstance           `yaml:"items,omitempty"`
	SoundEffects    []*SoundEffectInstance    `yaml:"sfx,omitempty"`
	ParticleEffects []*ParticleEffectInstance `yaml:"pfx,omitempty"`
	MusicThemes     []*MusicThemeInstance     `yaml:"music,omitempty"`
}

type ItemInstance struct {
	Name        string `yaml:"name"`
	Visual      string `yaml:"visual"`
	Description string `yaml:"description,omitempty"`
	Value       int    `yaml:"value,omitempty"`
	Flags       uint32 `yaml:"flags,omitempty"`
}

type SoundEffectInstance struct {
	Name   string  `yaml:"name"`
	File   string  `yaml:"file"`
	Volume float32 `yaml:"volume"`
	Loop   bool    `yaml:"loop,omitempty"`
}

type ParticleEffectInstance struct {
	Name       string  `yaml:"name"`
	VisualName string  `yaml:"visual"`
	PPSValue   float32 `yaml:"pps,omitempty"`
	LifeSpan   float32 `yaml:"lifespan,omitempty"`
}

type MusicThemeInstance struct {
	Name   string  `yaml:"name"`
	File   string  `yaml:"file"`
	Volume float32 `yaml:"volume"`
	Loop   bool    `yaml:"loop,omitempty"`
}
