// Package config holds the import settings.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate. It aborts an import before any asset is read.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Data    DataConfig    `yaml:"data"`
	World   WorldConfig   `yaml:"world"`
	Import  ImportConfig  `yaml:"import"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the game installation.
type DataConfig struct {
	GameDir string `yaml:"game_dir"`
	// Archive patterns are mounted in order, relative to <game_dir>/Data.
	Archives []string `yaml:"archives"`
	// Extra directories mounted after the archives (e.g. unpacked _work data).
	Directories []string `yaml:"directories"`
}

type WorldConfig struct {
	Name         string `yaml:"name"`
	SkipPortals  bool   `yaml:"skip_portals"`
	ImportVobs   bool   `yaml:"import_vobs"`
	ImportWaynet bool   `yaml:"import_waynet"`
}

type ImportConfig struct {
	MeshesPerBatch    int  `yaml:"meshes_per_batch"`
	VobsPerBatch      int  `yaml:"vobs_per_batch"`
	FixArmorPositions bool `yaml:"fix_armor_positions"`
}

type OutputConfig struct {
	Path                   string  `yaml:"path"`
	TextureFormat          string  `yaml:"texture_format"` // png, jpeg or webp
	TextureResolutionLimit int     `yaml:"texture_resolution_limit"`
	Unlit                  bool    `yaml:"unlit"`
	AlphaCutoff            float32 `yaml:"alpha_cutoff"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

func Default() *Config {
	return &Config{
		Data: DataConfig{
			Archives: []string{"*.vdf", "*.mod"},
		},
		World: WorldConfig{
			SkipPortals:  true,
			ImportVobs:   true,
			ImportWaynet: true,
		},
		Import: ImportConfig{
			MeshesPerBatch: 100,
			VobsPerBatch:   100,
		},
		Output: OutputConfig{
			TextureFormat: "png",
			AlphaCutoff:   0.5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading config from %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// SaveTo writes the config to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks settings that make an import impossible.
func (c *Config) Validate() error {
	if c.Data.GameDir == "" {
		return errors.Wrap(ErrInvalidConfig, "data.game_dir is required")
	}
	if st, err := os.Stat(c.Data.GameDir); err != nil || !st.IsDir() {
		return errors.Wrapf(ErrInvalidConfig, "game directory %q not found", c.Data.GameDir)
	}
	if c.Import.MeshesPerBatch <= 0 || c.Import.VobsPerBatch <= 0 {
		return errors.Wrap(ErrInvalidConfig, "batch sizes must be positive")
	}
	switch c.Output.TextureFormat {
	case "png", "jpeg", "webp":
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown texture format %q", c.Output.TextureFormat)
	}
	return nil
}

// DataDir is the directory holding the game's archives.
func (c *Config) DataDir() string {
	return filepath.Join(c.Data.GameDir, "Data")
}
