package restir

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-restir/pkg/resample"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the top-level tunable configuration for a resampling
// pipeline: per-pass parameters plus the fixed buffer-geometry knobs
// (neighbor offset count, tile size/count) required at context
// construction.
type Config struct {
	Temporal      resample.TemporalParams      `yaml:"temporal"`
	Spatial       resample.SpatialParams       `yaml:"spatial"`
	Fused         resample.FusedParams         `yaml:"fused"`
	BoilingFilter resample.BoilingFilterParams `yaml:"boilingFilter"`

	NeighborOffsetCount int `yaml:"neighborOffsetCount"`
	TileSize            int `yaml:"tileSize"`
	TileCount           int `yaml:"tileCount"`
}

// DefaultConfig loads the embedded defaults.yaml.
func DefaultConfig() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return Config{}, err
	}
	// defaults.yaml's fused block only names totalSampleCount; its
	// temporal/spatial neighbor-search parameters are the same knobs
	// used by the pure temporal/spatial passes, so they default from
	// the top-level blocks rather than being duplicated in the file.
	cfg.Fused.Temporal = cfg.Temporal
	cfg.Fused.Spatial = cfg.Spatial
	cfg.Fused.TotalSampleCount += fusedSearchOverhead
	return cfg, nil
}

// LoadConfig reads a YAML config file, falling back to DefaultConfig's
// values for any field left unset in the file (it starts from
// DefaultConfig and unmarshals data on top, so a partial file overrides
// only the fields it names).
func LoadConfig(data []byte) (Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fusedSearchOverhead accounts for the temporal search/fallback indices
// (0-5) that precede the spatial sweep in a fused pass; defaults.yaml's
// totalSampleCount names only the spatial sample budget, matching how
// numSamples is specified for the pure spatial pass.
const fusedSearchOverhead = 6
