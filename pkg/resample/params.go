// Package resample implements the temporal, spatial, and fused
// spatio-temporal resampling passes: reprojecting or
// searching for neighbor reservoirs, streaming them into an output
// reservoir via pkg/reservoir or pkg/pairwise, and normalizing the
// result under one of four bias-correction modes.
package resample

import "fmt"

// BiasCorrectionMode selects the MIS denominator scheme used to
// finalize a resampling pass.
type BiasCorrectionMode int

const (
	// BiasOff uses the plain 1/M estimator: no re-walk of neighbors.
	BiasOff BiasCorrectionMode = iota
	// BiasBasic re-walks accepted candidates to build an unbiased MIS
	// denominator, without visibility testing.
	BiasBasic
	// BiasRayTraced is BiasBasic plus a shadow ray per re-walked
	// candidate, zeroing its contribution when occluded.
	BiasRayTraced
	// BiasPairwise streams DI candidates through pkg/pairwise instead
	// of a full re-walk; unsupported for GI.
	BiasPairwise
)

var biasCorrectionNames = map[string]BiasCorrectionMode{
	"off":        BiasOff,
	"basic":      BiasBasic,
	"ray-traced": BiasRayTraced,
	"pairwise":   BiasPairwise,
}

func (m BiasCorrectionMode) String() string {
	for name, v := range biasCorrectionNames {
		if v == m {
			return name
		}
	}
	return "off"
}

// UnmarshalYAML lets config files spell bias correction modes as the
// plain names ("off", "basic", "ray-traced", "pairwise") instead of
// raw integers.
func (m *BiasCorrectionMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	mode, ok := biasCorrectionNames[name]
	if !ok {
		return fmt.Errorf("resample: unknown biasCorrection %q", name)
	}
	*m = mode
	return nil
}

// TemporalParams configures TemporalResampleDI/GI.
type TemporalParams struct {
	MaxHistoryLength           int                `yaml:"maxHistoryLength"`
	MaxReservoirAge            int                `yaml:"maxReservoirAge"`
	NormalThreshold            float64            `yaml:"normalThreshold"`
	DepthThreshold             float64            `yaml:"depthThreshold"`
	PermutationSamplingEnabled bool               `yaml:"permutationSamplingEnabled"`
	EnableFallbackSampling     bool               `yaml:"enableFallbackSampling"`
	EnableVisibilityShortcut   bool               `yaml:"enableVisibilityShortcut"`
	BiasCorrection             BiasCorrectionMode `yaml:"biasCorrection"`
}

// SpatialParams configures SpatialResampleDI/GI.
type SpatialParams struct {
	NumSamples                  int                `yaml:"numSamples"`
	NumDisocclusionBoostSamples int                `yaml:"numDisocclusionBoostSamples"`
	TargetHistoryLength         int                `yaml:"targetHistoryLength"`
	SamplingRadius              float64            `yaml:"samplingRadius"`
	NormalThreshold             float64            `yaml:"normalThreshold"`
	DepthThreshold              float64            `yaml:"depthThreshold"`
	DiscountNaiveSamples        bool               `yaml:"discountNaiveSamples"`
	BiasCorrection              BiasCorrectionMode `yaml:"biasCorrection"`
}

// FusedParams configures FusedResampleDI/GI: the union of the
// temporal and spatial knobs, plus the total per-pixel sample budget
// that must fit a 32-bit validity bitmask.
type FusedParams struct {
	Temporal         TemporalParams `yaml:"temporal"`
	Spatial          SpatialParams  `yaml:"spatial"`
	TotalSampleCount int            `yaml:"totalSampleCount"`
}

// BoilingFilterParams configures the tile-wide outlier rejection pass.
type BoilingFilterParams struct {
	Enabled        bool    `yaml:"enabled"`
	FilterStrength float64 `yaml:"filterStrength"`
}

// maxFusedSampleCount is the bitmask width ceiling for a fused pass.
const maxFusedSampleCount = 32

// maxSpatialSampleCount is the same ceiling applied to a pure spatial
// pass.
const maxSpatialSampleCount = 32
