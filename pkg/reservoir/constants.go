// Package reservoir implements the reservoir data model (DI and GI), its
// packed wire format, the RIS stream step, and the per-pixel auxiliary
// filters (boiling, permutation, GI Jacobian) that sit underneath the
// temporal/spatial resampling passes in pkg/resample.
package reservoir

// MaxM is the largest effective sample count a reservoir can hold; it is
// part of the packed wire format (13 bits) and Pack clamps to it. The
// stream steps accumulate M without clamping.
const MaxM = 8191

// MaxAgeGI is the maximum age (frames since selection) a GI reservoir
// packs before it must be discarded; DI's maximum age is host-defined
// and carried in resampling params instead.
const MaxAgeGI = 255

// ReservoirBlockSize is the tile edge length reservoirs are grouped into
// for cache-friendly buffer addressing.
const ReservoirBlockSize = 16

// NeighborOffsetCount is the default size of the precomputed unit-disk
// neighbor offset table consumed by spatial and fused resampling.
const NeighborOffsetCount = 8192

// RTXDINaiveSamplingMThreshold is the M at or below which a spatial DI
// neighbor is skipped when DiscountNaiveSamples is enabled — exposed as
// a named constant rather than an unexplained magic number.
const RTXDINaiveSamplingMThreshold = 0

// NumReservoirBuffersDI is the number of physical reservoir slices the
// host rotates between for DI resampling (init/temporal/spatial).
const NumReservoirBuffersDI = 3

// NumReservoirBuffersGI is the number of physical reservoir slices the
// host rotates between for GI resampling (temporal/spatial share a
// double buffer).
const NumReservoirBuffersGI = 2
