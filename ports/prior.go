package ports

// AbsorberPrior exposes the quasi-Monte-Carlo sample set over absorber
// parameters theta = (z_dla, logNHI) used to seed the candidate search.
// Implementations are immutable after construction and safe to share across
// workers.
type AbsorberPrior interface {
	// OffsetSamples returns the quasi-random offsets in [0,1) that map
	// linearly onto the allowed redshift range per quasar.
	OffsetSamples() []float64

	// LogNHISamples returns the matching log10 column-density draws from
	// the mixture of the data-fitted density and the uniform prior tail.
	LogNHISamples() []float64

	// SampleZDLAs maps the offsets onto absorber redshifts for one quasar:
	// linear interpolation between the minimum and maximum redshift at
	// which the absorber's Lya line stays inside the observed/search window.
	SampleZDLAs(wavelengths []float64, zQSO float64) []float64
}
