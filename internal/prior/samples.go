package prior

import (
	"encoding/json"
	"math"
	"os"

	"godla/domain/core"
	"godla/internal/config"
	"godla/internal/errors"
	"godla/ports"
)

// sampleFile is the on-disk layout of a precomputed sample set, carrying the
// scalar constants it was generated with alongside the sample arrays.
type sampleFile struct {
	Alpha            float64   `json:"alpha"`
	UniformMinLogNHI float64   `json:"uniform_min_log_nhi"`
	UniformMaxLogNHI float64   `json:"uniform_max_log_nhi"`
	FitMinLogNHI     float64   `json:"fit_min_log_nhi"`
	FitMaxLogNHI     float64   `json:"fit_max_log_nhi"`
	OffsetSamples    []float64 `json:"offset_samples"`
	LogNHISamples    []float64 `json:"log_nhi_samples"`
}

// FileSampleSet is the file-backed AbsorberPrior: samples are precomputed
// once for the whole survey and never regenerated here.
type FileSampleSet struct {
	sampleSet
	mixture *Mixture
}

var _ ports.AbsorberPrior = (*FileSampleSet)(nil)

// LoadSampleSet reads a precomputed sample file and validates its generation
// constants against the active configuration. Any disagreement is fatal:
// a mismatched prior would silently invalidate every detection.
func LoadSampleSet(path string, prior config.Prior, search config.Search) (*FileSampleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithCode(errors.CodeNotFound, core.ErrFileNotFound)
		}
		return nil, errors.Wrapf(err, "reading sample set %s", path)
	}

	var f sampleFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrapf(err, "parsing sample set %s", path)
	}

	checks := []struct {
		name               string
		loaded, configured float64
	}{
		{"alpha", f.Alpha, prior.Alpha},
		{"uniform_min_log_nhi", f.UniformMinLogNHI, prior.UniformMinLogNHI},
		{"uniform_max_log_nhi", f.UniformMaxLogNHI, prior.UniformMaxLogNHI},
		{"fit_min_log_nhi", f.FitMinLogNHI, prior.FitMinLogNHI},
		{"fit_max_log_nhi", f.FitMaxLogNHI, prior.FitMaxLogNHI},
	}
	for _, c := range checks {
		if math.Abs(c.loaded-c.configured) > 1e-12 {
			return nil, errors.WithCode(errors.CodeConfigMismatch,
				core.NewConfigMismatchError(c.name, c.loaded, c.configured))
		}
	}

	if len(f.OffsetSamples) != len(f.LogNHISamples) {
		return nil, errors.New(errors.CodeConfigMismatch,
			"sample set offset and logNHI arrays differ in length")
	}
	if len(f.OffsetSamples) != prior.NumSamples {
		return nil, errors.WithCode(errors.CodeConfigMismatch,
			core.NewConfigMismatchError("num_samples",
				float64(len(f.OffsetSamples)), float64(prior.NumSamples)))
	}

	return &FileSampleSet{
		sampleSet: sampleSet{
			search:  search,
			offsets: f.OffsetSamples,
			logNHI:  f.LogNHISamples,
		},
		mixture: NewMixture(prior),
	}, nil
}

// Mixture returns the prior density with its cached normalization.
func (s *FileSampleSet) Mixture() *Mixture { return s.mixture }

// SaveSampleSet writes a sample set to disk with the constants it was
// generated under, so later loads can detect configuration drift.
func SaveSampleSet(path string, prior config.Prior, set ports.AbsorberPrior) error {
	raw, err := json.Marshal(sampleFile{
		Alpha:            prior.Alpha,
		UniformMinLogNHI: prior.UniformMinLogNHI,
		UniformMaxLogNHI: prior.UniformMaxLogNHI,
		FitMinLogNHI:     prior.FitMinLogNHI,
		FitMaxLogNHI:     prior.FitMaxLogNHI,
		OffsetSamples:    set.OffsetSamples(),
		LogNHISamples:    set.LogNHISamples(),
	})
	if err != nil {
		return errors.Wrap(err, "encoding sample set")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errors.Wrapf(err, "writing sample set %s", path)
	}
	return nil
}
