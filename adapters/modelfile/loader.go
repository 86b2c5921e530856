// Package modelfile loads the precomputed flux-model bundle from its JSON
// export: the PCA continuum basis, the named IGM mean-transmission model, and
// the tabulated large-scale-structure variance curves.
package modelfile

import (
	"encoding/json"
	"os"

	"godla/domain/core"
	"godla/internal/continuum"
	"godla/internal/errors"

	"gonum.org/v1/gonum/interp"
)

// varTable is one tabulated variance curve over observed wavelength.
type varTable struct {
	Wave  []float64 `json:"wave"`
	Value []float64 `json:"value"`
}

// bundleFile is the on-disk layout of the model bundle.
type bundleFile struct {
	PCAWave  []float64   `json:"pca_wave"`
	PCAComp  [][]float64 `json:"pca_comp"`
	IGMModel string      `json:"igm_model"`
	IGM      []struct {
		Name string  `json:"name"`
		Line float64 `json:"line"`
		A    float64 `json:"a"`
		B    float64 `json:"b"`
	} `json:"igm"`
	VarLSSLya varTable `json:"var_lss_lya"`
	VarLSSLyb varTable `json:"var_lss_lyb"`
}

// Load reads a model bundle file and builds the interpolating variance
// functions. The returned bundle is validated and ready for template builds.
func Load(path string) (*continuum.Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithCode(errors.CodeNotFound, core.ErrFileNotFound)
		}
		return nil, errors.Wrapf(err, "reading model bundle %s", path)
	}

	var file bundleFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrapf(errors.WithCode(errors.CodeModelInvalid, err),
			"parsing model bundle %s", path)
	}

	bundle := &continuum.Bundle{
		PCAWave:  file.PCAWave,
		PCAComp:  file.PCAComp,
		IGMModel: file.IGMModel,
	}
	for _, tr := range file.IGM {
		bundle.IGM = append(bundle.IGM, continuum.IGMTransition{
			Name: tr.Name,
			Line: tr.Line,
			A:    tr.A,
			B:    tr.B,
		})
	}

	if bundle.VarLSSLya, err = varFunc(file.VarLSSLya); err != nil {
		return nil, errors.Wrap(err, "var_lss_lya table")
	}
	if bundle.VarLSSLyb, err = varFunc(file.VarLSSLyb); err != nil {
		return nil, errors.Wrap(err, "var_lss_lyb table")
	}

	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return bundle, nil
}

// varFunc builds a piecewise-linear interpolant over one variance table.
// An absent table yields a nil function, which the template builder treats
// as zero variance.
func varFunc(table varTable) (continuum.VarFunc, error) {
	if len(table.Wave) == 0 {
		return nil, nil
	}
	if len(table.Wave) != len(table.Value) {
		return nil, errors.WithCode(errors.CodeModelInvalid, core.ErrGridMismatch)
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(table.Wave, table.Value); err != nil {
		return nil, errors.WithCode(errors.CodeModelInvalid, err)
	}
	return pl.Predict, nil
}
