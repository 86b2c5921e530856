package specfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"godla/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadGroup(t *testing.T) {
	path := writeFile(t, "spectra.json", `{
		"wave": [3650, 3651, 3652],
		"targets": [
			{"targetid": 11, "ra": 150.1, "dec": 2.2, "zqso": 2.8,
			 "flux": [1.0, 1.1, 1.2], "ivar": [100, 100, 100]},
			{"targetid": 12, "ra": 151.0, "dec": 2.4, "zqso": 3.1,
			 "flux": [0.9, 0.8, 0.7], "ivar": [90, 90, 90]}
		]
	}`)

	group, err := NewReader().ReadGroup(context.Background(), path, []core.TargetID{11})
	require.NoError(t, err)

	assert.Equal(t, []float64{3650, 3651, 3652}, []float64(group.Wave))
	require.Len(t, group.Records, 1, "unrequested targets must be left out")

	rec, err := group.Lookup(11)
	require.NoError(t, err)
	assert.Equal(t, 2.8, rec.ZQSO)
	assert.Equal(t, []float64{1.0, 1.1, 1.2}, rec.Flux)

	_, err = group.Lookup(12)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTargetNotFound)
}

func TestReadGroup_MissingFile(t *testing.T) {
	_, err := NewReader().ReadGroup(context.Background(),
		filepath.Join(t.TempDir(), "absent.json"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReadGroup_UnorderedGrid(t *testing.T) {
	path := writeFile(t, "spectra.json", `{"wave": [3652, 3651], "targets": []}`)
	_, err := NewReader().ReadGroup(context.Background(), path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrGridUnordered)
}

func TestReadGroup_LengthMismatch(t *testing.T) {
	path := writeFile(t, "spectra.json", `{
		"wave": [3650, 3651, 3652],
		"targets": [
			{"targetid": 11, "zqso": 2.8, "flux": [1.0], "ivar": [100]}
		]
	}`)
	_, err := NewReader().ReadGroup(context.Background(), path, []core.TargetID{11})
	require.Error(t, err)
}

func TestReadCatalog(t *testing.T) {
	path := writeFile(t, "catalog.json", `[
		{"targetid": 11, "ra": 150.1, "dec": 2.2, "zqso": 2.8},
		{"targetid": 12, "ra": 151.0, "dec": 2.4, "zqso": 3.1,
		 "bal": {"count": 1, "vmin": [1000], "vmax": [4000]}}
	]`)

	entries, err := ReadCatalog(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Nil(t, entries[0].BAL)
	require.NotNil(t, entries[1].BAL)
	assert.True(t, entries[1].BAL.HasFeatures())
	assert.Equal(t, []float64{1000}, entries[1].BAL.VMin)
	assert.Equal(t, []float64{4000}, entries[1].BAL.VMax)
}

func TestReadCatalog_MissingFile(t *testing.T) {
	_, err := ReadCatalog(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
