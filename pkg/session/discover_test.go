package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
}

func basenames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestDiscover_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "DSC003.ARW")
	touch(t, dir, "DSC001.arw")
	touch(t, dir, "DSC002.ARW")
	touch(t, dir, "DSC002.JPG")
	touch(t, dir, "notes.txt")
	touch(t, dir, "IMG_1.CR2")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.arw"), 0o755))
	touch(t, filepath.Join(dir, "sub.arw"), "DSC000.ARW")

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"DSC001.arw", "DSC002.ARW", "DSC003.ARW", "IMG_1.CR2"}, basenames(files))
}

func TestDiscover_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Discover(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrDirectoryNotFound)

	_, err = Discover(dir)
	assert.ErrorIs(t, err, ErrNoEligibleFiles)
}

func TestSelectRange(t *testing.T) {
	files := []string{"/d/a.arw", "/d/b.arw", "/d/c.arw", "/d/d.arw"}

	got, err := SelectRange(files, "b.arw", "c.arw")
	require.NoError(t, err)
	assert.Equal(t, []string{"/d/b.arw", "/d/c.arw"}, got)

	got, err = SelectRange(files, "c.arw", "c.arw")
	require.NoError(t, err)
	assert.Equal(t, []string{"/d/c.arw"}, got)

	// Matching is on the exact filename, case and all
	_, err = SelectRange(files, "B.ARW", "c.arw")
	assert.ErrorIs(t, err, ErrRangeEndpointNotFound)

	_, err = SelectRange(files, "d.arw", "a.arw")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSelectRange_ReportsEachMissingEndpoint(t *testing.T) {
	_, err := SelectRange([]string{"/d/a.arw"}, "x.arw", "y.arw")
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "x.arw")
	assert.Contains(t, errs[1].Error(), "y.arw")
	for _, e := range errs {
		assert.ErrorIs(t, e, ErrRangeEndpointNotFound)
	}
}
