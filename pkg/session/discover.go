package session

import(
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/abworrall/rawstack/pkg/rawio"
)

var(
	ErrDirectoryNotFound     = errors.New("input directory not found")
	ErrNoEligibleFiles       = errors.New("no eligible image files")
	ErrRangeEndpointNotFound = errors.New("range endpoint not found")
	ErrInvalidRange          = errors.New("start file comes after end file")
)

// Discover lists the files in dir (not recursing) that have a known RAW or
// TIFF extension, sorted by filename.
func Discover(dir string) ([]string, error) {
	item, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %v", ErrDirectoryNotFound, dir, err)
	} else if !item.IsDir() {
		return nil, fmt.Errorf("%w: '%s' is not a directory", ErrDirectoryNotFound, dir)
	}

	contents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("readdir %s: %v", dir, err)
	}

	files := []string{}
	for _, content := range contents {
		if content.IsDir() || !rawio.IsEligible(content.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, content.Name()))
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in '%s', wanted one of %s", ErrNoEligibleFiles, dir, strings.Join(rawio.Extensions(), " "))
	}

	sort.Slice(files, func(i, j int) bool { return filepath.Base(files[i]) < filepath.Base(files[j]) })
	return files, nil
}

// SelectRange returns the files from start to end inclusive, matching on the
// exact filename. A missing endpoint gets its own error; if both are missing,
// both errors come back together.
func SelectRange(files []string, start, end string) ([]string, error) {
	startIdx, endIdx := -1, -1
	for i, f := range files {
		name := filepath.Base(f)
		if name == start && startIdx < 0 { startIdx = i }
		if name == end   && endIdx < 0   { endIdx = i }
	}

	var errs error
	if startIdx < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: start file '%s'", ErrRangeEndpointNotFound, start))
	}
	if endIdx < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: end file '%s'", ErrRangeEndpointNotFound, end))
	}
	if errs != nil {
		return nil, errs
	}

	if startIdx > endIdx {
		return nil, fmt.Errorf("%w: '%s' > '%s'", ErrInvalidRange, start, end)
	}

	return files[startIdx:endIdx+1], nil
}
