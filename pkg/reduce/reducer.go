package reduce

import(
	"errors"
	"fmt"
	"strings"

	"github.com/abworrall/rawstack/pkg/emath"
)

var(
	ErrInvalidMode   = errors.New("invalid reduction mode")
	ErrShapeMismatch = errors.New("image shape mismatch")
)

// A Mode picks the rule used to fold each new image into the accumulator.
type Mode string

const(
	Mean Mode = "mean" // noise reduction
	Max  Mode = "max"  // star trails, lightning
	Min  Mode = "min"  // hot pixels, transient removal
)

var Modes = []Mode{Mean, Max, Min}

// A foldFunc combines img into acc, in place. n is the number of images
// folded in once this one is included, so always >= 2.
type foldFunc func(acc, img []float64, n int)

var folders = map[Mode]foldFunc{
	Mean: foldMean,
	Max:  foldMax,
	Min:  foldMin,
}

func ListModes() string {
	return fmt.Sprintf("%v", Modes)
}

// ParseMode maps a tag like "Mean" or "max" onto a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, exists := folders[m]; !exists {
		return "", fmt.Errorf("%w: '%s', wanted one of %s", ErrInvalidMode, s, ListModes())
	}
	return m, nil
}

// A Reducer folds a stream of same-shaped images into a single running
// result, holding nothing but the accumulator. It is not safe for concurrent
// use.
type Reducer struct {
	mode   Mode
	fold   foldFunc
	count  int
	acc    *emath.FloatGrid // nil until the first Update
}

func New(mode Mode) (*Reducer, error) {
	fold, exists := folders[mode]
	if !exists {
		return nil, fmt.Errorf("%w: '%s', wanted one of %s", ErrInvalidMode, mode, ListModes())
	}
	return &Reducer{mode: mode, fold: fold}, nil
}

func (r *Reducer)Mode() Mode  { return r.mode }
func (r *Reducer)Count() int  { return r.count }

func (r *Reducer)String() string {
	if r.acc == nil {
		return fmt.Sprintf("Reducer[%s, empty]", r.mode)
	}
	return fmt.Sprintf("Reducer[%s, n=%d, %s]", r.mode, r.count, r.acc.Stats())
}

// Update folds img into the running result. The first image is copied in
// as-is; every later image must have the same shape, or ErrShapeMismatch is
// returned and the reducer is left untouched.
func (r *Reducer)Update(img emath.FloatGrid) error {
	if img.IsEmpty() {
		return fmt.Errorf("%w: empty image", ErrShapeMismatch)
	}

	if r.acc == nil {
		r.acc = img.Copy()
		r.count = 1
		return nil
	}

	if !r.acc.SameShape(&img) {
		return fmt.Errorf("%w: have %s, got %s", ErrShapeMismatch, r.acc.Shape(), img.Shape())
	}

	r.count++
	r.fold(r.acc.Values(), img.Values(), r.count)
	return nil
}

// Snapshot returns the current result, quantized to 16 bits. It returns false
// if nothing has been folded in yet. The result shares no memory with the
// reducer.
func (r *Reducer)Snapshot() (*Result, bool) {
	if r.acc == nil {
		return nil, false
	}
	return newResult(r.acc, r.count), true
}

// The incremental form of the mean: each image pulls the mean 1/n of the way
// towards itself. This never builds up a large running sum.
func foldMean(acc, img []float64, n int) {
	k := float64(n)
	for i := range acc {
		acc[i] += (img[i] - acc[i]) / k
	}
}

func foldMax(acc, img []float64, n int) {
	for i := range acc {
		if img[i] > acc[i] { acc[i] = img[i] }
	}
}

func foldMin(acc, img []float64, n int) {
	for i := range acc {
		if img[i] < acc[i] { acc[i] = img[i] }
	}
}
