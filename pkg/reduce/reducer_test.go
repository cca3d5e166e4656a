package reduce

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/rawstack/pkg/emath"
)

// grid builds a single channel grid from rows.
func grid(t *testing.T, rows [][]float64) emath.FloatGrid {
	t.Helper()
	vals := []float64{}
	for _, row := range rows {
		vals = append(vals, row...)
	}
	fg, err := emath.NewFloatGridFromValues(len(rows[0]), len(rows), 1, vals)
	require.NoError(t, err)
	return fg
}

func mustNew(t *testing.T, mode Mode) *Reducer {
	t.Helper()
	r, err := New(mode)
	require.NoError(t, err)
	return r
}

func snapshot(t *testing.T, r *Reducer) []uint16 {
	t.Helper()
	res, ok := r.Snapshot()
	require.True(t, ok)
	return res.Pix
}

func randomGrids(rng *rand.Rand, n, w, h, c int, lo, hi float64) []emath.FloatGrid {
	grids := make([]emath.FloatGrid, n)
	for i := range grids {
		grids[i] = emath.NewFloatGrid(w, h, c)
		vals := grids[i].Values()
		for j := range vals {
			vals[j] = lo + rng.Float64()*(hi-lo)
		}
	}
	return grids
}

func TestNew(t *testing.T) {
	for _, mode := range Modes {
		r, err := New(mode)
		require.NoError(t, err)
		assert.Equal(t, mode, r.Mode())
		assert.Equal(t, 0, r.Count())
	}

	_, err := New(Mode("median"))
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"mean", Mean, false},
		{"MAX", Max, false},
		{" Min ", Min, false},
		{"", "", true},
		{"average", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotBeforeUpdate(t *testing.T) {
	for _, mode := range Modes {
		res, ok := mustNew(t, mode).Snapshot()
		assert.False(t, ok)
		assert.Nil(t, res)
	}
}

func TestSingleImage(t *testing.T) {
	for _, mode := range Modes {
		t.Run(string(mode), func(t *testing.T) {
			r := mustNew(t, mode)
			require.NoError(t, r.Update(grid(t, [][]float64{{1, 2}, {3, 4}})))

			assert.Equal(t, 1, r.Count())
			assert.Equal(t, []uint16{1, 2, 3, 4}, snapshot(t, r))
		})
	}
}

func TestTwoImages(t *testing.T) {
	tests := []struct {
		mode Mode
		a, b [][]float64
		want []uint16
	}{
		// 1.5, 2.5, 3.5, 4.5 all truncate down
		{Mean, [][]float64{{1, 2}, {3, 4}}, [][]float64{{2, 3}, {4, 5}}, []uint16{1, 2, 3, 4}},
		{Max, [][]float64{{1, 2}, {3, 4}}, [][]float64{{2, 1}, {2, 5}}, []uint16{2, 2, 3, 5}},
		{Min, [][]float64{{1, 2}, {3, 4}}, [][]float64{{2, 1}, {2, 5}}, []uint16{1, 1, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r := mustNew(t, tt.mode)
			require.NoError(t, r.Update(grid(t, tt.a)))
			require.NoError(t, r.Update(grid(t, tt.b)))

			assert.Equal(t, 2, r.Count())
			assert.Equal(t, tt.want, snapshot(t, r))
		})
	}
}

func TestCountTracksUpdates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, mode := range Modes {
		r := mustNew(t, mode)
		for i, g := range randomGrids(rng, 25, 3, 2, 3, 0, 65535) {
			require.NoError(t, r.Update(g))
			assert.Equal(t, i+1, r.Count())
		}
	}
}

func TestMeanMatchesArithmeticMean(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	grids := randomGrids(rng, 200, 4, 3, 3, 0, 65535)

	r := mustNew(t, Mean)
	for _, g := range grids {
		require.NoError(t, r.Update(g))
	}
	got := snapshot(t, r)

	for i := range got {
		sum := 0.0
		for _, g := range grids {
			sum += g.Values()[i]
		}
		want := Quantize(sum / float64(len(grids)))
		assert.InDelta(t, float64(want), float64(got[i]), 1, "element %d", i)
	}
}

func TestMaxMinMatchElementwise(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	grids := randomGrids(rng, 50, 5, 5, 1, -100, 70000)

	rMax := mustNew(t, Max)
	rMin := mustNew(t, Min)
	for _, g := range grids {
		require.NoError(t, rMax.Update(g))
		require.NoError(t, rMin.Update(g))
	}
	gotMax := snapshot(t, rMax)
	gotMin := snapshot(t, rMin)

	for i := range gotMax {
		hi, lo := math.Inf(-1), math.Inf(1)
		for _, g := range grids {
			hi = math.Max(hi, g.Values()[i])
			lo = math.Min(lo, g.Values()[i])
		}
		assert.Equal(t, Quantize(hi), gotMax[i])
		assert.Equal(t, Quantize(lo), gotMin[i])
	}
}

func TestOrderInsensitivity(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	grids := randomGrids(rng, 2, 6, 4, 3, 0, 65535)
	a, b := grids[0], grids[1]

	for _, mode := range Modes {
		t.Run(string(mode), func(t *testing.T) {
			ab, ba := mustNew(t, mode), mustNew(t, mode)
			require.NoError(t, ab.Update(a))
			require.NoError(t, ab.Update(b))
			require.NoError(t, ba.Update(b))
			require.NoError(t, ba.Update(a))

			gotAB, gotBA := snapshot(t, ab), snapshot(t, ba)
			if mode != Mean {
				assert.Equal(t, gotAB, gotBA)
				return
			}
			for i := range gotAB {
				assert.InDelta(t, float64(gotAB[i]), float64(gotBA[i]), 1)
			}
		})
	}
}

func TestSnapshotIsIdempotentAndIndependent(t *testing.T) {
	r := mustNew(t, Mean)
	require.NoError(t, r.Update(grid(t, [][]float64{{10, 20}, {30, 40}})))

	first, ok := r.Snapshot()
	require.True(t, ok)
	second, ok := r.Snapshot()
	require.True(t, ok)
	assert.Equal(t, first, second)

	// Scribbling on a result must not leak back into the reducer
	first.Pix[0] = 9999
	third, _ := r.Snapshot()
	assert.Equal(t, uint16(10), third.Pix[0])
	assert.Equal(t, 1, r.Count())
}

func TestUpdateCopiesFirstImage(t *testing.T) {
	r := mustNew(t, Max)
	g := grid(t, [][]float64{{1, 2}})
	require.NoError(t, r.Update(g))

	g.Set(0, 0, 0, 500)
	assert.Equal(t, []uint16{1, 2}, snapshot(t, r))
}

func TestClipping(t *testing.T) {
	r := mustNew(t, Mean)
	require.NoError(t, r.Update(grid(t, [][]float64{{0, 65536}, {-1, 70000}})))

	res, ok := r.Snapshot()
	require.True(t, ok)
	assert.IsType(t, []uint16{}, res.Pix)
	assert.Equal(t, []uint16{0, 65535, 0, 65535}, res.Pix)
}

func TestShapeMismatch(t *testing.T) {
	r := mustNew(t, Mean)
	require.NoError(t, r.Update(grid(t, [][]float64{{1, 2}, {3, 4}})))

	err := r.Update(grid(t, [][]float64{{1, 2, 3}}))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	rgb := emath.NewFloatGrid(2, 2, 3)
	assert.ErrorIs(t, r.Update(rgb), ErrShapeMismatch)

	assert.ErrorIs(t, r.Update(emath.FloatGrid{}), ErrShapeMismatch)

	// State is untouched by the rejected updates
	assert.Equal(t, 1, r.Count())
	assert.Equal(t, []uint16{1, 2, 3, 4}, snapshot(t, r))
}

func TestEmptyFirstImageIsRejected(t *testing.T) {
	r := mustNew(t, Min)
	assert.ErrorIs(t, r.Update(emath.FloatGrid{}), ErrShapeMismatch)
	assert.Equal(t, 0, r.Count())
	_, ok := r.Snapshot()
	assert.False(t, ok)
}

func TestLongMeanStreamIsStable(t *testing.T) {
	// A constant stream must come back exactly, however long it runs
	r := mustNew(t, Mean)
	g := grid(t, [][]float64{{65535, 12345.75}})
	for i := 0; i < 10000; i++ {
		require.NoError(t, r.Update(g))
	}
	assert.Equal(t, []uint16{65535, 12345}, snapshot(t, r))
}
