package reduce

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/rawstack/pkg/emath"
)

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float64
		want uint16
	}{
		{-1, 0},
		{0, 0},
		{0.999, 0},
		{1.5, 1},
		{2.5, 2},
		{65534.9, 65534},
		{65535, 65535},
		{1e12, 65535},
		{math.Inf(1), 65535},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quantize(tt.in), "Quantize(%v)", tt.in)
	}
}

func TestResultImageGray(t *testing.T) {
	r := mustNew(t, Mean)
	require.NoError(t, r.Update(grid(t, [][]float64{{1, 2, 3}, {4, 5, 6}})))
	res, _ := r.Snapshot()

	img, err := res.Image()
	require.NoError(t, err)
	gray, ok := img.(*image.Gray16)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 3, 2), gray.Bounds())
	assert.Equal(t, uint16(6), gray.Gray16At(2, 1).Y)
}

func TestResultImageRGB(t *testing.T) {
	fg := emath.NewFloatGrid(2, 1, 3)
	fg.Set(1, 0, 0, 100)
	fg.Set(1, 0, 1, 200)
	fg.Set(1, 0, 2, 70000)

	r := mustNew(t, Max)
	require.NoError(t, r.Update(fg))
	res, _ := r.Snapshot()
	assert.Equal(t, uint16(200), res.At(1, 0, 1))

	img, err := res.Image()
	require.NoError(t, err)
	rgba, ok := img.(*image.RGBA64)
	require.True(t, ok)
	c := rgba.RGBA64At(1, 0)
	assert.Equal(t, uint16(100), c.R)
	assert.Equal(t, uint16(200), c.G)
	assert.Equal(t, uint16(65535), c.B)
	assert.Equal(t, uint16(0xFFFF), c.A)
}

func TestResultImageUnsupportedChannels(t *testing.T) {
	r := mustNew(t, Min)
	require.NoError(t, r.Update(emath.NewFloatGrid(1, 1, 2)))
	res, _ := r.Snapshot()

	_, err := res.Image()
	assert.Error(t, err)
}
