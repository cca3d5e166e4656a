package emath

import(
	"fmt"
	"image"
	"math"
)

// A FloatGrid is a grid of float64 pixels, with one or more channels per pixel. Values are
// stored row-major, with the channels for a pixel interleaved, so (x,y,c) lives at
// ((y*width)+x)*channels + c. This is the wide representation that images are decoded into
// before being stacked; values are on the 16-bit scale, [0, 0xFFFF], but nothing enforces that.
type FloatGrid struct {
	stride   int       // width, in pixels
	channels int
	values   []float64
}

func NewFloatGrid(w, h, channels int) FloatGrid {
	if w < 0 { w = 0 }
	if h < 0 { h = 0 }
	if channels < 1 { channels = 1 }
	return FloatGrid{
		stride:   w,
		channels: channels,
		values:   make([]float64, w*h*channels),
	}
}

// NewFloatGridFromValues wraps vals (which is not copied) as a w x h grid.
func NewFloatGridFromValues(w, h, channels int, vals []float64) (FloatGrid, error) {
	if w <= 0 || h <= 0 || channels <= 0 {
		return FloatGrid{}, fmt.Errorf("floatgrid: bad dimensions %dx%dx%d", w, h, channels)
	} else if len(vals) != w*h*channels {
		return FloatGrid{}, fmt.Errorf("floatgrid: %dx%dx%d needs %d values, got %d", w, h, channels, w*h*channels, len(vals))
	}
	return FloatGrid{stride: w, channels: channels, values: vals}, nil
}

func (g1 *FloatGrid)NewFromThis() FloatGrid      { return NewFloatGrid(g1.Dx(), g1.Dy(), g1.channels) }
func (fg *FloatGrid)Set(x, y, c int, v float64)  { fg.values[fg.offset(x,y,c)] = v }
func (fg *FloatGrid)Get(x, y, c int) float64     { return fg.values[fg.offset(x,y,c)] }
func (fg *FloatGrid)Dx() int                     { return fg.stride }
func (fg *FloatGrid)Channels() int               { return fg.channels }
func (fg *FloatGrid)Len() int                    { return len(fg.values) }
func (fg *FloatGrid)IsEmpty() bool               { return len(fg.values) == 0 }

// Values exposes the backing slice, so reductions can run over it without the (x,y,c) math.
func (fg *FloatGrid)Values() []float64           { return fg.values }

func (fg *FloatGrid)Dy() int {
	if fg.stride == 0 || fg.channels == 0 {
		return 0
	}
	return len(fg.values) / (fg.stride * fg.channels)
}

func (fg *FloatGrid)offset(x, y, c int) int {
	return (fg.stride*y + x) * fg.channels + c
}

func (g1 *FloatGrid)Copy() *FloatGrid {
	g2 := FloatGrid{stride: g1.stride, channels: g1.channels, values:make([]float64, len(g1.values))}
	copy(g2.values, g1.values)
	return &g2
}

// SameShape is true if both grids have the same width, height and channel count.
func (g1 *FloatGrid)SameShape(g2 *FloatGrid) bool {
	return g1.Dx() == g2.Dx() && g1.Dy() == g2.Dy() && g1.channels == g2.channels
}

func (fg *FloatGrid)Shape() string {
	return fmt.Sprintf("%dx%dx%d", fg.Dx(), fg.Dy(), fg.channels)
}

func (fg *FloatGrid)Stats() string {
	min := math.MaxFloat64
	max := -1.0  * min

	for i:=0 ; i<len(fg.values) ; i++ {
		if fg.values[i] > max { max = fg.values[i] }
		if fg.values[i] < min { min = fg.values[i] }
	}
	return fmt.Sprintf("fg[%s, vals{%f,%f}]", fg.Shape(), min, max)
}

// NewFloatGridFromImage converts an image into a grid on the 16-bit scale. Grayscale images
// become a single channel grid; everything else becomes three channels (RGB), and alpha is
// dropped. Colors are taken from RGBA(), so 8-bit inputs get scaled up to 16-bit.
func NewFloatGridFromImage(img image.Image) FloatGrid {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch src := img.(type) {
	case *image.Gray16:
		fg := NewFloatGrid(w, h, 1)
		for y:=0; y<h; y++ {
			for x:=0; x<w; x++ {
				fg.Set(x, y, 0, float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
		return fg

	case *image.Gray:
		fg := NewFloatGrid(w, h, 1)
		for y:=0; y<h; y++ {
			for x:=0; x<w; x++ {
				v, _, _, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				fg.Set(x, y, 0, float64(v))
			}
		}
		return fg

	case *image.RGBA64:
		// Pix holds big-endian R,G,B,A per pixel; alpha is dropped.
		fg := NewFloatGrid(w, h, 3)
		for y:=0; y<h; y++ {
			row := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			for x:=0; x<w; x++ {
				p := row[x*8 : x*8+6]
				fg.Set(x, y, 0, float64(uint16(p[0])<<8 | uint16(p[1])))
				fg.Set(x, y, 1, float64(uint16(p[2])<<8 | uint16(p[3])))
				fg.Set(x, y, 2, float64(uint16(p[4])<<8 | uint16(p[5])))
			}
		}
		return fg
	}

	fg := NewFloatGrid(w, h, 3)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			fg.Set(x, y, 0, float64(r))
			fg.Set(x, y, 1, float64(g))
			fg.Set(x, y, 2, float64(b))
		}
	}
	return fg
}
