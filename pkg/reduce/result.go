package reduce

import(
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/abworrall/rawstack/pkg/emath"
)

const MaxValue = 0xFFFF

// A Result is a snapshot of a Reducer, in the fixed 16-bit output format.
// Pix is laid out the same way as the FloatGrid it came from.
type Result struct {
	Width    int
	Height   int
	Channels int
	Count    int      // how many images went into this result
	Pix      []uint16
}

func newResult(fg *emath.FloatGrid, count int) *Result {
	vals := fg.Values()
	res := &Result{
		Width:    fg.Dx(),
		Height:   fg.Dy(),
		Channels: fg.Channels(),
		Count:    count,
		Pix:      make([]uint16, len(vals)),
	}
	for i, v := range vals {
		res.Pix[i] = Quantize(v)
	}
	return res
}

// Quantize clips v to [0, 0xFFFF] and truncates toward zero. NaN maps to 0.
func Quantize(v float64) uint16 {
	switch {
	case math.IsNaN(v), v <= 0: return 0
	case v >= MaxValue:         return MaxValue
	}
	return uint16(v)
}

func (res *Result)At(x, y, c int) uint16 {
	return res.Pix[(y*res.Width + x) * res.Channels + c]
}

func (res *Result)String() string {
	return fmt.Sprintf("Result[%dx%dx%d, n=%d]", res.Width, res.Height, res.Channels, res.Count)
}

// Image presents the result as a 16-bit image.Image: Gray16 for a single
// channel, opaque RGBA64 for three.
func (res *Result)Image() (image.Image, error) {
	bounds := image.Rect(0, 0, res.Width, res.Height)

	switch res.Channels {
	case 1:
		img := image.NewGray16(bounds)
		for y:=0; y<res.Height; y++ {
			for x:=0; x<res.Width; x++ {
				img.SetGray16(x, y, color.Gray16{Y: res.At(x,y,0)})
			}
		}
		return img, nil

	case 3:
		img := image.NewRGBA64(bounds)
		for y:=0; y<res.Height; y++ {
			for x:=0; x<res.Width; x++ {
				img.SetRGBA64(x, y, color.RGBA64{
					R: res.At(x,y,0),
					G: res.At(x,y,1),
					B: res.At(x,y,2),
					A: 0xFFFF,
				})
			}
		}
		return img, nil
	}

	return nil, fmt.Errorf("result has %d channels; can only render 1 or 3", res.Channels)
}
