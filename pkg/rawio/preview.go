package rawio

import(
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime

	"github.com/abworrall/rawstack/pkg/emath"
)

// WritePreview saves a small-depth PNG that is easy to eyeball: the values are stretched to fill
// the range seen in the image, gamma scaled to look normal for human vision, and the title is
// drawn in the top left. Stacks of night sky frames are nearly black otherwise.
func WritePreview(img image.Image, title, filename string) error {
	bounds := img.Bounds()

	min, max := math.MaxFloat64, 0.0
	for x:=bounds.Min.X; x<bounds.Max.X; x++ {
		for y:=bounds.Min.Y; y<bounds.Max.Y; y++ {
			r, g, b, _ := img.At(x,y).RGBA()
			for _, v := range []float64{float64(r), float64(g), float64(b)} {
				if v > max { max = v }
				if v < min { min = v }
			}
		}
	}
	span := max - min
	if span <= 0 { span = 1 }

	stretch := func(v uint32) uint8 {
		f := emath.GammaExpand_F64(emath.Clamp((float64(v) - min) / span, 0, 1))
		return uint8(f * 255.0)
	}

	out := image.NewRGBA(bounds)
	for x:=bounds.Min.X; x<bounds.Max.X; x++ {
		for y:=bounds.Min.Y; y<bounds.Max.Y; y++ {
			r, g, b, _ := img.At(x,y).RGBA()
			out.Set(x, y, color.RGBA{stretch(r), stretch(g), stretch(b), 0xFF})
		}
	}

	dc := gg.NewContextForImage(out)
	dc.SetRGB(1,1,1)
	dc.DrawString(title, 20, 30)
	return dc.SavePNG(filename)
}
