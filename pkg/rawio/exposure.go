package rawio

import(
	"fmt"
	"math"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

type rat64 [2]int64

// An Exposure details how a frame was shot. Frames in a stack should all
// share the same exposure; if they don't, the mean gets skewed towards the
// brighter frames.
type Exposure struct {
	Make         string
	Model        string
	ISO          int64
	FNumber      float64  // f/5.6 is 5.6
	ShutterSpeed rat64    // 1/500, 30/1, etc.

	// The exposure value, normalized to ISO 100 - https://en.wikipedia.org/wiki/Exposure_value
	EV           float64
}

func (e Exposure)String() string {
	s := fmt.Sprintf("%s %s: f/%.1f", e.Make, e.Model, e.FNumber)
	if e.ShutterSpeed[1] != 1 {
		s += fmt.Sprintf(", %d/%d", e.ShutterSpeed[0], e.ShutterSpeed[1])
	} else {
		s += fmt.Sprintf(", %ds", e.ShutterSpeed[0])
	}
	return s + fmt.Sprintf(", ISO%d, EV %.2f", e.ISO, e.EV)
}

// Differs is true if the two exposures are more than `stops` apart.
func (e Exposure)Differs(other Exposure, stops float64) bool {
	return math.Abs(e.EV - other.EV) > stops
}

func (e *Exposure)computeEV() error {
	if e.ISO <= 0 || e.FNumber <= 0 || e.ShutterSpeed[0] <= 0 || e.ShutterSpeed[1] <= 0 {
		return fmt.Errorf("exposure info incomplete: %v", e)
	}
	secs := float64(e.ShutterSpeed[0]) / float64(e.ShutterSpeed[1])

	// The higher the ISO, the less physical light was needed
	e.EV = math.Log2(e.FNumber*e.FNumber/secs) - math.Log2(float64(e.ISO)/100.0)
	return nil
}

// ReadExposure pulls the exposure out of a file's EXIF data. Most RAW formats
// are TIFF containers underneath, so this works on ARW, NEF, CR2, DNG etc.
func ReadExposure(filename string) (Exposure, error) {
	e := Exposure{}

	reader, err := os.Open(filename)
	if err != nil {
		return e, fmt.Errorf("open+r exif '%s': %v", filename, err)
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return e, fmt.Errorf("exif parsing '%s': %v", filename, err)
	}

	// Make and Model are nice to have, but not needed
	if tag,err := ex.Get(exif.Make); err == nil {
		e.Make, _ = tag.StringVal()
	}
	if tag,err := ex.Get(exif.Model); err == nil {
		e.Model, _ = tag.StringVal()
	}

	if tag,err := ex.Get(exif.ISOSpeedRatings); err != nil {
		return e, fmt.Errorf("exif ISO '%s': %v", filename, err)
	} else if val,err := tag.Int64(0); err != nil {
		return e, fmt.Errorf("exif ISO '%s': %v", filename, err)
	} else {
		e.ISO = val
	}

	if tag,err := ex.Get(exif.FNumber); err != nil {
		return e, fmt.Errorf("exif FNumber '%s': %v", filename, err)
	} else if num,denom,err := tag.Rat2(0); err != nil {
		return e, fmt.Errorf("exif FNumber '%s': %v", filename, err)
	} else if denom == 0 {
		return e, fmt.Errorf("exif FNumber '%s': zero denominator", filename)
	} else {
		e.FNumber = float64(num) / float64(denom)
	}

	if tag,err := ex.Get(exif.ExposureTime); err != nil {
		return e, fmt.Errorf("exif ExposureTime '%s': %v", filename, err)
	} else if num,denom,err := tag.Rat2(0); err != nil {
		return e, fmt.Errorf("exif ExposureTime '%s': %v", filename, err)
	} else {
		e.ShutterSpeed = rat64{num,denom}
	}

	if err := e.computeEV(); err != nil {
		return e, fmt.Errorf("image '%s' EV: %v", filename, err)
	}

	return e, nil
}
