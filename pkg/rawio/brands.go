package rawio

import(
	"fmt"
	"path/filepath"
	"strings"
)

// A Brand is a camera maker, as far as we can tell from a file extension.
type Brand string

const(
	Sony      Brand = "sony"
	Canon     Brand = "canon"
	Nikon     Brand = "nikon"
	Fujifilm  Brand = "fujifilm"
	Olympus   Brand = "olympus"
	Panasonic Brand = "panasonic"
	Leica     Brand = "leica"
	Pentax    Brand = "pentax"
	Adobe     Brand = "adobe"     // DNGs from converters, phones etc.
	Developed Brand = "developed" // already-developed 16-bit TIFFs, e.g. exported from lightroom
)

type brandExtensions struct {
	Brand
	Extensions []string
}

// The order matters: an extension claimed by several brands belongs to the first one listed.
var brandTable = []brandExtensions{
	{Sony,      []string{".arw", ".srf", ".sr2"}},
	{Canon,     []string{".cr2", ".cr3", ".crw"}},
	{Nikon,     []string{".nef", ".nrw"}},
	{Fujifilm,  []string{".raf"}},
	{Olympus,   []string{".orf"}},
	{Panasonic, []string{".rw2", ".raw"}},
	{Leica,     []string{".rwl", ".raw", ".dng"}},
	{Pentax,    []string{".pef", ".dng"}},
	{Adobe,     []string{".dng"}},
	{Developed, []string{".tif", ".tiff"}},
}

var extToBrand = func() map[string]Brand {
	m := map[string]Brand{}
	for _, be := range brandTable {
		for _, ext := range be.Extensions {
			if _, exists := m[ext]; !exists {
				m[ext] = be.Brand
			}
		}
	}
	return m
}()

// BrandForFile returns the brand for a filename, based on its extension (case-insensitive).
func BrandForFile(filename string) (Brand, bool) {
	b, exists := extToBrand[strings.ToLower(filepath.Ext(filename))]
	return b, exists
}

// Extensions lists every eligible extension once, in table order.
func Extensions() []string {
	exts := []string{}
	for _, be := range brandTable {
		for _, ext := range be.Extensions {
			if extToBrand[ext] == be.Brand {
				exts = append(exts, ext)
			}
		}
	}
	return exts
}

func IsEligible(filename string) bool {
	_, exists := BrandForFile(filename)
	return exists
}

func ParseBrand(s string) (Brand, error) {
	for _, be := range brandTable {
		if string(be.Brand) == strings.ToLower(s) {
			return be.Brand, nil
		}
	}
	return "", fmt.Errorf("no brand named '%s'", s)
}

// Options control how a RAW file gets developed. They map onto dcraw flags.
type Options struct {
	Demosaic       int     // 0=bilinear, 1=VNG, 2=PPG, 3=AHD (dcraw -q)
	AutoBright     bool    // if false, pass -W
	Brightness     float64 // dcraw -b; 1.0 leaves it alone
	NoiseThreshold int     // wavelet denoise (dcraw -n), 0 to disable
}

func (o Options)String() string {
	return fmt.Sprintf("q%d, autobright=%v, bright=%.2f, noise=%d", o.Demosaic, o.AutoBright, o.Brightness, o.NoiseThreshold)
}

func (o Options)Validate() error {
	if o.Demosaic < 0 || o.Demosaic > 3 {
		return fmt.Errorf("demosaic %d not in [0,3]", o.Demosaic)
	} else if o.Brightness <= 0 {
		return fmt.Errorf("brightness %f must be > 0", o.Brightness)
	} else if o.NoiseThreshold < 0 {
		return fmt.Errorf("noisethreshold %d must be >= 0", o.NoiseThreshold)
	}
	return nil
}

var DefaultOptions = Options{Demosaic: 2, AutoBright: true, Brightness: 1.0}

// An OptionsTable maps brands onto their development options. Brands not in
// the table get DefaultOptions.
type OptionsTable map[Brand]Options

func DefaultOptionsTable() OptionsTable {
	return OptionsTable{
		// Sony files clip easily with auto-brightening; keep them linear, use the best demosaic
		Sony:  Options{Demosaic: 3, AutoBright: false, Brightness: 1.0},
		// Canon comes out dark and a bit soft; lift it, and knock back the noise
		Canon: Options{Demosaic: 2, AutoBright: true, Brightness: 1.2, NoiseThreshold: 100},
	}
}

func (ot OptionsTable)Lookup(b Brand) Options {
	if o, exists := ot[b]; exists {
		return o
	}
	return DefaultOptions
}

// With returns a copy of the table, with overrides (keyed by brand name) applied.
func (ot OptionsTable)With(overrides map[string]Options) (OptionsTable, error) {
	ret := OptionsTable{}
	for b, o := range ot {
		ret[b] = o
	}
	for name, o := range overrides {
		b, err := ParseBrand(name)
		if err != nil {
			return nil, err
		}
		if o.Brightness == 0 {
			o.Brightness = 1.0 // left out of the config file
		}
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("brand '%s': %v", name, err)
		}
		ret[b] = o
	}
	return ret, nil
}
