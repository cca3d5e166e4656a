package rawio

import(
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/abworrall/rawstack/pkg/emath"
)

var ErrDecodeFailure = errors.New("decode failure")

// A DecodeError says which file could not be decoded, and why. It matches
// ErrDecodeFailure with errors.Is.
type DecodeError struct {
	Filename string
	Err      error
}

func (e *DecodeError)Error() string         { return fmt.Sprintf("decode '%s': %v", e.Filename, e.Err) }
func (e *DecodeError)Unwrap() error         { return e.Err }
func (e *DecodeError)Is(target error) bool  { return target == ErrDecodeFailure }

// A Decoder turns one input file into a grid of 16-bit scale values.
type Decoder interface {
	Decode(ctx context.Context, filename string, brand Brand) (emath.FloatGrid, error)
}

// TIFFDecoder loads images that have already been developed into TIFFs.
type TIFFDecoder struct{}

func (TIFFDecoder)Decode(ctx context.Context, filename string, brand Brand) (emath.FloatGrid, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return emath.FloatGrid{}, &DecodeError{filename, err}
	}
	defer reader.Close()

	img, err := tiff.Decode(reader)
	if err != nil {
		return emath.FloatGrid{}, &DecodeError{filename, fmt.Errorf("tiff loading: %v", err)}
	}
	return emath.NewFloatGridFromImage(img), nil
}

// DcrawDecoder develops RAW files by running dcraw, which writes a 16-bit
// TIFF to stdout; the per-brand Options pick the dcraw flags.
type DcrawDecoder struct {
	Binary  string       // defaults to "dcraw", found via $PATH
	Options OptionsTable // nil means DefaultOptionsTable()
}

func (d DcrawDecoder)binary() string {
	if d.Binary == "" {
		return "dcraw"
	}
	return d.Binary
}

func (d DcrawDecoder)options(b Brand) Options {
	if d.Options == nil {
		return DefaultOptionsTable().Lookup(b)
	}
	return d.Options.Lookup(b)
}

// DcrawArgs builds the command line, minus the binary, for developing filename.
// We always ask for camera white balance and 16 bits per sample.
func DcrawArgs(o Options, filename string) []string {
	args := []string{"-c", "-T", "-6", "-w", "-q", strconv.Itoa(o.Demosaic)}
	if !o.AutoBright {
		args = append(args, "-W")
	}
	if o.Brightness > 0 && o.Brightness != 1.0 {
		args = append(args, "-b", strconv.FormatFloat(o.Brightness, 'f', -1, 64))
	}
	if o.NoiseThreshold > 0 {
		args = append(args, "-n", strconv.Itoa(o.NoiseThreshold))
	}
	return append(args, filename)
}

func (d DcrawDecoder)Decode(ctx context.Context, filename string, brand Brand) (emath.FloatGrid, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, d.binary(), DcrawArgs(d.options(brand), filename)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%s: %v: %s", d.binary(), err, msg)
		}
		return emath.FloatGrid{}, &DecodeError{filename, err}
	}

	img, err := tiff.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return emath.FloatGrid{}, &DecodeError{filename, fmt.Errorf("tiff from %s: %v", d.binary(), err)}
	}
	return emath.NewFloatGridFromImage(img), nil
}

// AutoDecoder sends developed TIFFs to the TIFF decoder, and everything else to dcraw.
type AutoDecoder struct {
	TIFF Decoder
	Raw  Decoder
}

func NewAutoDecoder(dcrawBinary string, opts OptionsTable) AutoDecoder {
	return AutoDecoder{
		TIFF: TIFFDecoder{},
		Raw:  DcrawDecoder{Binary: dcrawBinary, Options: opts},
	}
}

func (ad AutoDecoder)Decode(ctx context.Context, filename string, brand Brand) (emath.FloatGrid, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		return ad.TIFF.Decode(ctx, filename, brand)
	}
	return ad.Raw.Decode(ctx, filename, brand)
}
