package rawio

import(
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// An Encoder writes an image to a file.
type Encoder interface {
	Encode(img image.Image, filename string) error
}

// FileEncoder picks the output format from the file extension. Both formats
// keep all 16 bits of each channel.
type FileEncoder struct{}

func IsSupportedOutput(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff", ".png":
		return true
	}
	return false
}

func (FileEncoder)Encode(img image.Image, filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff": return WriteTIFF(img, filename)
	case ".png":          return WritePNG(img, filename)
	}
	return fmt.Errorf("encode '%s': unsupported output format, want .tif, .tiff or .png", filename)
}

func WriteTIFF(img image.Image, filename string) error {
	return writeFile(filename, func(f *os.File) error {
		return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	})
}

func WritePNG(img image.Image, filename string) error {
	return writeFile(filename, func(f *os.File) error {
		return png.Encode(f, img)
	})
}

func writeFile(filename string, encode func(*os.File) error) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}

	if err := encode(writer); err != nil {
		writer.Close()
		return fmt.Errorf("encoding '%s': %v", filename, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close '%s': %v", filename, err)
	}
	return nil
}
