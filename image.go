package picperfect

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ak-arsha/Picture-Perfect/utils"
	"github.com/disintegration/imaging"
)

// jpegQuality is used for every JPEG the processor writes.
const jpegQuality = 95

// ErrUnsupportedFormat is returned for destinations whose extension has no encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// SupportedExtensions lists the file extensions the processor reads and writes.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}

// Decode decodes an image, applying the EXIF orientation of JPEG sources.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("could not decode the source image: %w", err)
	}
	return img, nil
}

// FormatFromName resolves the encoder from the extension of a file name, which may
// also be given alone (".png"). A name without extension selects JPEG.
func FormatFromName(name string) (imaging.Format, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return imaging.JPEG, nil
	}
	f, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// Encode encodes an image to a destination of type io.Writer. The format comes
// from name when set, otherwise from the file name of w; anything else is JPEG.
func Encode(w io.Writer, img *image.NRGBA, name string) error {
	if name == "" {
		if f, ok := w.(*os.File); ok && f != os.Stdout {
			name = filepath.Ext(f.Name())
		}
	}
	format, err := FormatFromName(name)
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, format, imaging.JPEGQuality(jpegQuality))
}

// isValidExtension reports whether ext names a supported image type.
func isValidExtension(ext string) bool {
	return utils.Contains(SupportedExtensions, strings.ToLower(ext))
}
