package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
)

var (
	// ErrInvalidImage indicates a payload that could not be decoded.
	ErrInvalidImage = errors.New("invalid image data")

	// ErrUnsupportedFormat indicates a payload in a format outside the
	// supported set (PNG, JPEG, GIF).
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// supportedFormats lists the decoder names registered above.
var supportedFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
	"gif":  true,
}

// Decode decodes raw image bytes into an image.Image.
//
// Parameters:
//   - data: Raw image file contents. Supported formats are PNG, JPEG, and GIF.
//
// Returns:
//   - image.Image: The decoded image. The concrete type depends on the image
//     format and color model (e.g., *image.RGBA, *image.NRGBA, *image.YCbCr).
//   - string: The detected format name ("png", "jpeg", or "gif").
//   - error: ErrUnsupportedFormat (wrapped) if the bytes are not in a supported
//     format, ErrInvalidImage (wrapped) if the bytes are in a recognized format
//     but corrupt.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	if !supportedFormats[format] {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return img, format, nil
}
