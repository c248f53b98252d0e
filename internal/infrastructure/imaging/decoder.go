package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	// Raster formats accepted on upload
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/nutriscan/backend/internal/domain"
)

// Decoder turns uploaded images into rasters. The raster is returned exactly as
// encoded: no resizing, rotation or color correction.
type Decoder struct{}

// NewDecoder creates a new image decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeBase64 decodes a base64 image, optionally prefixed with a
// "data:<mime>;base64," header.
func (d *Decoder) DecodeBase64(payload string) (image.Image, error) {
	raw, err := DecodeBase64Payload(payload)
	if err != nil {
		return nil, err
	}
	img, _, err := Decode(raw)
	return img, err
}

// DecodeBase64Payload strips an optional data-URL header and returns the decoded bytes.
// Whitespace anywhere in the payload is ignored, so line-wrapped base64 decodes.
func DecodeBase64Payload(payload string) ([]byte, error) {
	payload = strings.Join(strings.Fields(StripDataURLPrefix(strings.TrimSpace(payload))), "")
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidImage)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients drop the padding
		var rawErr error
		raw, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("%w: bad base64: %v", domain.ErrInvalidImage, err)
		}
	}
	return raw, nil
}

// StripDataURLPrefix removes everything up to and including the first comma,
// which covers "data:image/png;base64," style headers.
func StripDataURLPrefix(payload string) string {
	if _, after, found := strings.Cut(payload, ","); found {
		return after
	}
	return payload
}

// Decode decodes raw image bytes and reports the detected format name
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: no image data", domain.ErrInvalidImage)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, "", fmt.Errorf("%w: empty raster", domain.ErrInvalidImage)
	}

	return img, format, nil
}
