package imageprobe

import (
	"bytes"
	"image"
	"image/png"
	"io"

	// Decoders for every format accepted in payloads.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/slidegrid/pkg/errors"
)

// DecodeConfig reads only the image header and returns its size and format
// name ("png", "jpeg", "gif", "webp", "bmp", "tiff").
func DecodeConfig(r io.Reader) (Size, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Size{}, "", errors.Wrap(errors.ErrCodeImageRead, err, "decode header")
	}
	return Size{Width: cfg.Width, Height: cfg.Height}, format, nil
}

// Decode decodes a full image.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeImageRead, err, "decode image")
	}
	return img, format, nil
}

// Normalize returns data in a format document encoders embed directly.
// PNG, JPEG and GIF pass through unchanged; anything else is re-encoded as
// PNG. The returned type is "png", "jpg" or "gif".
func Normalize(data []byte) ([]byte, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeImageRead, err, "decode header")
	}
	switch format {
	case "png", "gif":
		return data, format, nil
	case "jpeg":
		return data, "jpg", nil
	}

	img, _, err := Decode(data)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "re-encode %s as png", format)
	}
	return buf.Bytes(), "png", nil
}
