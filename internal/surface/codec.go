package surface

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"FrameStudio/internal/state"
)

var errEmptyBuffer = errors.New("empty buffer")

// EncodePNG encodes img as a PNG frame buffer, keeping the alpha channel.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePNG decodes a frame buffer. Any failure, including an empty
// buffer, comes back as a *state.DecodeError carrying the frame id.
func DecodePNG(id int, buf []byte) (image.Image, error) {
	if len(buf) == 0 {
		return nil, &state.DecodeError{ID: id, Err: errEmptyBuffer}
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, &state.DecodeError{ID: id, Err: err}
	}
	return img, nil
}

// CheckPNG validates the header of a frame buffer without decoding pixels.
func CheckPNG(id int, buf []byte) (image.Config, error) {
	if len(buf) == 0 {
		return image.Config{}, &state.DecodeError{ID: id, Err: errEmptyBuffer}
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return image.Config{}, &state.DecodeError{ID: id, Err: err}
	}
	return cfg, nil
}
