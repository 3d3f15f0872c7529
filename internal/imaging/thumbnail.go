package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
)

var ErrInvalidImage = errors.New("invalid image")

// MaxSourceEdge bounds either side of an image accepted for decoding. A
// small compressed upload can otherwise expand to gigabytes of pixels.
const MaxSourceEdge = 4096

// Thumbnail decodes src, crops it to a centred square and scales it to
// edge x edge. The result is always PNG.
func Thumbnail(src io.Reader, edge int) ([]byte, error) {
	if edge <= 0 {
		return nil, fmt.Errorf("thumbnail edge must be > 0")
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width > MaxSourceEdge || cfg.Height > MaxSourceEdge {
		return nil, fmt.Errorf("%w: %dx%d exceeds %dx%d", ErrInvalidImage, cfg.Width, cfg.Height, MaxSourceEdge, MaxSourceEdge)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty dimensions", ErrInvalidImage)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, edge, edge))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, coverRect(bounds), xdraw.Src, nil)

	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, dst); err != nil {
		return nil, fmt.Errorf("encoding png thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

// coverRect returns the largest square centred inside bounds.
func coverRect(bounds image.Rectangle) image.Rectangle {
	width, height := bounds.Dx(), bounds.Dy()
	if width == height {
		return bounds
	}

	if width > height {
		offset := (width - height) / 2
		return image.Rect(bounds.Min.X+offset, bounds.Min.Y, bounds.Min.X+offset+height, bounds.Max.Y)
	}

	offset := (height - width) / 2
	return image.Rect(bounds.Min.X, bounds.Min.Y+offset, bounds.Max.X, bounds.Min.Y+offset+width)
}
