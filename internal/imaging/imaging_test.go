package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestThumbnailProducesSquarePNG(t *testing.T) {
	for _, size := range []struct{ w, h int }{{400, 300}, {120, 500}, {250, 250}, {10, 10}} {
		out, err := Thumbnail(bytes.NewReader(encodePNG(t, size.w, size.h)), 250)
		require.NoError(t, err)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, 250, cfg.Width)
		assert.Equal(t, 250, cfg.Height)
	}
}

func TestThumbnailAcceptsJPEG(t *testing.T) {
	out, err := Thumbnail(bytes.NewReader(encodeJPEG(t, 64, 32)), 16)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 16, cfg.Width)
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	_, err := Thumbnail(bytes.NewReader([]byte("definitely not an image")), 250)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestThumbnailRejectsOversizedSource(t *testing.T) {
	for _, size := range []struct{ w, h int }{{MaxSourceEdge + 1, 1}, {1, 5000}} {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, size.w, size.h))))

		_, err := Thumbnail(&buf, 250)
		assert.ErrorIs(t, err, ErrInvalidImage)
	}
}

func TestThumbnailAcceptsMaxSourceEdge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, MaxSourceEdge, 2))))

	out, err := Thumbnail(&buf, 8)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
}

func TestCoverRect(t *testing.T) {
	assert.Equal(t, image.Rect(50, 0, 350, 300), coverRect(image.Rect(0, 0, 400, 300)))
	assert.Equal(t, image.Rect(0, 50, 300, 350), coverRect(image.Rect(0, 0, 300, 400)))
	assert.Equal(t, image.Rect(0, 0, 10, 10), coverRect(image.Rect(0, 0, 10, 10)))
}

func TestCheckFilename(t *testing.T) {
	for _, name := range []string{"me.jpg", "me.JPEG", "photo.png"} {
		assert.NoError(t, CheckFilename(name), name)
	}
	for _, name := range []string{"me.gif", "doc.pdf", "noext", "evil.png.exe"} {
		assert.ErrorIs(t, CheckFilename(name), ErrDisallowedExtension, name)
	}
}

func TestSniffPreservesStream(t *testing.T) {
	data := encodePNG(t, 40, 40)

	r, err := Sniff(bytes.NewReader(data))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestSniffRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "pe", data: []byte("MZ\x90\x00rest"), want: ErrExecutableFile},
		{name: "elf", data: []byte{0x7f, 'E', 'L', 'F', 2, 1}, want: ErrExecutableFile},
		{name: "script", data: []byte("#!/bin/sh\necho hi"), want: ErrExecutableFile},
		{name: "text", data: []byte("hello"), want: ErrDisallowedType},
		{name: "gif", data: []byte("GIF89a\x01\x00\x01\x00"), want: ErrDisallowedType},
		{name: "empty", data: nil, want: ErrDisallowedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sniff(bytes.NewReader(tt.data))
			assert.True(t, errors.Is(err, tt.want), "err = %v, want %v", err, tt.want)
		})
	}
}
