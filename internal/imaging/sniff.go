package imaging

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

var (
	ErrDisallowedExtension = errors.New("only image files are accepted (jpg/jpeg/png)")
	ErrDisallowedType      = errors.New("disallowed image mime type")
	ErrExecutableFile      = errors.New("executable files are not allowed")
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

var allowedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

// CheckFilename accepts only .jpg, .jpeg and .png names.
func CheckFilename(name string) error {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	if _, ok := allowedExtensions[ext]; !ok {
		return ErrDisallowedExtension
	}
	return nil
}

// Sniff inspects the first bytes of src and returns a reader that still
// yields the full stream.
func Sniff(src io.Reader) (io.Reader, error) {
	sniff := make([]byte, 512)
	n, err := io.ReadFull(src, sniff)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	sniff = sniff[:n]

	if isExecutableSignature(sniff) {
		return nil, ErrExecutableFile
	}
	if _, ok := allowedMimeTypes[detectMimeType(sniff)]; !ok {
		return nil, ErrDisallowedType
	}

	return io.MultiReader(bytes.NewReader(sniff), src), nil
}

func detectMimeType(sniff []byte) string {
	if len(sniff) == 0 {
		return "application/octet-stream"
	}

	return trimMimeParams(http.DetectContentType(sniff))
}

func trimMimeParams(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		return strings.TrimSpace(contentType[:idx])
	}
	return strings.TrimSpace(contentType)
}

func isExecutableSignature(sniff []byte) bool {
	if len(sniff) < 2 {
		return false
	}

	if sniff[0] == 'M' && sniff[1] == 'Z' {
		return true // PE/COFF (Windows)
	}
	if len(sniff) >= 4 && bytes.Equal(sniff[:4], []byte{0x7f, 'E', 'L', 'F'}) {
		return true
	}

	return sniff[0] == '#' && sniff[1] == '!'
}
