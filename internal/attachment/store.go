// Package attachment stores post images and removes them once orphaned.
package attachment

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"unicode"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrUnsupportedType indicates the upload is not a png or jpeg image.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrInvalidRef indicates a reference that does not belong to the store.
	ErrInvalidRef = errors.New("invalid attachment reference")
)

// Store persists image bytes and hands back a reference string.
type Store interface {
	Save(ctx context.Context, upload Upload) (string, error)
	Remove(ctx context.Context, ref string) error
}

// Upload is an image received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

// IsAllowedType reports whether contentType is an accepted image type.
func IsAllowedType(contentType string) bool {
	return allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
}

// SniffImage detects the content type from the first bytes of body.
// The returned Upload replays the sniffed bytes. Non-images yield ErrUnsupportedType.
func SniffImage(filename string, size int64, body io.Reader) (Upload, error) {
	br := bufio.NewReaderSize(body, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return Upload{}, err
	}

	contentType := http.DetectContentType(head)
	if !IsAllowedType(contentType) {
		return Upload{}, ErrUnsupportedType
	}

	return Upload{
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		Body:        br,
	}, nil
}

// objectName builds a unique, path-safe name that keeps the client's base name.
func objectName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return '-'
		default:
			return -1
		}
	}, base)
	clean = strings.TrimLeft(clean, ".")
	if len(clean) > 100 {
		clean = clean[len(clean)-100:]
	}
	if clean == "" {
		clean = "image"
	}
	return ulid.Make().String() + "-" + clean
}

// splitRef separates "<prefix>/<name>" and rejects anything that could
// escape the prefix.
func splitRef(ref, prefix string) (string, error) {
	rest, ok := strings.CutPrefix(ref, prefix+"/")
	if !ok || rest == "" || rest == "." || rest == ".." || strings.ContainsAny(rest, "/\\") {
		return "", ErrInvalidRef
	}
	return rest, nil
}
