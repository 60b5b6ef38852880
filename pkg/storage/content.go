package storage

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyContent    = errors.New("file is empty")
	ErrContentTooLarge = errors.New("file is too large")
	ErrContentType     = errors.New("file type not allowed")
)

type ContentGroup string

const (
	GroupImages ContentGroup = "images"
	GroupPDFs   ContentGroup = "PDFs"
)

var groupTypes = map[ContentGroup][]string{
	GroupImages: {"image/png", "image/jpeg", "image/webp", "image/gif", "image/heic", "image/avif"},
	GroupPDFs:   {"application/pdf"},
}

// ContentRule bounds what an upload may contain. The type comes from the
// bytes, never from the client's declared content type.
type ContentRule struct {
	MaxBytes int64
	Groups   []ContentGroup
}

// Check sniffs content and returns the detected type.
func (r ContentRule) Check(content []byte) (*mimetype.MIME, error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}
	if r.MaxBytes > 0 && int64(len(content)) > r.MaxBytes {
		return nil, fmt.Errorf("%w: limit is %d MB", ErrContentTooLarge, r.MaxBytes>>20)
	}

	detected := mimetype.Detect(content)
	for _, group := range r.Groups {
		for _, allowed := range groupTypes[group] {
			if detected.Is(allowed) {
				return detected, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: got %s, expected %s", ErrContentType, detected.String(), r.describe())
}

func (r ContentRule) describe() string {
	names := make([]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		names = append(names, string(g))
	}
	switch len(names) {
	case 0:
		return "nothing"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
	}
}

var unsafeObjectChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeObjectName keeps the base name of a client-supplied filename and
// replaces anything outside [A-Za-z0-9._-].
func SanitizeObjectName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	clean := strings.Trim(unsafeObjectChars.ReplaceAllString(base, "_"), "._")
	if clean == "" {
		return "upload"
	}
	if len(clean) > 100 {
		clean = clean[len(clean)-100:]
	}
	return clean
}
