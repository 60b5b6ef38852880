package validators

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
)

// multipartOverhead leaves room for the text fields and part headers that
// travel alongside the file.
const multipartOverhead = 64 << 10

// MultipartLimit is the whole-body cap for a form carrying one file of at most
// maxFileBytes.
func MultipartLimit(maxFileBytes int64) int64 {
	return maxFileBytes + multipartOverhead
}

// UploadedFile is a fully buffered multipart file part.
type UploadedFile struct {
	Filename string
	Content  []byte
}

// Form wraps a parsed multipart request.
type Form struct {
	r *http.Request
}

// ParseMultipart caps the request body at maxFileBytes plus form overhead and
// parses it. Oversized bodies are reported as validation errors.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxFileBytes int64) (*Form, error) {
	limit := MultipartLimit(maxFileBytes)
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload is too large").
				WithDetails(map[string]any{"max_bytes": maxFileBytes})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return &Form{r: r}, nil
}

// Value returns the trimmed field. Length limits belong to the service that
// consumes it, so oversized input is rejected rather than cut.
func (f *Form) Value(key string) string {
	return strings.TrimSpace(f.r.FormValue(key))
}

func (f *Form) Bool(key string) (bool, error) {
	raw := strings.TrimSpace(f.r.FormValue(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return v, nil
}

func (f *Form) Int(key string, defaultVal int) (int, error) {
	raw := strings.TrimSpace(f.r.FormValue(key))
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a whole number").WithDetails(map[string]any{"field": key})
	}
	return v, nil
}

// File returns the named part, or nil when it was not sent.
func (f *Form) File(key string) (*UploadedFile, error) {
	file, header, err := f.r.FormFile(key)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid %s upload", key))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("read %s upload", key))
	}
	return &UploadedFile{Filename: header.Filename, Content: content}, nil
}

// Cleanup removes any temp files spilled by the multipart parser.
func (f *Form) Cleanup() {
	if f != nil && f.r.MultipartForm != nil {
		_ = f.r.MultipartForm.RemoveAll()
	}
}
