package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
)

type productBody struct {
	Name  string          `json:"name" validate:"required,max=10"`
	Price decimal.Decimal `json:"price" validate:"gt=0"`
}

func codeOf(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return ""
}

func TestDecodeJSONBodyAcceptsStringDecimal(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Sandals","price":"5000.50"}`))
	var body productBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Price.Equal(decimal.RequireFromString("5000.50")) {
		t.Fatalf("unexpected price %s", body.Price)
	}
}

func TestDecodeJSONBodyValidation(t *testing.T) {
	cases := map[string]string{
		"empty body":    ``,
		"unknown field": `{"name":"a","price":1,"colour":"red"}`,
		"zero price":    `{"name":"a","price":"0"}`,
		"missing name":  `{"price":"10"}`,
		"malformed":     `{"name":`,
	}
	for name, payload := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		var body productBody
		err := DecodeJSONBody(req, &body)
		if codeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestDecodeJSONBodyFieldDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"far too long a name","price":"1"}`))
	var body productBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error")
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["name"] != "must be at most 10" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeOptionalJSONBodyAllowsEmpty(t *testing.T) {
	var body struct {
		AccountID string `json:"account_id" validate:"omitempty,uuid"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := DecodeOptionalJSONBody(req, &body); err != nil {
		t.Fatalf("expected empty body to pass, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 10, 1, 100); codeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected range error, got %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if v, err := ParseQueryInt(req, "limit", 10, 1, 100); err != nil || v != 10 {
		t.Fatalf("expected default 10, got %d %v", v, err)
	}
}

func multipartRequest(t *testing.T, fields map[string]string, fileField, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestParseMultipartReadsFieldsAndFile(t *testing.T) {
	req := multipartRequest(t, map[string]string{"quantity": "3", "delete_old": "true", "name": "  Ada  "}, "proof", "receipt.png", []byte("png-bytes"))
	form, err := ParseMultipart(httptest.NewRecorder(), req, 1<<20)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer form.Cleanup()

	if got := form.Value("name"); got != "Ada" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if qty, err := form.Int("quantity", 1); err != nil || qty != 3 {
		t.Fatalf("expected quantity 3, got %d %v", qty, err)
	}
	if del, err := form.Bool("delete_old"); err != nil || !del {
		t.Fatalf("expected delete_old true, got %v %v", del, err)
	}
	file, err := form.File("proof")
	if err != nil || file == nil {
		t.Fatalf("expected file, got %v %v", file, err)
	}
	if file.Filename != "receipt.png" || string(file.Content) != "png-bytes" {
		t.Fatalf("unexpected file %+v", file)
	}
	if missing, err := form.File("other"); err != nil || missing != nil {
		t.Fatalf("expected missing file to be nil, got %v %v", missing, err)
	}
}

func TestParseMultipartRejectsBadNumbers(t *testing.T) {
	req := multipartRequest(t, map[string]string{"quantity": "three", "delete_old": "maybe"}, "", "", nil)
	form, err := ParseMultipart(httptest.NewRecorder(), req, 1<<20)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := form.Int("quantity", 1); codeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := form.Bool("delete_old"); codeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseMultipartRejectsOversizedBody(t *testing.T) {
	req := multipartRequest(t, nil, "image", "big.png", bytes.Repeat([]byte("a"), 200<<10))
	_, err := ParseMultipart(httptest.NewRecorder(), req, 1<<10)
	if codeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello world  ", 5); got != "hello" {
		t.Fatalf("unexpected %q", got)
	}
}
