package dispatch

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type part struct {
	field, file, contentType, body string
}

func parseMultipart(t *testing.T, req recorded) []part {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(req.ContentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart content type, got %q (%v)", req.ContentType, err)
	}
	r := multipart.NewReader(strings.NewReader(req.Body), params["boundary"])
	var parts []part
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			return parts
		}
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		data, _ := io.ReadAll(p)
		parts = append(parts, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(data)})
	}
}

type borrowedReader struct {
	io.Reader
	closes int
}

func (b *borrowedReader) Close() error {
	b.closes++
	return nil
}

func TestPostFile_Multipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.PDF")
	if err := os.WriteFile(path, []byte("%PDF-1.7"), 0o600); err != nil {
		t.Fatal(err)
	}
	extra, err := FileFromPath(path, "attachment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	primary := &borrowedReader{Reader: strings.NewReader("hello")}

	f := newFake(jsonReply(`{"id":9}`))
	upload := &FileUpload{
		File:            NewFilePart("hello.txt", primary, "", ""),
		AdditionalFiles: []*FilePart{extra},
		FormFields:      map[string]string{"title": "Q3", "author": "ops"},
	}
	w, err := PostFile[widget](context.Background(), New(f), "/uploads", upload, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID != 9 {
		t.Errorf("expected decoded response, got %+v", w)
	}

	parts := parseMultipart(t, f.last())
	want := []part{
		{"file", "hello.txt", "application/octet-stream", "hello"},
		{"attachment", "report.PDF", "application/pdf", "%PDF-1.7"},
		{"author", "", "", "ops"},
		{"title", "", "", "Q3"},
	}
	if len(parts) != len(want) {
		t.Fatalf("expected %d parts, got %+v", len(want), parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d: expected %+v, got %+v", i, want[i], parts[i])
		}
	}

	if primary.closes != 0 {
		t.Errorf("expected borrowed stream left open, got %d closes", primary.closes)
	}
	file := extra.Content.(*os.File)
	if err := file.Close(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("expected owned file closed by the dispatcher, got %v", err)
	}
}

func TestPostFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		upload *FileUpload
	}{
		{"nil upload", nil},
		{"missing file", &FileUpload{}},
		{"missing name", &FileUpload{File: NewFilePart("", strings.NewReader("x"), "", "")}},
		{"missing content", &FileUpload{File: NewFilePart("a.txt", nil, "", "")}},
		{"nil additional", &FileUpload{File: NewFilePart("a.txt", strings.NewReader("x"), "", ""), AdditionalFiles: []*FilePart{nil}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFake(jsonReply(`{}`))
			err := New(f).PostFile(context.Background(), "/uploads", tc.upload, nil)
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if f.sends.Load() != 0 {
				t.Errorf("expected no transport call, got %d", f.sends.Load())
			}
		})
	}
}

func TestPostFile_ClosesOwnedFileOnEarlyFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	part, err := FileFromPath(path, "")
	if err != nil {
		t.Fatal(err)
	}
	f := newFake(jsonReply(`{}`))
	fail := RequestInterceptorFunc(func(context.Context, *OutboundMessage) (*OutboundMessage, error) {
		return nil, errors.New("denied")
	})

	err = New(f).PostFile(context.Background(), "/uploads", &FileUpload{File: part}, NewContext(WithRequestInterceptors(fail)))
	if !IsInterceptor(err) {
		t.Fatalf("expected interceptor error, got %v", err)
	}
	if err := part.Content.(*os.File).Close(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("expected owned file closed, got %v", err)
	}
}

func TestFileFromPath_Missing(t *testing.T) {
	if _, err := FileFromPath(filepath.Join(t.TempDir(), "nope.bin"), "file"); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestContentTypeForFile(t *testing.T) {
	tests := map[string]string{
		"a.jpg":     "image/jpeg",
		"a.JPEG":    "image/jpeg",
		"a.png":     "image/png",
		"a.gif":     "image/gif",
		"a.pdf":     "application/pdf",
		"a.txt":     "text/plain",
		"a.json":    "application/json",
		"a.xml":     "application/xml",
		"a.html":    "text/html",
		"a.css":     "text/css",
		"a.js":      "application/javascript",
		"a.tar.gz":  "application/octet-stream",
		"no-suffix": "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentTypeForFile(name); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}
