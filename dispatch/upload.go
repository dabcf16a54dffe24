package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kbukum/microhttp/validation"
)

const (
	defaultFileContentType = "application/octet-stream"
	defaultFileField       = "file"
)

var extensionContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".json": "application/json",
	".xml":  "application/xml",
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
}

// ContentTypeForFile infers a MIME type from the file extension, falling back
// to application/octet-stream.
func ContentTypeForFile(name string) string {
	if ct, ok := extensionContentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return defaultFileContentType
}

// FilePart is one file in a multipart upload. Content is borrowed: the
// dispatcher reads it but never closes it, unless the part was opened by
// FileFromPath.
type FilePart struct {
	FileName    string
	Content     io.Reader
	ContentType string
	FieldName   string

	owned io.Closer
}

// NewFilePart describes a caller-owned stream.
func NewFilePart(fileName string, content io.Reader, contentType, fieldName string) *FilePart {
	return &FilePart{FileName: fileName, Content: content, ContentType: contentType, FieldName: fieldName}
}

// FileFromPath opens path for upload. The dispatcher closes the file once the
// upload that carries it is released; call Close to discard an unsent part.
func FileFromPath(path, fieldName string) (*FilePart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newValidationError(fmt.Errorf("open upload file: %w", err))
	}
	name := filepath.Base(path)
	return &FilePart{
		FileName:    name,
		Content:     f,
		ContentType: ContentTypeForFile(name),
		FieldName:   fieldName,
		owned:       f,
	}, nil
}

// Close closes a stream opened by FileFromPath. It is a no-op for borrowed streams.
func (p *FilePart) Close() error {
	if p == nil || p.owned == nil {
		return nil
	}
	c := p.owned
	p.owned = nil
	return c.Close()
}

func (p *FilePart) contentType() string {
	if p.ContentType == "" {
		return defaultFileContentType
	}
	return p.ContentType
}

func (p *FilePart) fieldName() string {
	if p.FieldName == "" {
		return defaultFileField
	}
	return p.FieldName
}

// FileUpload is a multipart/form-data body: a primary file, optional extra
// files and scalar form fields.
type FileUpload struct {
	File            *FilePart
	AdditionalFiles []*FilePart
	FormFields      map[string]string
}

// Validate checks that the primary file and every extra file have a name and content.
func (u *FileUpload) Validate() error {
	v := validation.New()
	if u == nil {
		v.AddError("file", "is required")
		return v.Err()
	}
	v.NotNil("file", u.File)
	if u.File != nil {
		validatePart(v, "file", u.File)
	}
	for i, p := range u.AdditionalFiles {
		field := fmt.Sprintf("additional_files[%d]", i)
		v.NotNil(field, p)
		if p != nil {
			validatePart(v, field, p)
		}
	}
	return v.Err()
}

func validatePart(v *validation.Validator, field string, p *FilePart) {
	v.Required(field+".file_name", p.FileName).
		NotNil(field+".content", p.Content)
}

func (u *FileUpload) parts() []*FilePart {
	parts := make([]*FilePart, 0, 1+len(u.AdditionalFiles))
	parts = append(parts, u.File)
	return append(parts, u.AdditionalFiles...)
}

func (u *FileUpload) closeOwned() {
	if u == nil {
		return
	}
	for _, p := range u.parts() {
		_ = p.Close()
	}
}

// multipartContent streams the upload through a pipe so file contents are
// read only as the transport consumes the body.
func multipartContent(u *FileUpload) content {
	return func(msg *OutboundMessage) error {
		if err := u.Validate(); err != nil {
			u.closeOwned()
			return newValidationError(err)
		}
		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = pw.CloseWithError(writeMultipart(mw, u))
		}()

		msg.Body = pr
		msg.ContentType = mw.FormDataContentType()
		msg.Own(&pipeCloser{r: pr, done: done})
		for _, p := range u.parts() {
			if p.owned != nil {
				msg.Own(ownedPart{p})
			}
		}
		return nil
	}
}

func writeMultipart(mw *multipart.Writer, u *FileUpload) error {
	for _, p := range u.parts() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			`form-data; name="`+escapeQuotes(p.fieldName())+`"; filename="`+escapeQuotes(p.FileName)+`"`)
		header.Set("Content-Type", p.contentType())
		part, err := mw.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, p.Content); err != nil {
			return fmt.Errorf("copy %s: %w", p.FileName, err)
		}
	}
	keys := make([]string, 0, len(u.FormFields))
	for k := range u.FormFields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, u.FormFields[k]); err != nil {
			return err
		}
	}
	return mw.Close()
}

// pipeCloser stops the writer goroutine and waits for it before owned files
// are closed.
type pipeCloser struct {
	r    *io.PipeReader
	done chan struct{}
}

func (c *pipeCloser) Close() error {
	_ = c.r.CloseWithError(errUploadReleased)
	<-c.done
	return nil
}

type ownedPart struct{ p *FilePart }

func (o ownedPart) Close() error {
	err := o.p.Close()
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

var errUploadReleased = errors.New("upload released")

// escapeQuotes replaces special characters in header values.
func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// PostFile uploads a multipart body and decodes the response into T.
func PostFile[T any](ctx context.Context, d *Dispatcher, url string, upload *FileUpload, rc *RequestContext) (T, error) {
	if upload == nil {
		var zero T
		return zero, newValidationError(errNilUpload)
	}
	return fetch[T](ctx, d, http.MethodPost, url, multipartContent(upload), rc)
}

// PostFile uploads a multipart body and discards the response body.
func (d *Dispatcher) PostFile(ctx context.Context, url string, upload *FileUpload, rc *RequestContext) error {
	if upload == nil {
		return newValidationError(errNilUpload)
	}
	return d.do(ctx, http.MethodPost, url, multipartContent(upload), rc, nil)
}
