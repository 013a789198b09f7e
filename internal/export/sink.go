package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
)

const ContentTypePDF = "application/pdf"

// FileSink writes into Dir through a temp file that is renamed into place,
// so a failed write never leaves a partial PDF under the final name.
type FileSink struct {
	Dir string
}

func (s FileSink) Save(ctx context.Context, filename string, r io.Reader, _ int64) (err error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, ".download-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.Dir, filepath.Base(filename)))
}

// ResponseSink streams the PDF as an HTTP attachment.
type ResponseSink struct {
	W http.ResponseWriter
}

func (s ResponseSink) Save(_ context.Context, filename string, r io.Reader, size int64) error {
	h := s.W.Header()
	h.Set("Content-Type", ContentTypePDF)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
	}
	s.W.WriteHeader(http.StatusOK)
	_, err := io.Copy(s.W, r)
	return err
}

// Uploader stores an object and returns its download URL.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// ObjectSink archives the PDF in object storage under Prefix.
type ObjectSink struct {
	Uploader Uploader
	Prefix   string

	// URL is set to the archived object's download URL after a
	// successful Save.
	URL string
}

func (s *ObjectSink) Save(ctx context.Context, filename string, r io.Reader, size int64) error {
	url, err := s.Uploader.Upload(ctx, path.Join(s.Prefix, filename), r, size, ContentTypePDF)
	if err != nil {
		return err
	}
	s.URL = url
	return nil
}
