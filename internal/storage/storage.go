// Package storage keeps logos and archived PDFs in an S3-compatible
// bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/patrickmn/go-cache"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"go.uber.org/zap"
)

// Transport failures come back marked ierr.ErrCollaborator.
var (
	ErrObjectNotFound = ierr.NewError("object_not_found").
				WithHint("The file could not be found.").
				Mark(ierr.ErrNotFound)
	ErrForeignURL = ierr.NewError("url_not_in_bucket").
			Mark(ierr.ErrValidation)
)

const (
	fetchCacheTTL   = 10 * time.Minute
	maxFetchElapsed = 5 * time.Second
)

// objectAPI is the subset of the minio client the service uses.
type objectAPI interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Service stores objects and resolves them by their public URL.
type Service struct {
	api     objectAPI
	bucket  string
	baseURL string
	cache   *cache.Cache
	log     *zap.Logger
}

func newService(api objectAPI, bucket, baseURL string, log *zap.Logger) *Service {
	return &Service{
		api:     api,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache.New(fetchCacheTTL, 2*fetchCacheTTL),
		log:     log.Named("storage"),
	}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Service) EnsureBucket(ctx context.Context) error {
	found, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return ierr.Collaborator(err, "storage.bucket_exists")
	}
	if !found {
		if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return ierr.Collaborator(err, "storage.make_bucket")
		}
	}
	return nil
}

// Put uploads r under key and returns the download URL. progress, when
// set, receives the running byte count.
func (s *Service) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, progress func(int64)) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if progress != nil {
		opts.Progress = &progressReader{report: progress}
	}
	if _, err := s.api.PutObject(ctx, s.bucket, key, r, size, opts); err != nil {
		return "", ierr.Collaborator(err, "storage.put")
	}
	return s.URL(key), nil
}

// Upload is Put without progress reporting.
func (s *Service) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	return s.Put(ctx, key, r, size, contentType, nil)
}

// Delete removes the object behind url.
func (s *Service) Delete(ctx context.Context, url string) error {
	key, err := s.Key(url)
	if err != nil {
		return err
	}
	s.cache.Delete(url)
	if err := s.api.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return ierr.Collaborator(err, "storage.delete")
	}
	return nil
}

// Fetch downloads the object behind url. Transient failures are retried
// with exponential backoff; results are cached briefly.
func (s *Service) Fetch(ctx context.Context, url string) ([]byte, error) {
	if data, ok := s.cache.Get(url); ok {
		return data.([]byte), nil
	}
	key, err := s.Key(url)
	if err != nil {
		return nil, err
	}

	var data []byte
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = maxFetchElapsed

	err = backoff.Retry(func() error {
		body, err := s.api.Get(ctx, s.bucket, key)
		if err != nil {
			return classify(err)
		}
		defer body.Close()

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, body); err != nil {
			return classify(err)
		}
		data = buf.Bytes()
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		s.log.Warn("fetch failed", zap.String("key", key), zap.Error(err))
		if ierr.Is(err, ErrObjectNotFound) {
			return nil, err
		}
		return nil, ierr.Collaborator(err, "storage.fetch")
	}

	s.cache.SetDefault(url, data)
	return data, nil
}

// URL returns the public download URL of key.
func (s *Service) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, strings.TrimLeft(key, "/"))
}

// Key resolves a download URL back to its object key.
func (s *Service) Key(url string) (string, error) {
	prefix := fmt.Sprintf("%s/%s/", s.baseURL, s.bucket)
	key, ok := strings.CutPrefix(url, prefix)
	if !ok || key == "" {
		return "", ErrForeignURL
	}
	return key, nil
}

// classify marks errors that retrying cannot fix as permanent.
func classify(err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(ErrObjectNotFound)
	case resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return backoff.Permanent(err)
	}
	return err
}

type progressReader struct {
	total  int64
	report func(int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	p.total += int64(len(b))
	p.report(p.total)
	return len(b), nil
}
