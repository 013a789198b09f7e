package storage

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/smallbiznis/bytebills/internal/config"
	"go.uber.org/zap"
)

// minioAPI adapts *minio.Client to objectAPI.
type minioAPI struct {
	*minio.Client
}

func (m minioAPI) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before reading.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

func NewMinioClient(cfg config.Config) (*minio.Client, error) {
	return minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
}

func New(client *minio.Client, cfg config.Config, log *zap.Logger) *Service {
	base := cfg.Storage.PublicURL
	if base == "" {
		scheme := "http"
		if cfg.Storage.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Storage.Endpoint
	}
	return newService(minioAPI{client}, cfg.Storage.Bucket, base, log)
}
