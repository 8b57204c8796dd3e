package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// ObjectStore guarda blobs y devuelve su URL pública.
type ObjectStore interface {
	Put(ctx context.Context, path, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, path string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// GCSStore implementa ObjectStore sobre un bucket público de Cloud Storage.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

func NewGCSStore(client *gcs.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func (s *GCSStore) Put(ctx context.Context, path, contentType string, data []byte) (string, error) {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: writing %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: closing %s: %w", path, err)
	}
	return PublicURL(s.bucket, path), nil
}

func (s *GCSStore) Delete(ctx context.Context, path string) error {
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage: deleting %s: %w", path, err)
	}
	return nil
}

// DeletePrefix borra todos los objetos bajo prefix y devuelve cuántos eliminó.
func (s *GCSStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	bucket := s.client.Bucket(s.bucket)
	it := bucket.Objects(ctx, &gcs.Query{Prefix: prefix})
	deleted := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return deleted, nil
		}
		if err != nil {
			return deleted, fmt.Errorf("storage: listing %s: %w", prefix, err)
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			return deleted, fmt.Errorf("storage: deleting %s: %w", attrs.Name, err)
		}
		deleted++
	}
}

const publicHost = "storage.googleapis.com"

// ObjectPathFromURL devuelve la ruta del objeto de una URL armada por PublicURL.
// ok es false para cualquier otra URL.
func ObjectPathFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" || u.Host != publicHost {
		return "", false
	}
	_, objectPath, found := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !found || objectPath == "" {
		return "", false
	}
	return objectPath, true
}

// PublicURL arma la URL pública de un objeto.
func PublicURL(bucket, path string) string {
	return fmt.Sprintf("https://%s/%s/%s", publicHost, bucket, path)
}
