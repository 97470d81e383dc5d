package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
)

type GCSUploader struct {
	client *gcs.Client
	bucket string
	public bool
}

// NewGCSUploader writes into bucket. With public set, objects are created
// with the publicRead predefined ACL.
func NewGCSUploader(ctx context.Context, bucket string, public bool) (*GCSUploader, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket is empty")
	}
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: new client: %w", err)
	}
	return &GCSUploader{client: c, bucket: bucket, public: public}, nil
}

func (u *GCSUploader) Close() error { return u.client.Close() }

func (u *GCSUploader) Upload(ctx context.Context, obj Object, r io.Reader) (string, error) {
	if obj.Name == "" {
		return "", errors.New("gcs: object name is empty")
	}

	w := u.client.Bucket(u.bucket).Object(obj.Name).NewWriter(ctx)
	w.ContentType = obj.ContentType
	w.CacheControl = obj.CacheControl
	if u.public {
		w.PredefinedACL = "publicRead"
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: write %s: %w", obj.Name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: finalize %s: %w", obj.Name, err)
	}
	return PublicURL(u.bucket, obj.Name), nil
}

// PublicURL is the storage.googleapis.com address of name in bucket.
func PublicURL(bucket, name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return "https://storage.googleapis.com/" + bucket + "/" + strings.Join(parts, "/")
}
