package store

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/GregMSThompson/dispatch-backend/internal/errs"
)

type objectStore struct {
	client *storage.Client
	bucket string
}

func NewObjectStore(client *storage.Client, bucket string) *objectStore {
	return &objectStore{client: client, bucket: bucket}
}

// Put streams body into the bucket and returns a gs:// reference to it.
// Existing objects are never overwritten.
func (s *objectStore) Put(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(object).
		If(storage.Conditions{DoesNotExist: true}).
		NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", errs.NewExternalServiceError("storage", "failed to upload object", true, err)
	}
	if err := w.Close(); err != nil {
		return "", errs.NewExternalServiceError("storage", "failed to finalise object", true, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}
