// internal/storage/object_store.go
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/mirelio/gameforge/internal/errors"
)

// ObjectStore is an HTTP client for the video object-storage bucket. The
// API follows the storage service's REST shape: objects are created with an
// authenticated POST and read through a public URL.
type ObjectStore struct {
	baseURL string
	apiKey  string
	bucket  string
	client  *http.Client
}

// NewObjectStore creates a client for the given bucket.
func NewObjectStore(baseURL, apiKey, bucket string) *ObjectStore {
	return &ObjectStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		bucket:  bucket,
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

// Upload stores an object under key. The key is expected to already carry
// the project/millis/filename form the session builds.
func (s *ObjectStore) Upload(ctx context.Context, key string, content io.Reader, contentType string) error {
	endpoint := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, url.PathEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, content)
	if err != nil {
		return apperrors.NewStorageError("failed to build upload request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.NewStorageError("upload failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return apperrors.NewStorageError(
			fmt.Sprintf("upload rejected (%d): %s", resp.StatusCode, body), nil)
	}
	return nil
}

// PublicURL returns the public read URL for key. No request is issued; the
// bucket is public and the URL is composed locally.
func (s *ObjectStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, url.PathEscape(key))
}
