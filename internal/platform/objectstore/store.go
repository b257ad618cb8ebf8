// Package objectstore is the object storage gateway. Keys are the system of
// record; URLs are presigned on demand and never persisted.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var ErrNotFound = errors.New("object not found")

type PutOptions struct {
	ContentType        string
	ContentDisposition string
}

type PresignOptions struct {
	ResponseContentType string
	ResponseDisposition string
}

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) error
	// Get returns ErrNotFound (wrapped) for a missing key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration, opts PresignOptions) (string, error)
}

// InlineDisposition renders an inline Content-Disposition for filename.
func InlineDisposition(filename string) string {
	return fmt.Sprintf(`inline; filename="%s"`, strings.ReplaceAll(filename, `"`, ""))
}

// AttachmentDisposition renders an attachment Content-Disposition for filename.
func AttachmentDisposition(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(filename, `"`, ""))
}

// ReadAll fetches the whole object.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}

func resolveContentType(key string, opts PutOptions) string {
	if opts.ContentType != "" {
		return opts.ContentType
	}
	return contentTypeForKey(key)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("object key required")
	}
	return nil
}

// readCloserWithCancel ties a context's cancel to the reader's Close.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}
