package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memObject struct {
	data        []byte
	contentType string
	disposition string
}

// Memory is an in-process Store for tests and local runs. Presigned URLs use
// the memory:// scheme and carry a fresh token per call.
type Memory struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memObject
	now     func() time.Time
}

func NewMemory(bucket string) *Memory {
	if bucket == "" {
		bucket = "local"
	}
	return &Memory{bucket: bucket, objects: map[string]memObject{}, now: time.Now}
}

func (m *Memory) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{
		data:        data,
		contentType: resolveContentType(key, opts),
		disposition: opts.ContentDisposition,
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *Memory) PresignGet(ctx context.Context, key string, ttl time.Duration, opts PresignOptions) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("token", uuid.NewString())
	q.Set("expires", strconv.FormatInt(m.now().Add(ttl).Unix(), 10))
	if opts.ResponseContentType != "" {
		q.Set("response-content-type", opts.ResponseContentType)
	}
	if opts.ResponseDisposition != "" {
		q.Set("response-content-disposition", opts.ResponseDisposition)
	}
	u := url.URL{Scheme: "memory", Host: m.bucket, Path: "/" + key, RawQuery: q.Encode()}
	return u.String(), nil
}

// ContentType reports the stored content type of key.
func (m *Memory) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].contentType
}

// Disposition reports the stored Content-Disposition of key.
func (m *Memory) Disposition(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].disposition
}

func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
