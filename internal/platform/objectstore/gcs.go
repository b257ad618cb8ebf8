package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

// GCS stores objects in one Cloud Storage bucket, or in a fake-gcs emulator.
type GCS struct {
	log          *logger.Logger
	bucket       string
	client       *storage.Client
	emulatorHost string
}

func NewGCS(ctx context.Context, log *logger.Logger, cfg Config) (*GCS, error) {
	client, err := newGCSClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	g := &GCS{
		log:    log.With("service", "ObjectStore", "backend", string(cfg.Mode)),
		bucket: cfg.Bucket,
		client: client,
	}
	if cfg.IsEmulatorMode() {
		g.emulatorHost = cfg.EmulatorHost
	}
	return g, nil
}

func newGCSClient(ctx context.Context, cfg Config) (*storage.Client, error) {
	switch cfg.Mode {
	case ModeGCS:
		opts := credentialOptions(cfg.CredentialsFile)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ModeGCSEmulator:
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

// credentialOptions accepts inline service account JSON or a file path.
func credentialOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (g *GCS) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) error {
	if err := validateKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if ct := resolveContentType(key, opts); ct != "" {
		w.ContentType = ct
	}
	if opts.ContentDisposition != "" {
		w.ContentDisposition = opts.ContentDisposition
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gcs object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gcs writer %q: %w", key, err)
	}
	return nil
}

func (g *GCS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if g.emulatorHost != "" {
		return g.emulatorGet(ctx, key)
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("open gcs reader %q: %w", key, err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (g *GCS) emulatorGet(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	req, err := http.NewRequestWithContext(ctx2, http.MethodGet, g.emulatorMediaURL(key), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create emulator download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("emulator download request: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return &readCloserWithCancel{ReadCloser: resp.Body, cancel: cancel}, nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gcs object %q in bucket %q: %w", key, g.bucket, err)
	}
	return nil
}

func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := g.client.Bucket(g.bucket).Object(key).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("gcs attrs %q: %w", key, err)
}

// PresignGet signs a V4 URL. The emulator cannot sign, so it gets a plain
// media URL instead.
func (g *GCS) PresignGet(ctx context.Context, key string, ttl time.Duration, opts PresignOptions) (string, error) {
	if g.emulatorHost != "" {
		return g.emulatorMediaURL(key), nil
	}
	q := url.Values{}
	if opts.ResponseContentType != "" {
		q.Set("response-content-type", opts.ResponseContentType)
	}
	if opts.ResponseDisposition != "" {
		q.Set("response-content-disposition", opts.ResponseDisposition)
	}
	u, err := g.client.Bucket(g.bucket).SignedURL(key, &storage.SignedURLOptions{
		Method:          http.MethodGet,
		Expires:         time.Now().Add(ttl),
		Scheme:          storage.SigningSchemeV4,
		QueryParameters: q,
	})
	if err != nil {
		return "", fmt.Errorf("sign gcs url %q: %w", key, err)
	}
	return u, nil
}

func (g *GCS) emulatorMediaURL(key string) string {
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		g.emulatorHost,
		url.PathEscape(g.bucket),
		url.PathEscape(key),
	)
}
