package docconvert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/imtrack-backend/internal/platform/httpx"
)

const gotenbergOfficeRoute = "/forms/libreoffice/convert"

// Gotenberg posts the document to a Gotenberg LibreOffice route.
type Gotenberg struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func NewGotenberg(baseURL string, timeout time.Duration, maxRetries int) *Gotenberg {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Gotenberg{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

func (g *Gotenberg) Name() string { return "gotenberg" }

func (g *Gotenberg) Attempt(ctx context.Context, in string, outDir string) (string, error) {
	if g.baseURL == "" {
		return "", fmt.Errorf("gotenberg url not configured")
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("files", filepath.Base(in))
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	payload := body.Bytes()
	contentType := mw.FormDataContentType()

	resp, err := httpx.Retry(ctx, g.maxRetries, 500*time.Millisecond, func(int) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+gotenbergOfficeRoute, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		resp, err := g.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
			return resp, &httpx.StatusError{StatusCode: resp.StatusCode, Body: string(b)}
		}
		return resp, nil
	})
	if err != nil {
		return "", fmt.Errorf("gotenberg convert: %w", err)
	}
	defer resp.Body.Close()

	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	outPath := filepath.Join(outDir, base+".pdf")
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return outPath, nil
}
