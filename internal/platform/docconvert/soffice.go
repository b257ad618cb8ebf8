package docconvert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Soffice runs a headless LibreOffice conversion bounded by a timeout.
type Soffice struct {
	path    string
	timeout time.Duration
}

func NewSoffice(path string, timeout time.Duration) *Soffice {
	if strings.TrimSpace(path) == "" {
		path = "soffice"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Soffice{path: path, timeout: timeout}
}

func (s *Soffice) Name() string { return "soffice" }

func (s *Soffice) Attempt(ctx context.Context, in string, outDir string) (string, error) {
	if in == "" {
		return "", fmt.Errorf("input path required")
	}
	if outDir == "" {
		return "", fmt.Errorf("outDir required")
	}
	if _, err := exec.LookPath(s.path); err != nil {
		return "", fmt.Errorf("missing required binary %q in PATH: %w", s.path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// One LibreOffice profile per output dir.
	profile := "-env:UserInstallation=file://" + filepath.ToSlash(filepath.Join(outDir, ".lo-profile"))
	cmd := exec.CommandContext(ctx, s.path,
		profile,
		"--headless",
		"--nologo",
		"--nolockcheck",
		"--nodefault",
		"--norestore",
		"--convert-to", "pdf",
		"--outdir", outDir,
		in,
	)
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("soffice timed out after %s", s.timeout)
	}
	if err != nil {
		return "", fmt.Errorf("soffice convert failed: %w; out=%s", err, string(out))
	}

	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	pdfPath := filepath.Join(outDir, base+".pdf")
	if _, statErr := os.Stat(pdfPath); statErr != nil {
		alt, err2 := newestFileWithExt(outDir, ".pdf")
		if err2 != nil {
			return "", fmt.Errorf("pdf output not found at %s and scan failed: %v; soffice out=%s", pdfPath, err2, string(out))
		}
		pdfPath = alt
	}
	return pdfPath, nil
}

func newestFileWithExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || strings.ToLower(filepath.Ext(e.Name())) != ext {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, e.Name())
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no %s files in %s", ext, dir)
	}
	return newest, nil
}
