// Package docconvert turns DOCX files into PDF through an ordered list of
// conversion strategies. A failed chain yields nil, never an error.
package docconvert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yungbote/imtrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type Config struct {
	GotenbergURL     string        `yaml:"gotenberg_url" env:"GOTENBERG_URL"`
	GotenbergTimeout time.Duration `yaml:"gotenberg_timeout" env:"GOTENBERG_TIMEOUT" env-default:"60s"`
	GotenbergRetries int           `yaml:"gotenberg_retries" env:"GOTENBERG_RETRIES" env-default:"2"`
	SofficePath      string        `yaml:"soffice_path" env:"SOFFICE_PATH" env-default:"soffice"`
	SofficeTimeout   time.Duration `yaml:"soffice_timeout" env:"SOFFICE_TIMEOUT" env-default:"120s"`
	WorkRoot         string        `yaml:"work_root" env:"CONVERT_WORK_ROOT"`
}

// Strategy converts in into a PDF written under outDir and returns its path.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, in string, outDir string) (string, error)
}

// AttemptHook observes every strategy attempt.
type AttemptHook func(strategy string, ok bool, elapsed time.Duration)

type Converter struct {
	log        *logger.Logger
	strategies []Strategy
	workRoot   string
	hook       AttemptHook
}

func New(log *logger.Logger, workRoot string, strategies ...Strategy) *Converter {
	return &Converter{
		log:        log.With("service", "DocConverter"),
		strategies: strategies,
		workRoot:   workRoot,
	}
}

// NewFromConfig builds the default chain: Gotenberg when configured, then soffice.
func NewFromConfig(log *logger.Logger, cfg Config) *Converter {
	var strategies []Strategy
	if cfg.GotenbergURL != "" {
		strategies = append(strategies, NewGotenberg(cfg.GotenbergURL, cfg.GotenbergTimeout, cfg.GotenbergRetries))
	}
	strategies = append(strategies, NewSoffice(cfg.SofficePath, cfg.SofficeTimeout))
	return New(log, cfg.WorkRoot, strategies...)
}

func (c *Converter) SetHook(h AttemptHook) { c.hook = h }

func (c *Converter) Strategies() []string {
	out := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		out = append(out, s.Name())
	}
	return out
}

// ToPDF returns the PDF bytes of the first strategy that succeeds, or nil.
// Each attempt works in its own temp dir, removed before the next attempt.
func (c *Converter) ToPDF(ctx context.Context, docxPath string) []byte {
	ctx = ctxutil.Default(ctx)
	for _, s := range c.strategies {
		if ctx.Err() != nil {
			c.log.Warn("Conversion abandoned", "path", docxPath, "error", ctx.Err())
			return nil
		}
		out, err := c.attempt(ctx, s, docxPath)
		if err != nil {
			c.log.Warn("Conversion strategy failed", "strategy", s.Name(), "path", docxPath, "error", err)
			continue
		}
		c.log.Debug("Conversion succeeded", "strategy", s.Name(), "path", docxPath, "bytes", len(out))
		return out
	}
	return nil
}

// ToPDFBytes writes data to a temp file and converts it.
func (c *Converter) ToPDFBytes(ctx context.Context, name string, data []byte) []byte {
	dir, err := os.MkdirTemp(c.workRoot, "convert-in-*")
	if err != nil {
		c.log.Warn("Conversion temp dir failed", "error", err)
		return nil
	}
	defer os.RemoveAll(dir)
	in := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(in, data, 0o600); err != nil {
		c.log.Warn("Conversion input write failed", "error", err)
		return nil
	}
	return c.ToPDF(ctx, in)
}

func (c *Converter) attempt(ctx context.Context, s Strategy, in string) (out []byte, err error) {
	start := time.Now()
	defer func() {
		if c.hook != nil {
			c.hook(s.Name(), err == nil, time.Since(start))
		}
	}()
	outDir, err := os.MkdirTemp(c.workRoot, "convert-"+s.Name()+"-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	pdfPath, err := s.Attempt(ctx, in, outDir)
	if err != nil {
		return nil, err
	}
	out, err = os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty pdf output")
	}
	return out, nil
}
