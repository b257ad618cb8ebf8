package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

// QRPayload is the JSON encoded into certificate QR codes.
type QRPayload struct {
	QRID       string `json:"qr_id"`
	AuthorName string `json:"author_name"`
	MaterialID uint   `json:"im_id"`
	DateIssued string `json:"date_issued"`
}

// JSON is the exact text stored in the code: keys in declaration order and
// no HTML escaping, so names like "Tom & Jerry" survive verbatim.
func (p QRPayload) JSON() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

type QRImage struct {
	PNG    []byte
	Width  int
	Height int
}

type QROptions struct {
	ModulePixels  int `yaml:"module_pixels" env:"QR_MODULE_PIXELS" env-default:"10"`
	BorderModules int `yaml:"border_modules" env:"QR_BORDER_MODULES" env-default:"2"`

	// Caption prints the verification id under the code.
	Caption bool `yaml:"caption" env:"QR_CAPTION"`
}

type QRRenderer interface {
	Render(p QRPayload) (QRImage, error)
}

type qrRenderer struct {
	log      *logger.Logger
	opts     QROptions
	fontFace font.Face
}

func NewQRRenderer(baseLog *logger.Logger, opts QROptions) (QRRenderer, error) {
	if opts.ModulePixels <= 0 {
		opts.ModulePixels = 10
	}
	if opts.BorderModules < 0 {
		opts.BorderModules = 2
	}
	r := &qrRenderer{log: baseLog.With("service", "QRRenderer"), opts: opts}
	if opts.Caption {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("parse caption font: %w", err)
		}
		r.fontFace = truetype.NewFace(f, &truetype.Options{Size: float64(2 * opts.ModulePixels)})
	}
	return r, nil
}

func (r *qrRenderer) Render(p QRPayload) (QRImage, error) {
	data, err := p.JSON()
	if err != nil {
		return QRImage{}, err
	}
	q, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return QRImage{}, fmt.Errorf("build qr code: %w", err)
	}
	q.DisableBorder = true
	// Negative size means pixels per module.
	symbol := q.Image(-r.opts.ModulePixels)

	margin := r.opts.BorderModules * r.opts.ModulePixels
	side := symbol.Bounds().Dx() + 2*margin
	height := side
	var captionH float64
	if r.fontFace != nil {
		captionH = float64(3 * r.opts.ModulePixels)
		height += int(captionH)
	}

	dc := gg.NewContext(side, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.DrawImage(symbol, margin, margin)
	if r.fontFace != nil {
		dc.SetFontFace(r.fontFace)
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(p.QRID, float64(side)/2, float64(side)+captionH/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return QRImage{}, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return QRImage{PNG: buf.Bytes(), Width: side, Height: height}, nil
}
