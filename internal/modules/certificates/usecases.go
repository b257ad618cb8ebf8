package certificates

import (
	"context"
	"time"

	"github.com/yungbote/imtrack-backend/internal/data/repos"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
	"github.com/yungbote/imtrack-backend/internal/services"
)

type Config struct {
	TemplateKey string `yaml:"template_key" env:"CERTIFICATE_TEMPLATE_KEY" env-default:"requirements/cert-of-appreciation.docx"`
	// TemplatePath reads the template from local disk instead of storage.
	TemplatePath  string        `yaml:"template_path" env:"CERTIFICATE_TEMPLATE_PATH"`
	KeyPrefix     string        `yaml:"key_prefix" env:"CERTIFICATE_KEY_PREFIX" env-default:"generated-certificates"`
	QRMarker      string        `yaml:"qr_marker" env:"CERTIFICATE_QR_MARKER" env-default:"[QR CODE SPACE]"`
	QRWidthInches float64       `yaml:"qr_width_inches" env:"CERTIFICATE_QR_WIDTH_INCHES" env-default:"1.5"`
	PresignTTL    time.Duration `yaml:"presign_ttl" env:"CERTIFICATE_PRESIGN_TTL" env-default:"15m"`
}

func (c Config) withDefaults() Config {
	if c.TemplateKey == "" {
		c.TemplateKey = "requirements/cert-of-appreciation.docx"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "generated-certificates"
	}
	if c.QRMarker == "" {
		c.QRMarker = "[QR CODE SPACE]"
	}
	if c.QRWidthInches <= 0 {
		c.QRWidthInches = 1.5
	}
	if c.PresignTTL <= 0 {
		c.PresignTTL = 15 * time.Minute
	}
	return c
}

// PDFConverter turns DOCX bytes into PDF bytes, returning nil on failure.
type PDFConverter interface {
	ToPDFBytes(ctx context.Context, name string, data []byte) []byte
}

type UsecasesDeps struct {
	Log *logger.Logger
	Tx  repos.TxRunner

	Materials    repos.InstructionalMaterialRepo
	Authors      repos.AuthorLinkRepo
	Certificates repos.CertificateRepo
	Users        repos.UserRepo
	Catalog      repos.CatalogRepo

	Store     objectstore.Store
	Converter PDFConverter
	QR        services.QRRenderer
	Notifier  services.Notifier
	Activity  services.ActivityLogger

	Config Config
	// Now defaults to time.Now.
	Now func() time.Time
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	deps.Config = deps.Config.withDefaults()
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	deps.Log = deps.Log.With("service", "CertificateUsecases")
	return Usecases{deps: deps}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

func (u Usecases) docxKey(code string) string { return u.deps.Config.KeyPrefix + "/" + code + ".docx" }
func (u Usecases) pdfKey(code string) string  { return u.deps.Config.KeyPrefix + "/" + code + ".pdf" }
