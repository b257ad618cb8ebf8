package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/yungbote/imtrack-backend/internal/data/db"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/modules/certificates"
	"github.com/yungbote/imtrack-backend/internal/modules/materials"
	"github.com/yungbote/imtrack-backend/internal/observability"
	"github.com/yungbote/imtrack-backend/internal/platform/authjwt"
	"github.com/yungbote/imtrack-backend/internal/platform/brevo"
	"github.com/yungbote/imtrack-backend/internal/platform/docconvert"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
	"github.com/yungbote/imtrack-backend/internal/platform/smtpmail"
	"github.com/yungbote/imtrack-backend/internal/services"
)

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:","`
}

type LogConfig struct {
	Mode string `yaml:"mode" env:"LOG_MODE" env-default:"development"`
	// Redact masks emails and hashes ids in log fields.
	Redact     bool   `yaml:"redact" env:"LOG_REDACT"`
	RedactSalt string `yaml:"redact_salt" env:"LOG_REDACT_SALT"`
}

type LifecycleConfig struct {
	Policy string `yaml:"policy" env:"LIFECYCLE_POLICY" env-default:"permissive"`
}

type DatabaseConfig struct {
	db.Config `yaml:",inline"`
	// Driver is postgres in deployments; sqlite serves local runs and tests.
	Driver     string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"imtrack.db"`
	Migrate    bool   `yaml:"migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

type Config struct {
	Server      ServerConfig                `yaml:"server"`
	Log         LogConfig                   `yaml:"log"`
	Database    DatabaseConfig              `yaml:"database"`
	Storage     objectstore.Config          `yaml:"storage"`
	Brevo       brevo.Config                `yaml:"brevo"`
	SMTP        smtpmail.Config             `yaml:"smtp"`
	Converter   docconvert.Config           `yaml:"converter"`
	QR          services.QROptions          `yaml:"qr"`
	Certificate certificates.Config         `yaml:"certificate"`
	Material    materials.Config            `yaml:"material"`
	Auth        authjwt.Config              `yaml:"auth"`
	Otel        observability.OtelConfig    `yaml:"otel"`
	Metrics     observability.MetricsConfig `yaml:"metrics"`
	Lifecycle   LifecycleConfig             `yaml:"lifecycle"`
}

// LoadConfig reads path when given (YAML, env overrides) or the environment
// alone. IMTRACK_CONFIG names the file when path is empty.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		path = strings.TrimSpace(os.Getenv("IMTRACK_CONFIG"))
	}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) LifecyclePolicy() (lifecycle.Policy, error) {
	switch p := lifecycle.Policy(strings.ToLower(strings.TrimSpace(c.Lifecycle.Policy))); p {
	case "", lifecycle.PolicyPermissive:
		return lifecycle.PolicyPermissive, nil
	case lifecycle.PolicyStrict:
		return p, nil
	default:
		return "", fmt.Errorf("unknown LIFECYCLE_POLICY %q", c.Lifecycle.Policy)
	}
}

// Validate checks what the server needs to boot. CLI commands that do not
// serve HTTP skip the auth secret.
func (c Config) Validate(requireAuth bool) error {
	var errs []error
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}
	if err := c.Storage.Normalize().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LifecyclePolicy(); err != nil {
		errs = append(errs, err)
	}
	if requireAuth && strings.TrimSpace(c.Auth.Secret) == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	return errors.Join(errs...)
}
