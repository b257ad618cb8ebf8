package materials

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yungbote/imtrack-backend/internal/data/repos"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/modules/certificates"
	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
	"github.com/yungbote/imtrack-backend/internal/services"
)

type Config struct {
	KeyPrefix      string        `yaml:"key_prefix" env:"MATERIAL_KEY_PREFIX" env-default:"instructional_materials"`
	PresignTTL     time.Duration `yaml:"presign_ttl" env:"MATERIAL_PRESIGN_TTL" env-default:"900s"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" env:"MATERIAL_MAX_UPLOAD_BYTES" env-default:"52428800"`
	// TempDir holds uploaded documents while they are analyzed.
	TempDir string `yaml:"temp_dir" env:"MATERIAL_TEMP_DIR"`
	// RecommendationLetterKey is the store key of the static requirements PDF.
	RecommendationLetterKey string `yaml:"recommendation_letter_key" env:"MATERIAL_RECOMMENDATION_LETTER_KEY" env-default:"requirements/recommendation-letter.pdf"`
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.KeyPrefix) == "" {
		c.KeyPrefix = "instructional_materials"
	}
	c.KeyPrefix = strings.TrimSuffix(c.KeyPrefix, "/")
	if c.PresignTTL <= 0 {
		c.PresignTTL = 900 * time.Second
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 50 << 20
	}
	if strings.TrimSpace(c.RecommendationLetterKey) == "" {
		c.RecommendationLetterKey = "requirements/recommendation-letter.pdf"
	}
	return c
}

// CertificateIssuer issues certificates once a material is published.
type CertificateIssuer interface {
	Issue(ctx context.Context, materialID uint) ([]certificates.Result, error)
}

type UsecasesDeps struct {
	Log *logger.Logger
	Tx  repos.TxRunner

	Materials   repos.InstructionalMaterialRepo
	Authors     repos.AuthorLinkRepo
	Submissions repos.SubmissionRepo
	Users       repos.UserRepo
	Catalog     repos.CatalogRepo

	Engine       *lifecycle.Engine
	Store        objectstore.Store
	Analyzer     services.SectionAnalyzer
	Notifier     services.Notifier
	Activity     services.ActivityLogger
	Certificates CertificateIssuer

	Config Config
	Now    func() time.Time
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	deps.Config = deps.Config.withDefaults()
	if deps.Engine == nil {
		deps.Engine = lifecycle.NewEngine(lifecycle.PolicyPermissive, nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	deps.Log = deps.Log.With("service", "MaterialUsecases")
	return Usecases{deps: deps}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

type actor struct {
	userID uint
	email  string
}

// label is what lands in created_by/updated_by.
func (a actor) label() string {
	if a.email != "" {
		return a.email
	}
	return "system"
}

func actorFrom(ctx context.Context) actor {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return actor{}
	}
	return actor{userID: rd.UserID, email: strings.TrimSpace(rd.Email)}
}

func mapLoadErr(err error) error {
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return apierr.NotFound("material_not_found", err)
	}
	return apierr.Internal("material_load_failed", err)
}

func mapLifecycleErr(err error) error {
	var unknown *lifecycle.UnknownStatusError
	var transition *lifecycle.TransitionError
	var invariant *lifecycle.InvariantError
	switch {
	case errors.As(err, &unknown):
		return apierr.BadRequest("invalid_status", err)
	case errors.As(err, &transition):
		return apierr.Conflict("transition_not_allowed", err)
	case errors.As(err, &invariant):
		return apierr.Internal("invariant_violation", err)
	}
	if _, ok := apierr.As(err); ok {
		return err
	}
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return apierr.NotFound("material_not_found", err)
	}
	if errors.Is(err, pkgerrors.ErrConflict) {
		return apierr.Conflict("conflict", err)
	}
	return apierr.Internal("material_save_failed", err)
}

// authorEmails resolves the addresses of every linked author.
func (u Usecases) authorEmails(ctx context.Context, materialID uint) ([]string, []string) {
	dbc := dbctx.Context{Ctx: ctx}
	ids, err := u.deps.Authors.ListUserIDs(dbc, materialID)
	if err != nil {
		u.deps.Log.Warn("Author lookup failed", "material_id", materialID, "error", err)
		return nil, nil
	}
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := u.deps.Users.GetByIDs(dbc, ids)
	if err != nil {
		u.deps.Log.Warn("Author lookup failed", "material_id", materialID, "error", err)
		return nil, nil
	}
	emails := make([]string, 0, len(users))
	names := make([]string, 0, len(users))
	for _, usr := range users {
		if strings.TrimSpace(usr.Email) != "" {
			emails = append(emails, usr.Email)
		}
		names = append(names, usr.DisplayName())
	}
	return emails, names
}
