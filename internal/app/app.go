package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/imtrack-backend/internal/data/db"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/modules/certificates"
	"github.com/yungbote/imtrack-backend/internal/modules/evaluations"
	"github.com/yungbote/imtrack-backend/internal/modules/materials"
	"github.com/yungbote/imtrack-backend/internal/observability"
	"github.com/yungbote/imtrack-backend/internal/platform/authjwt"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
)

type Options struct {
	// HTTP builds the router and requires the JWT secret.
	HTTP bool
}

type App struct {
	Log          *logger.Logger
	DB           *gorm.DB
	Cfg          Config
	Store        objectstore.Store
	Repos        Repos
	Services     Services
	Materials    materials.Usecases
	Certificates certificates.Usecases
	Evaluations  evaluations.Usecases
	Tokens       *authjwt.Manager
	Router       *gin.Engine

	closers []func(context.Context) error
}

func New(ctx context.Context, cfg Config, opts Options) (*App, error) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetRedaction(cfg.Log.Redact, cfg.Log.RedactSalt)

	if err := cfg.Validate(opts.HTTP); err != nil {
		log.Sync()
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{Log: log, Cfg: cfg}
	metrics := observability.Init(cfg.Metrics)
	a.closers = append(a.closers, observability.InitOTel(ctx, log, cfg.Otel))

	theDB, closeDB, err := openDatabase(log, cfg.Database)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.DB = theDB
	a.closers = append(a.closers, closeDB)

	a.Store, err = resolveObjectStore(ctx, log, cfg.Storage)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Repos = wireRepos(theDB, log)
	a.Services, err = wireServices(log, cfg, a.Repos, metrics)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	policy, _ := cfg.LifecyclePolicy()
	a.Certificates = certificates.New(certificates.UsecasesDeps{
		Log:          log,
		Tx:           a.Repos.Tx,
		Materials:    a.Repos.Materials,
		Authors:      a.Repos.Authors,
		Certificates: a.Repos.Certificates,
		Users:        a.Repos.Users,
		Catalog:      a.Repos.Catalog,
		Store:        a.Store,
		Converter:    a.Services.Converter,
		QR:           a.Services.QR,
		Notifier:     a.Services.Notifier,
		Activity:     a.Services.Activity,
		Config:       cfg.Certificate,
	})
	a.Materials = materials.New(materials.UsecasesDeps{
		Log:          log,
		Tx:           a.Repos.Tx,
		Materials:    a.Repos.Materials,
		Authors:      a.Repos.Authors,
		Submissions:  a.Repos.Submissions,
		Users:        a.Repos.Users,
		Catalog:      a.Repos.Catalog,
		Engine:       lifecycle.NewEngine(policy, nil),
		Store:        a.Store,
		Analyzer:     a.Services.Analyzer,
		Notifier:     a.Services.Notifier,
		Activity:     a.Services.Activity,
		Certificates: a.Certificates,
		Config:       cfg.Material,
	})
	a.Evaluations = evaluations.New(evaluations.UsecasesDeps{
		Log:         log,
		Tx:          a.Repos.Tx,
		Evaluations: a.Repos.Evaluations,
		Activity:    a.Services.Activity,
	})

	if opts.HTTP {
		a.Tokens, err = authjwt.New(cfg.Auth)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("init auth: %w", err)
		}
		a.Router = wireRouter(a, metrics)
	}
	log.Info("Application wired", "lifecycle_policy", policy, "storage_mode", cfg.Storage.Normalize().Mode, "http", opts.HTTP)
	return a, nil
}

func openDatabase(log *logger.Logger, cfg DatabaseConfig) (*gorm.DB, func(context.Context) error, error) {
	var (
		theDB *gorm.DB
		err   error
	)
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		theDB, err = db.OpenSQLite(log, cfg.SQLitePath)
	default:
		var pg *db.PostgresService
		pg, err = db.NewPostgresService(log, cfg.Config)
		if err == nil {
			theDB = pg.DB()
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	if cfg.Migrate {
		log.Info("Auto migrating tables...", "driver", cfg.Driver)
		if err := db.MigrateAll(theDB); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	closeDB := func(context.Context) error {
		sqlDB, err := theDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return theDB, closeDB, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}
