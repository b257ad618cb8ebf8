package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/imtrack-backend/internal/platform/logger"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
)

var openObjectStore = objectstore.Open

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidConfig StorageProviderBootstrapErrorCode = "invalid_config"
	StorageProviderBootstrapErrorInvalidMode   StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorConnectFailed StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code  StorageProviderBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func resolveObjectStore(ctx context.Context, log *logger.Logger, cfg objectstore.Config) (objectstore.Store, error) {
	cfg = cfg.Normalize()
	log.Info("Selecting object storage provider", "mode", cfg.Mode, "bucket", cfg.Bucket)

	store, err := openObjectStore(ctx, log, cfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(cfg, err)
		log.Error("Object storage provider bootstrap failed",
			"mode", cfg.Mode,
			"error_code", classified.Code,
			"error", err,
		)
		return nil, classified
	}
	return store, nil
}

func classifyStorageProviderBootstrapError(cfg objectstore.Config, err error) *StorageProviderBootstrapError {
	out := &StorageProviderBootstrapError{
		Code:  StorageProviderBootstrapErrorConnectFailed,
		Mode:  string(cfg.Mode),
		Cause: err,
	}
	var cfgErr *objectstore.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case objectstore.ConfigErrorInvalidMode:
			out.Code = StorageProviderBootstrapErrorInvalidMode
		case objectstore.ConfigErrorMissingBucket:
			out.Code = StorageProviderBootstrapErrorMissingBucket
		default:
			out.Code = StorageProviderBootstrapErrorInvalidConfig
		}
	}
	return out
}
