package objectstore

import (
	"context"
	"fmt"

	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

// Open normalizes and validates cfg and builds the matching backend.
func Open(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	var (
		s   Store
		err error
	)
	switch cfg.Mode {
	case ModeS3:
		s, err = NewS3(ctx, log, cfg)
	case ModeGCS, ModeGCSEmulator:
		s, err = NewGCS(ctx, log, cfg)
	case ModeMemory:
		s = NewMemory(cfg.Bucket)
	}
	if err != nil {
		return nil, err
	}
	log.Info("Object storage initialized",
		"mode", cfg.Mode,
		"bucket", cfg.Bucket,
		"endpoint", cfg.Endpoint,
		"emulator_host", cfg.EmulatorHost,
	)
	return s, nil
}
