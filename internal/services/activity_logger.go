package services

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/yungbote/imtrack-backend/internal/data/repos"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type ActivityEntry struct {
	UserID      uint
	Action      string
	Table       string
	RecordID    *uint
	Old         any
	New         any
	Description string
}

// ActivityLogger appends audit rows. Failures are logged and never returned
// so auditing cannot fail the operation that triggered it.
type ActivityLogger interface {
	Record(dbc dbctx.Context, e ActivityEntry)
}

type activityLogger struct {
	log  *logger.Logger
	repo repos.ActivityLogRepo
}

func NewActivityLogger(baseLog *logger.Logger, repo repos.ActivityLogRepo) ActivityLogger {
	return &activityLogger{log: baseLog.With("service", "ActivityLogger"), repo: repo}
}

func (a *activityLogger) Record(dbc dbctx.Context, e ActivityEntry) {
	row := &types.ActivityLog{
		UserID:      e.UserID,
		Action:      e.Action,
		Table:       e.Table,
		RecordID:    e.RecordID,
		OldValues:   snapshot(e.Old),
		NewValues:   snapshot(e.New),
		Description: e.Description,
	}
	if err := a.repo.Create(dbc, row); err != nil {
		a.log.Warn("Activity log write failed", "action", e.Action, "table", e.Table, "error", err)
	}
}

func snapshot(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
