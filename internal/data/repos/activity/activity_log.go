package activity

import (
	"gorm.io/gorm"

	"github.com/yungbote/imtrack-backend/internal/data/dberr"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type ActivityLogRepo interface {
	Create(dbc dbctx.Context, entry *types.ActivityLog) error
	ListForRecord(dbc dbctx.Context, table string, recordID uint) ([]*types.ActivityLog, error)
}

type activityLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	return &activityLogRepo{
		db:  db,
		log: baseLog.With("repo", "ActivityLogRepo"),
	}
}

func (r *activityLogRepo) Create(dbc dbctx.Context, entry *types.ActivityLog) error {
	if entry == nil {
		return nil
	}
	return dberr.MapError("create activity log", dbc.Conn(r.db).Create(entry).Error)
}

func (r *activityLogRepo) ListForRecord(dbc dbctx.Context, table string, recordID uint) ([]*types.ActivityLog, error) {
	var out []*types.ActivityLog
	err := dbc.Conn(r.db).
		Where("table_name = ? AND record_id = ?", table, recordID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, dberr.MapError("list activity log", err)
	}
	return out, nil
}
