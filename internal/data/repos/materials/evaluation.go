package materials

import (
	"gorm.io/gorm"

	"github.com/yungbote/imtrack-backend/internal/data/dberr"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type EvaluationRepo interface {
	Create(dbc dbctx.Context, e *types.Evaluation) error
	// GetByID returns soft-deleted rows too.
	GetByID(dbc dbctx.Context, id uint) (*types.Evaluation, error)
	Save(dbc dbctx.Context, e *types.Evaluation) error
	ListActive(dbc dbctx.Context, limit, offset int) ([]*types.Evaluation, int64, error)
	// SetDeleted flips is_deleted only on a row currently in the opposite
	// state and returns ErrNotFound otherwise.
	SetDeleted(dbc dbctx.Context, id uint, deleted bool, updatedBy string) error
	// LinkMaterial points a live material at the evaluation.
	LinkMaterial(dbc dbctx.Context, materialID, evaluationID uint, updatedBy string) error
}

type evaluationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvaluationRepo(db *gorm.DB, baseLog *logger.Logger) EvaluationRepo {
	return &evaluationRepo{
		db:  db,
		log: baseLog.With("repo", "EvaluationRepo"),
	}
}

func (r *evaluationRepo) Create(dbc dbctx.Context, e *types.Evaluation) error {
	if e == nil {
		return nil
	}
	return dberr.MapError("create evaluation", dbc.Conn(r.db).Create(e).Error)
}

func (r *evaluationRepo) GetByID(dbc dbctx.Context, id uint) (*types.Evaluation, error) {
	var e types.Evaluation
	if err := dbc.Conn(r.db).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, dberr.MapError("get evaluation", err)
	}
	return &e, nil
}

func (r *evaluationRepo) Save(dbc dbctx.Context, e *types.Evaluation) error {
	return dberr.MapError("save evaluation", dbc.Conn(r.db).Save(e).Error)
}

func (r *evaluationRepo) ListActive(dbc dbctx.Context, limit, offset int) ([]*types.Evaluation, int64, error) {
	q := dbc.Conn(r.db).Model(&types.Evaluation{}).Where("is_deleted = ?", false)
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, dberr.MapError("count evaluations", err)
	}
	q = q.Session(&gorm.Session{})
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var out []*types.Evaluation
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, 0, dberr.MapError("list evaluations", err)
	}
	return out, total, nil
}

func (r *evaluationRepo) SetDeleted(dbc dbctx.Context, id uint, deleted bool, updatedBy string) error {
	res := dbc.Conn(r.db).
		Model(&types.Evaluation{}).
		Where("id = ? AND is_deleted = ?", id, !deleted).
		Updates(map[string]interface{}{"is_deleted": deleted, "updated_by": updatedBy})
	if res.Error != nil {
		return dberr.MapError("set evaluation deleted", res.Error)
	}
	if res.RowsAffected == 0 {
		return dberr.MapError("set evaluation deleted", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *evaluationRepo) LinkMaterial(dbc dbctx.Context, materialID, evaluationID uint, updatedBy string) error {
	res := dbc.Conn(r.db).
		Model(&types.InstructionalMaterial{}).
		Where("id = ? AND is_deleted = ?", materialID, false).
		Updates(map[string]interface{}{"evaluation_id": evaluationID, "updated_by": updatedBy})
	if res.Error != nil {
		return dberr.MapError("link evaluation", res.Error)
	}
	if res.RowsAffected == 0 {
		return dberr.MapError("link evaluation", gorm.ErrRecordNotFound)
	}
	return nil
}
