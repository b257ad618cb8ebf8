package materials

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/imtrack-backend/internal/data/dberr"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type SubmissionRepo interface {
	Create(dbc dbctx.Context, subs []*types.Submission) error
	ListForMaterial(dbc dbctx.Context, materialID uint) ([]*types.Submission, error)
	// ListPending returns open submissions with a due date on or before
	// until whose material is live and still assigned.
	ListPending(dbc dbctx.Context, until time.Time) ([]*types.Submission, error)
	// CloseForMaterial marks every open submission of the material as
	// submitted and reports how many rows changed.
	CloseForMaterial(dbc dbctx.Context, materialID uint, at time.Time) (int64, error)
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return &submissionRepo{
		db:  db,
		log: baseLog.With("repo", "SubmissionRepo"),
	}
}

func (r *submissionRepo) Create(dbc dbctx.Context, subs []*types.Submission) error {
	if len(subs) == 0 {
		return nil
	}
	return dberr.MapError("create submissions", dbc.Conn(r.db).Create(&subs).Error)
}

func (r *submissionRepo) ListForMaterial(dbc dbctx.Context, materialID uint) ([]*types.Submission, error) {
	var out []*types.Submission
	if err := dbc.Conn(r.db).Where("material_id = ?", materialID).Order("id ASC").Find(&out).Error; err != nil {
		return nil, dberr.MapError("list submissions", err)
	}
	return out, nil
}

func (r *submissionRepo) ListPending(dbc dbctx.Context, until time.Time) ([]*types.Submission, error) {
	var out []*types.Submission
	err := dbc.Conn(r.db).
		Table("submission AS s").
		Select("s.*").
		Joins("JOIN instructional_material AS m ON m.id = s.material_id").
		Where("s.due_date IS NOT NULL AND s.due_date <= ?", until).
		Where("m.is_deleted = ? AND m.status = ?", false, string(lifecycle.StatusAssignedToFaculty)).
		Where("s.submitted_at IS NULL").
		Order("s.due_date ASC, s.id ASC").
		Find(&out).Error
	if err != nil {
		return nil, dberr.MapError("list pending submissions", err)
	}
	return out, nil
}

func (r *submissionRepo) CloseForMaterial(dbc dbctx.Context, materialID uint, at time.Time) (int64, error) {
	res := dbc.Conn(r.db).
		Model(&types.Submission{}).
		Where("material_id = ? AND submitted_at IS NULL", materialID).
		Update("submitted_at", at)
	if res.Error != nil {
		return 0, dberr.MapError("close submissions", res.Error)
	}
	return res.RowsAffected, nil
}
