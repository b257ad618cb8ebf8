package materials

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/imtrack-backend/internal/data/dberr"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type ListFilter struct {
	Status         *lifecycle.Status
	IncludeDeleted bool
	DeletedOnly    bool
	Limit          int
	Offset         int
}

type InstructionalMaterialRepo interface {
	Create(dbc dbctx.Context, m *types.InstructionalMaterial) error
	GetByID(dbc dbctx.Context, id uint) (*types.InstructionalMaterial, error)
	GetByIDForUpdate(dbc dbctx.Context, id uint) (*types.InstructionalMaterial, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.InstructionalMaterial, error)
	Save(dbc dbctx.Context, m *types.InstructionalMaterial) error
	// SaveIfVersion writes m only while the stored version still equals
	// expected. It reports false when another writer got there first.
	SaveIfVersion(dbc dbctx.Context, m *types.InstructionalMaterial, expected string) (bool, error)
	List(dbc dbctx.Context, f ListFilter) ([]*types.InstructionalMaterial, error)
	SetDeleted(dbc dbctx.Context, id uint, deleted bool, updatedBy string) error
}

type instructionalMaterialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInstructionalMaterialRepo(db *gorm.DB, baseLog *logger.Logger) InstructionalMaterialRepo {
	return &instructionalMaterialRepo{
		db:  db,
		log: baseLog.With("repo", "InstructionalMaterialRepo"),
	}
}

func (r *instructionalMaterialRepo) Create(dbc dbctx.Context, m *types.InstructionalMaterial) error {
	if m == nil {
		return nil
	}
	if err := dbc.Conn(r.db).Create(m).Error; err != nil {
		return dberr.MapError("create instructional material", err)
	}
	return nil
}

func (r *instructionalMaterialRepo) GetByID(dbc dbctx.Context, id uint) (*types.InstructionalMaterial, error) {
	var m types.InstructionalMaterial
	if err := dbc.Conn(r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, dberr.MapError("get instructional material", err)
	}
	return &m, nil
}

func (r *instructionalMaterialRepo) GetByIDForUpdate(dbc dbctx.Context, id uint) (*types.InstructionalMaterial, error) {
	var m types.InstructionalMaterial
	err := dbc.Conn(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, dberr.MapError("lock instructional material", err)
	}
	return &m, nil
}

func (r *instructionalMaterialRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.InstructionalMaterial, error) {
	var out []*types.InstructionalMaterial
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		return nil, dberr.MapError("get instructional materials", err)
	}
	return out, nil
}

func (r *instructionalMaterialRepo) Save(dbc dbctx.Context, m *types.InstructionalMaterial) error {
	if err := dbc.Conn(r.db).Save(m).Error; err != nil {
		return dberr.MapError("save instructional material", err)
	}
	return nil
}

func (r *instructionalMaterialRepo) SaveIfVersion(dbc dbctx.Context, m *types.InstructionalMaterial, expected string) (bool, error) {
	res := dbc.Conn(r.db).
		Model(&types.InstructionalMaterial{}).
		Where("id = ? AND version = ?", m.ID, expected).
		Select("*").
		Omit("id", "created_at", "created_by").
		Updates(m)
	if res.Error != nil {
		return false, dberr.MapError("save instructional material", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *instructionalMaterialRepo) List(dbc dbctx.Context, f ListFilter) ([]*types.InstructionalMaterial, error) {
	q := dbc.Conn(r.db).Model(&types.InstructionalMaterial{})
	switch {
	case f.DeletedOnly:
		q = q.Where("is_deleted = ?", true)
	case !f.IncludeDeleted:
		q = q.Where("is_deleted = ?", false)
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []*types.InstructionalMaterial
	if err := q.Order("updated_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, dberr.MapError("list instructional materials", err)
	}
	return out, nil
}

func (r *instructionalMaterialRepo) SetDeleted(dbc dbctx.Context, id uint, deleted bool, updatedBy string) error {
	res := dbc.Conn(r.db).
		Model(&types.InstructionalMaterial{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": deleted, "updated_by": updatedBy})
	if res.Error != nil {
		return dberr.MapError("set instructional material deleted", res.Error)
	}
	if res.RowsAffected == 0 {
		return dberr.MapError("set instructional material deleted", gorm.ErrRecordNotFound)
	}
	return nil
}
