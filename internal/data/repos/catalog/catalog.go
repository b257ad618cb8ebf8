package catalog

import (
	"gorm.io/gorm"

	"github.com/yungbote/imtrack-backend/internal/data/dberr"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

// CatalogRepo reads the college/department/subject lookups that certificates
// and notices print. Creates exist for seeding.
type CatalogRepo interface {
	CreateCollege(dbc dbctx.Context, c *types.College) error
	CreateDepartment(dbc dbctx.Context, d *types.Department) error
	CreateSubject(dbc dbctx.Context, s *types.Subject) error
	CreateUniversityCurriculum(dbc dbctx.Context, uc *types.UniversityCurriculum) error
	CreateServiceCurriculum(dbc dbctx.Context, sc *types.ServiceCurriculum) error

	GetUniversityCurriculum(dbc dbctx.Context, id uint) (*types.UniversityCurriculum, error)
	GetServiceCurriculum(dbc dbctx.Context, id uint) (*types.ServiceCurriculum, error)
}

type catalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return &catalogRepo{
		db:  db,
		log: baseLog.With("repo", "CatalogRepo"),
	}
}

func (r *catalogRepo) CreateCollege(dbc dbctx.Context, c *types.College) error {
	return dberr.MapError("create college", dbc.Conn(r.db).Create(c).Error)
}

func (r *catalogRepo) CreateDepartment(dbc dbctx.Context, d *types.Department) error {
	return dberr.MapError("create department", dbc.Conn(r.db).Create(d).Error)
}

func (r *catalogRepo) CreateSubject(dbc dbctx.Context, s *types.Subject) error {
	return dberr.MapError("create subject", dbc.Conn(r.db).Create(s).Error)
}

func (r *catalogRepo) CreateUniversityCurriculum(dbc dbctx.Context, uc *types.UniversityCurriculum) error {
	return dberr.MapError("create university curriculum", dbc.Conn(r.db).Create(uc).Error)
}

func (r *catalogRepo) CreateServiceCurriculum(dbc dbctx.Context, sc *types.ServiceCurriculum) error {
	return dberr.MapError("create service curriculum", dbc.Conn(r.db).Create(sc).Error)
}

func (r *catalogRepo) GetUniversityCurriculum(dbc dbctx.Context, id uint) (*types.UniversityCurriculum, error) {
	var uc types.UniversityCurriculum
	err := dbc.Conn(r.db).
		Preload("College").
		Preload("Department").
		Preload("Subject").
		Where("id = ?", id).
		First(&uc).Error
	if err != nil {
		return nil, dberr.MapError("get university curriculum", err)
	}
	return &uc, nil
}

func (r *catalogRepo) GetServiceCurriculum(dbc dbctx.Context, id uint) (*types.ServiceCurriculum, error) {
	var sc types.ServiceCurriculum
	err := dbc.Conn(r.db).
		Preload("College").
		Preload("Subject").
		Where("id = ?", id).
		First(&sc).Error
	if err != nil {
		return nil, dberr.MapError("get service curriculum", err)
	}
	return &sc, nil
}
