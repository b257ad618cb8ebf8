package materials

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/imtrack-backend/internal/data/dberr"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type AuthorLinkRepo interface {
	Add(dbc dbctx.Context, materialID uint, userIDs []uint) error
	Remove(dbc dbctx.Context, materialID uint, userIDs []uint) error
	ListUserIDs(dbc dbctx.Context, materialID uint) ([]uint, error)
	ListMaterialIDs(dbc dbctx.Context, userID uint) ([]uint, error)
}

type authorLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuthorLinkRepo(db *gorm.DB, baseLog *logger.Logger) AuthorLinkRepo {
	return &authorLinkRepo{
		db:  db,
		log: baseLog.With("repo", "AuthorLinkRepo"),
	}
}

func (r *authorLinkRepo) Add(dbc dbctx.Context, materialID uint, userIDs []uint) error {
	if materialID == 0 || len(userIDs) == 0 {
		return nil
	}
	rows := make([]*types.AuthorLink, 0, len(userIDs))
	seen := map[uint]bool{}
	for _, id := range userIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, &types.AuthorLink{MaterialID: materialID, UserID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	err := dbc.Conn(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	return dberr.MapError("add author links", err)
}

func (r *authorLinkRepo) Remove(dbc dbctx.Context, materialID uint, userIDs []uint) error {
	if materialID == 0 || len(userIDs) == 0 {
		return nil
	}
	err := dbc.Conn(r.db).
		Where("material_id = ? AND user_id IN ?", materialID, userIDs).
		Delete(&types.AuthorLink{}).Error
	return dberr.MapError("remove author links", err)
}

func (r *authorLinkRepo) ListUserIDs(dbc dbctx.Context, materialID uint) ([]uint, error) {
	var ids []uint
	err := dbc.Conn(r.db).
		Model(&types.AuthorLink{}).
		Where("material_id = ?", materialID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, dberr.MapError("list material authors", err)
	}
	return ids, nil
}

func (r *authorLinkRepo) ListMaterialIDs(dbc dbctx.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := dbc.Conn(r.db).
		Model(&types.AuthorLink{}).
		Where("user_id = ?", userID).
		Order("material_id ASC").
		Pluck("material_id", &ids).Error
	if err != nil {
		return nil, dberr.MapError("list authored materials", err)
	}
	return ids, nil
}
