package user

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/imtrack-backend/internal/data/dberr"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id uint) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{
		db:  db,
		log: baseLog.With("repo", "UserRepo"),
	}
}

func (r *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := dbc.Conn(r.db).Create(&users).Error; err != nil {
		return nil, dberr.MapError("create users", err)
	}
	return users, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uint) (*types.User, error) {
	var u types.User
	if err := dbc.Conn(r.db).Where("id = ? AND is_deleted = ?", id, false).First(&u).Error; err != nil {
		return nil, dberr.MapError("get user", err)
	}
	return &u, nil
}

// GetByIDs keeps deleted users out and returns rows in id order.
func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.User, error) {
	var out []*types.User
	if len(ids) == 0 {
		return out, nil
	}
	err := dbc.Conn(r.db).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, dberr.MapError("get users", err)
	}
	return out, nil
}

func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	var u types.User
	err := dbc.Conn(r.db).
		Where("LOWER(email) = ? AND is_deleted = ?", strings.ToLower(strings.TrimSpace(email)), false).
		First(&u).Error
	if err != nil {
		return nil, dberr.MapError("get user by email", err)
	}
	return &u, nil
}
