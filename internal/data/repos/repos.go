package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/imtrack-backend/internal/data/repos/activity"
	"github.com/yungbote/imtrack-backend/internal/data/repos/catalog"
	"github.com/yungbote/imtrack-backend/internal/data/repos/materials"
	"github.com/yungbote/imtrack-backend/internal/data/repos/user"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type CatalogRepo = catalog.CatalogRepo
type ActivityLogRepo = activity.ActivityLogRepo

type InstructionalMaterialRepo = materials.InstructionalMaterialRepo
type MaterialListFilter = materials.ListFilter
type AuthorLinkRepo = materials.AuthorLinkRepo
type CertificateRepo = materials.CertificateRepo
type SubmissionRepo = materials.SubmissionRepo
type EvaluationRepo = materials.EvaluationRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return catalog.NewCatalogRepo(db, baseLog)
}
func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	return activity.NewActivityLogRepo(db, baseLog)
}

func NewInstructionalMaterialRepo(db *gorm.DB, baseLog *logger.Logger) InstructionalMaterialRepo {
	return materials.NewInstructionalMaterialRepo(db, baseLog)
}
func NewAuthorLinkRepo(db *gorm.DB, baseLog *logger.Logger) AuthorLinkRepo {
	return materials.NewAuthorLinkRepo(db, baseLog)
}
func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return materials.NewCertificateRepo(db, baseLog)
}
func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return materials.NewSubmissionRepo(db, baseLog)
}
func NewEvaluationRepo(db *gorm.DB, baseLog *logger.Logger) EvaluationRepo {
	return materials.NewEvaluationRepo(db, baseLog)
}
