package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/imtrack-backend/internal/data/repos"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type Repos struct {
	Tx           repos.TxRunner
	Users        repos.UserRepo
	Catalog      repos.CatalogRepo
	Activity     repos.ActivityLogRepo
	Materials    repos.InstructionalMaterialRepo
	Authors      repos.AuthorLinkRepo
	Submissions  repos.SubmissionRepo
	Certificates repos.CertificateRepo
	Evaluations  repos.EvaluationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tx:           repos.NewTxRunner(db),
		Users:        repos.NewUserRepo(db, log),
		Catalog:      repos.NewCatalogRepo(db, log),
		Activity:     repos.NewActivityLogRepo(db, log),
		Materials:    repos.NewInstructionalMaterialRepo(db, log),
		Authors:      repos.NewAuthorLinkRepo(db, log),
		Submissions:  repos.NewSubmissionRepo(db, log),
		Certificates: repos.NewCertificateRepo(db, log),
		Evaluations:  repos.NewEvaluationRepo(db, log),
	}
}
