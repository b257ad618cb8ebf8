package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/imtrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
)

func TestCatalogRepoPreloads(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewCatalogRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	seeded := testutil.SeedCatalog(t, ctx, tx, "p")

	uc, err := repo.GetUniversityCurriculum(dbc, seeded.University.ID)
	if err != nil {
		t.Fatalf("GetUniversityCurriculum: %v", err)
	}
	if uc.College == nil || uc.Department == nil || uc.Subject == nil {
		t.Fatalf("associations not preloaded: %+v", uc)
	}
	if uc.Department.Name != seeded.Department.Name || uc.Subject.Code != seeded.Subject.Code {
		t.Fatalf("unexpected curriculum: %+v", uc)
	}

	sc, err := repo.GetServiceCurriculum(dbc, seeded.Service.ID)
	if err != nil || sc.College == nil || sc.Subject == nil {
		t.Fatalf("GetServiceCurriculum = %+v %v", sc, err)
	}

	if _, err := repo.GetServiceCurriculum(dbc, 999999); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	dup := &types.College{Abbreviation: seeded.College.Abbreviation, Name: "Other"}
	if err := repo.CreateCollege(dbc, dup); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
