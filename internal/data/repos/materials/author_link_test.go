package materials

import (
	"context"
	"reflect"
	"testing"

	"github.com/yungbote/imtrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
)

func TestAuthorLinkRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewAuthorLinkRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	cat := testutil.SeedCatalog(t, ctx, tx, "l")
	m := testutil.SeedMaterial(t, ctx, tx, types.UniversityCurriculumRef(cat.University.ID), lifecycle.StatusAssignedToFaculty, "")
	a := testutil.SeedUser(t, ctx, tx, testutil.Email(3))
	b := testutil.SeedUser(t, ctx, tx, testutil.Email(4))

	if err := repo.Add(dbc, m.ID, []uint{b.ID, a.ID, a.ID}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Re-adding an existing pair is a no-op.
	if err := repo.Add(dbc, m.ID, []uint{a.ID}); err != nil {
		t.Fatalf("Add again: %v", err)
	}
	ids, err := repo.ListUserIDs(dbc, m.ID)
	if err != nil {
		t.Fatalf("ListUserIDs: %v", err)
	}
	if want := []uint{a.ID, b.ID}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ListUserIDs = %v, want %v", ids, want)
	}

	mids, err := repo.ListMaterialIDs(dbc, b.ID)
	if err != nil || len(mids) != 1 || mids[0] != m.ID {
		t.Fatalf("ListMaterialIDs = %v %v", mids, err)
	}

	if err := repo.Remove(dbc, m.ID, []uint{b.ID}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	ids, _ = repo.ListUserIDs(dbc, m.ID)
	if len(ids) != 1 || ids[0] != a.ID {
		t.Fatalf("after Remove = %v", ids)
	}
}
