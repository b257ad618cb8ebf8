package materials

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/imtrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
)

func TestSubmissionRepoListPending(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewSubmissionRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	cat := testutil.SeedCatalog(t, ctx, tx, "s")
	ref := types.UniversityCurriculumRef(cat.University.ID)
	waiting := testutil.SeedMaterial(t, ctx, tx, ref, lifecycle.StatusAssignedToFaculty, "")
	uploaded := testutil.SeedMaterial(t, ctx, tx, ref, lifecycle.StatusIMEREvaluation, "k.pdf")
	u := testutil.SeedUser(t, ctx, tx, testutil.Email(2))

	day := func(d int) *time.Time {
		v := time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	subs := []*types.Submission{
		{UserID: u.ID, MaterialID: waiting.ID, DueDate: day(3)},
		{UserID: u.ID, MaterialID: waiting.ID, DueDate: day(20)},
		{UserID: u.ID, MaterialID: waiting.ID},
		{UserID: u.ID, MaterialID: uploaded.ID, DueDate: day(2)},
	}
	if err := repo.Create(dbc, subs); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.ListPending(dbc, *day(10))
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(got) != 1 || got[0].ID != subs[0].ID {
		t.Fatalf("unexpected pending: %+v", got)
	}

	all, err := repo.ListForMaterial(dbc, waiting.ID)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListForMaterial = %d %v", len(all), err)
	}
}

func TestSubmissionRepoCloseForMaterial(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewSubmissionRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	cat := testutil.SeedCatalog(t, ctx, tx, "c")
	m := testutil.SeedMaterial(t, ctx, tx, types.UniversityCurriculumRef(cat.University.ID), lifecycle.StatusAssignedToFaculty, "")
	u := testutil.SeedUser(t, ctx, tx, testutil.Email(3))

	due := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	subs := []*types.Submission{
		{UserID: u.ID, MaterialID: m.ID, DueDate: &due},
		{UserID: u.ID, MaterialID: m.ID, DueDate: &due},
	}
	if err := repo.Create(dbc, subs); err != nil {
		t.Fatalf("Create: %v", err)
	}

	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	n, err := repo.CloseForMaterial(dbc, m.ID, at)
	if err != nil || n != 2 {
		t.Fatalf("CloseForMaterial = %d %v", n, err)
	}
	// Already closed rows are left alone.
	if n, err := repo.CloseForMaterial(dbc, m.ID, at.Add(time.Hour)); err != nil || n != 0 {
		t.Fatalf("second CloseForMaterial = %d %v", n, err)
	}

	got, err := repo.ListPending(dbc, due.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("closed submissions still pending: %+v", got)
	}
	all, err := repo.ListForMaterial(dbc, m.ID)
	if err != nil {
		t.Fatalf("ListForMaterial: %v", err)
	}
	for _, s := range all {
		if s.IsOpen() || !s.SubmittedAt.Equal(at) {
			t.Fatalf("submission %d not closed at %v: %+v", s.ID, at, s.SubmittedAt)
		}
	}
}
