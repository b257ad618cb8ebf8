package evaluations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/imtrack-backend/internal/data/repos"
	"github.com/yungbote/imtrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/domain/materials"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/imtrack-backend/internal/services"
)

func newUsecases(t *testing.T) (Usecases, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return New(UsecasesDeps{
		Log:         log,
		Tx:          repos.NewTxRunner(db),
		Evaluations: repos.NewEvaluationRepo(db, log),
		Activity:    services.NewActivityLogger(log, repos.NewActivityLogRepo(db, log)),
	}), db
}

func asEvaluator() context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: 9, Role: "PIMEC", Email: "pimec@x.edu"})
}

func allScores(v int) map[string]int {
	out := map[string]int{}
	for _, k := range materials.ScoreKeys() {
		out[k] = v
	}
	return out
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	ae, ok := apierr.As(err)
	require.True(t, ok, "expected api error, got %v", err)
	return ae.Code
}

func TestCreateDerivesTotalsAndLinksMaterial(t *testing.T) {
	uc, db := newUsecases(t)
	ctx := asEvaluator()
	cat := testutil.SeedCatalog(t, context.Background(), db, "")
	m := testutil.SeedMaterial(t, context.Background(), db, types.UniversityCurriculumRef(cat.University.ID), lifecycle.StatusIMEREvaluation, "k.pdf")

	scores := allScores(3)
	scores["c10"] = 5
	e, err := uc.Create(ctx, CreateInput{
		MaterialID: &m.ID,
		Scores:     scores,
		Comments:   map[string]string{"c": "needs citations", "overall": "revise"},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, e.Subtotals.A)
	assert.Equal(t, 32, e.Subtotals.C)
	assert.Equal(t, 68, e.Subtotals.Total)
	assert.Equal(t, "needs citations", e.Comments.C)
	assert.Equal(t, "pimec@x.edu", e.CreatedBy)

	var linked types.InstructionalMaterial
	require.NoError(t, db.First(&linked, m.ID).Error)
	require.NotNil(t, linked.EvaluationID)
	assert.Equal(t, e.ID, *linked.EvaluationID)

	var logs int64
	require.NoError(t, db.Model(&types.ActivityLog{}).Where("table_name = ? AND action = ?", "evaluation", "CREATE").Count(&logs).Error)
	assert.Equal(t, int64(1), logs)
}

func TestCreateValidation(t *testing.T) {
	uc, _ := newUsecases(t)
	ctx := asEvaluator()

	partial := allScores(1)
	delete(partial, "b2")
	_, err := uc.Create(ctx, CreateInput{Scores: partial})
	assert.Equal(t, "missing_scores", codeOf(t, err))

	neg := allScores(1)
	neg["a1"] = -2
	_, err = uc.Create(ctx, CreateInput{Scores: neg})
	assert.Equal(t, "invalid_scores", codeOf(t, err))

	missing := uint(4040)
	_, err = uc.Create(ctx, CreateInput{MaterialID: &missing, Scores: allScores(1)})
	assert.Equal(t, "material_not_found", codeOf(t, err))
}

func TestUpdateAlwaysRecomputesSubtotals(t *testing.T) {
	uc, db := newUsecases(t)
	ctx := asEvaluator()
	e, err := uc.Create(ctx, CreateInput{Scores: allScores(2)})
	require.NoError(t, err)
	require.Equal(t, 44, e.Subtotals.Total)

	// Corrupt the stored totals behind the usecase's back.
	require.NoError(t, db.Model(&types.Evaluation{}).Where("id = ?", e.ID).
		Updates(map[string]any{"a_subtotal": 100, "total": 500}).Error)

	got, err := uc.Update(ctx, e.ID, UpdateInput{Scores: map[string]int{"a1": 5, "d3": 0}})
	require.NoError(t, err)
	assert.Equal(t, 9, got.Subtotals.A)
	assert.Equal(t, 4, got.Subtotals.D)
	assert.Equal(t, 45, got.Subtotals.Total)

	// A comment-only update still rewrites the derived fields.
	require.NoError(t, db.Model(&types.Evaluation{}).Where("id = ?", e.ID).Update("total", 1).Error)
	got, err = uc.Update(ctx, e.ID, UpdateInput{Comments: map[string]string{"overall": "ok"}})
	require.NoError(t, err)
	assert.Equal(t, 45, got.Subtotals.Total)

	stored, err := uc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, stored.Subtotals.Total)
	assert.Equal(t, "ok", stored.Comments.Overall)

	_, err = uc.Update(ctx, e.ID, UpdateInput{Scores: map[string]int{"f1": 1}})
	assert.Equal(t, "invalid_scores", codeOf(t, err))
	_, err = uc.Update(ctx, e.ID+100, UpdateInput{})
	assert.Equal(t, "evaluation_not_found", codeOf(t, err))
}

func TestSoftDeleteRestoreAndList(t *testing.T) {
	uc, _ := newUsecases(t)
	ctx := asEvaluator()
	first, err := uc.Create(ctx, CreateInput{Scores: allScores(1)})
	require.NoError(t, err)
	_, err = uc.Create(ctx, CreateInput{Scores: allScores(2)})
	require.NoError(t, err)

	require.NoError(t, uc.SoftDelete(ctx, first.ID))
	assert.Equal(t, "evaluation_not_found", codeOf(t, uc.SoftDelete(ctx, first.ID)))
	_, err = uc.Get(ctx, first.ID)
	assert.Equal(t, "evaluation_not_found", codeOf(t, err))
	_, err = uc.Update(ctx, first.ID, UpdateInput{})
	assert.Equal(t, "evaluation_not_found", codeOf(t, err))

	page, err := uc.List(ctx, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, int64(1), page.Pages)
	assert.Equal(t, 10, page.PerPage)
	require.Len(t, page.Evaluations, 1)

	require.NoError(t, uc.Restore(ctx, first.ID))
	assert.Equal(t, "evaluation_not_deleted", codeOf(t, uc.Restore(ctx, first.ID)))

	page, err = uc.List(ctx, ListInput{Page: 2, PerPage: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, int64(2), page.Pages)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Evaluations, 1)
}
