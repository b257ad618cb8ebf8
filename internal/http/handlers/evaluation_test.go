package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/modules/evaluations"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type fakeEvaluations struct {
	create   evaluations.CreateInput
	update   evaluations.UpdateInput
	list     evaluations.ListInput
	restored uint
	err      error
}

func (f *fakeEvaluations) Create(_ context.Context, in evaluations.CreateInput) (*types.Evaluation, error) {
	f.create = in
	if f.err != nil {
		return nil, f.err
	}
	return &types.Evaluation{ID: 4}, nil
}

func (f *fakeEvaluations) Get(_ context.Context, id uint) (*types.Evaluation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Evaluation{ID: id}, nil
}

func (f *fakeEvaluations) List(_ context.Context, in evaluations.ListInput) (evaluations.Page, error) {
	f.list = in
	return evaluations.Page{CurrentPage: in.Page, PerPage: in.PerPage}, nil
}

func (f *fakeEvaluations) Update(_ context.Context, id uint, in evaluations.UpdateInput) (*types.Evaluation, error) {
	f.update = in
	return &types.Evaluation{ID: id}, nil
}

func (f *fakeEvaluations) SoftDelete(context.Context, uint) error { return f.err }

func (f *fakeEvaluations) Restore(_ context.Context, id uint) error {
	f.restored = id
	return nil
}

func newEvaluationRouter(evals *fakeEvaluations) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewEvaluationHandler(logger.Nop(), evals)
	r := gin.New()
	r.POST("/api/evaluations", h.Create)
	r.GET("/api/evaluations", h.List)
	r.GET("/api/evaluations/:id", h.Get)
	r.PATCH("/api/evaluations/:id", h.Update)
	r.DELETE("/api/evaluations/:id", h.Delete)
	r.POST("/api/evaluations/:id/restore", h.Restore)
	return r
}

func TestCreateEvaluationForwardsBody(t *testing.T) {
	evals := &fakeEvaluations{}
	r := newEvaluationRouter(evals)

	rec := serve(r, jsonReq(http.MethodPost, "/api/evaluations", `{"material_id":12,"scores":{"a1":3,"c10":4},"comments":{"overall":"fine"}}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	in := evals.create
	if in.MaterialID == nil || *in.MaterialID != 12 {
		t.Fatalf("material id = %v", in.MaterialID)
	}
	if in.Scores["a1"] != 3 || in.Scores["c10"] != 4 || in.Comments["overall"] != "fine" {
		t.Fatalf("create input = %+v", in)
	}

	if rec := serve(r, jsonReq(http.MethodPost, "/api/evaluations", `{"scores":{"a1":"x"}}`)); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body status=%d", rec.Code)
	}
	evals.err = apierr.BadRequest("missing_scores", errors.New("missing b2"))
	rec = serve(r, jsonReq(http.MethodPost, "/api/evaluations", `{"scores":{}}`))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "missing_scores") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestEvaluationRoutes(t *testing.T) {
	evals := &fakeEvaluations{}
	r := newEvaluationRouter(evals)

	rec := serve(r, jsonReq(http.MethodPatch, "/api/evaluations/4", `{"scores":{"b2":1}}`))
	if rec.Code != http.StatusOK || evals.update.Scores["b2"] != 1 {
		t.Fatalf("update status=%d input=%+v", rec.Code, evals.update)
	}
	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/evaluations?page=3&per_page=5", nil))
	if rec.Code != http.StatusOK || evals.list.Page != 3 || evals.list.PerPage != 5 {
		t.Fatalf("list status=%d input=%+v", rec.Code, evals.list)
	}
	if rec := serve(r, httptest.NewRequest(http.MethodDelete, "/api/evaluations/4", nil)); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rec.Code)
	}
	if rec := serve(r, httptest.NewRequest(http.MethodPost, "/api/evaluations/4/restore", nil)); rec.Code != http.StatusOK || evals.restored != 4 {
		t.Fatalf("restore status=%d id=%d", rec.Code, evals.restored)
	}
	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/evaluations/zero", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status=%d", rec.Code)
	}

	evals.err = apierr.NotFound("evaluation_not_found", errors.New("evaluation 4"))
	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/evaluations/4", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "evaluation_not_found") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
