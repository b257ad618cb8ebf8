package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/http/response"
	"github.com/yungbote/imtrack-backend/internal/modules/evaluations"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type EvaluationUsecases interface {
	Create(ctx context.Context, in evaluations.CreateInput) (*types.Evaluation, error)
	Get(ctx context.Context, id uint) (*types.Evaluation, error)
	List(ctx context.Context, in evaluations.ListInput) (evaluations.Page, error)
	Update(ctx context.Context, id uint, in evaluations.UpdateInput) (*types.Evaluation, error)
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
}

type EvaluationHandler struct {
	log   *logger.Logger
	evals EvaluationUsecases
}

func NewEvaluationHandler(log *logger.Logger, evals EvaluationUsecases) *EvaluationHandler {
	return &EvaluationHandler{
		log:   log.With("handler", "EvaluationHandler"),
		evals: evals,
	}
}

type evaluationRequest struct {
	MaterialID *uint             `json:"material_id"`
	Scores     map[string]int    `json:"scores"`
	Comments   map[string]string `json:"comments"`
}

// POST /api/evaluations
func (h *EvaluationHandler) Create(c *gin.Context) {
	var req evaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	e, err := h.evals.Create(c.Request.Context(), evaluations.CreateInput{
		MaterialID: req.MaterialID,
		Scores:     req.Scores,
		Comments:   req.Comments,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"evaluation": e})
}

// GET /api/evaluations
func (h *EvaluationHandler) List(c *gin.Context) {
	var in evaluations.ListInput
	in.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	in.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "10"))
	page, err := h.evals.List(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/evaluations/:id
func (h *EvaluationHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, err := h.evals.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"evaluation": e})
}

// PATCH /api/evaluations/:id
//
// Scores and comments are partial; the totals always come back recomputed.
func (h *EvaluationHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req evaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	e, err := h.evals.Update(c.Request.Context(), id, evaluations.UpdateInput{
		Scores:   req.Scores,
		Comments: req.Comments,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"evaluation": e})
}

// DELETE /api/evaluations/:id
func (h *EvaluationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.evals.SoftDelete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/evaluations/:id/restore
func (h *EvaluationHandler) Restore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.evals.Restore(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
