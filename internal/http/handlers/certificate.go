package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/imtrack-backend/internal/http/response"
	"github.com/yungbote/imtrack-backend/internal/modules/certificates"
	"github.com/yungbote/imtrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type CertificateUsecases interface {
	Issue(ctx context.Context, materialID uint) ([]certificates.Result, error)
	Reissue(ctx context.Context, materialID, userID uint) (certificates.Result, error)
	ListForUser(ctx context.Context, userID uint) ([]certificates.View, error)
	VerifyByCode(ctx context.Context, code string) (certificates.Verification, error)
	BackfillPDFs(ctx context.Context, opts certificates.BackfillOptions) (certificates.BackfillReport, error)
}

type CertificateHandler struct {
	log   *logger.Logger
	certs CertificateUsecases
}

func NewCertificateHandler(log *logger.Logger, certs CertificateUsecases) *CertificateHandler {
	return &CertificateHandler{
		log:   log.With("handler", "CertificateHandler"),
		certs: certs,
	}
}

// GET /api/certificates/me
func (h *CertificateHandler) ListMine(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == 0 {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	views, err := h.certs.ListForUser(c.Request.Context(), rd.UserID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"certificates": views})
}

// GET /api/certificates/verify/:code
func (h *CertificateHandler) Verify(c *gin.Context) {
	v, err := h.certs.VerifyByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, v)
}

// POST /api/certificates/backfill
func (h *CertificateHandler) Backfill(c *gin.Context) {
	opts := certificates.BackfillOptions{DryRun: c.Query("dry_run") == "true"}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		opts.Limit = n
	}
	rep, err := h.certs.BackfillPDFs(c.Request.Context(), opts)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.log.Info("Certificate PDF backfill", "scanned", rep.Scanned, "converted", rep.Converted, "failed", rep.Failed, "dry_run", opts.DryRun)
	response.RespondOK(c, rep)
}
