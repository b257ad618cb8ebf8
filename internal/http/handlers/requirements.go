package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/imtrack-backend/internal/http/response"
	"github.com/yungbote/imtrack-backend/internal/modules/materials"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
)

// GET /api/requirements/recommendation-letter/view
func (h *MaterialHandler) ViewRecommendationLetter(c *gin.Context) {
	link, err := h.materials.RecommendationLetterURL(c.Request.Context(), materials.ViewTTL)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, link)
}

// GET /api/requirements/recommendation-letter/redirect
func (h *MaterialHandler) RedirectRecommendationLetter(c *gin.Context) {
	link, err := h.materials.RecommendationLetterURL(c.Request.Context(), materials.RedirectTTL)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Redirect(http.StatusFound, link.URL)
}

// GET /api/requirements/recommendation-letter/check
func (h *MaterialHandler) CheckRecommendationLetter(c *gin.Context) {
	st, err := h.materials.RecommendationLetterStatus(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, st)
}

// GET /api/requirements/recommendation-letter/download
func (h *MaterialHandler) DownloadRecommendationLetter(c *gin.Context) {
	data, name, err := h.materials.RecommendationLetter(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Header("Content-Disposition", objectstore.AttachmentDisposition(name))
	c.Data(http.StatusOK, "application/pdf", data)
}
