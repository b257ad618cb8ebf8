package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/http/response"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/modules/certificates"
	"github.com/yungbote/imtrack-backend/internal/modules/materials"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

// MaterialUsecases is the slice of materials.Usecases the handler drives.
type MaterialUsecases interface {
	Assign(ctx context.Context, in materials.AssignInput) (*types.InstructionalMaterial, error)
	Upload(ctx context.Context, in materials.UploadInput) (materials.UploadResult, error)
	List(ctx context.Context, in materials.ListInput) ([]*types.InstructionalMaterial, error)
	Get(ctx context.Context, id uint) (materials.Detail, error)
	Update(ctx context.Context, id uint, in materials.UpdateInput) (materials.UpdateResult, error)
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	PresignDocument(ctx context.Context, id uint) (string, error)
	Reanalyze(ctx context.Context, id uint) (string, error)
	SendAppreciation(ctx context.Context, id uint, in materials.AppreciationInput) (materials.AppreciationResult, error)
	Remind(ctx context.Context, opts materials.RemindOptions) (materials.RemindReport, error)
	RecommendationLetterURL(ctx context.Context, ttl time.Duration) (materials.RequirementLink, error)
	RecommendationLetterStatus(ctx context.Context) (materials.RequirementStatus, error)
	RecommendationLetter(ctx context.Context) ([]byte, string, error)
}

type MaterialHandler struct {
	log       *logger.Logger
	materials MaterialUsecases
	certs     CertificateUsecases
	maxUpload int64
}

func NewMaterialHandler(log *logger.Logger, mats MaterialUsecases, certs CertificateUsecases, maxUpload int64) *MaterialHandler {
	if maxUpload <= 0 {
		maxUpload = 50 << 20
	}
	return &MaterialHandler{
		log:       log.With("handler", "MaterialHandler"),
		materials: mats,
		certs:     certs,
		maxUpload: maxUpload,
	}
}

type curriculumFields struct {
	UniversityCurriculumID *uint `json:"university_curriculum_id" form:"university_curriculum_id"`
	ServiceCurriculumID    *uint `json:"service_curriculum_id" form:"service_curriculum_id"`
}

// ref returns ok=false when neither id was sent.
func (f curriculumFields) ref() (types.CurriculumRef, bool, error) {
	uni := f.UniversityCurriculumID != nil && *f.UniversityCurriculumID != 0
	svc := f.ServiceCurriculumID != nil && *f.ServiceCurriculumID != 0
	switch {
	case uni && svc:
		return types.CurriculumRef{}, true, apierr.BadRequest("invalid_curriculum", errors.New("send either university_curriculum_id or service_curriculum_id, not both"))
	case uni:
		return types.UniversityCurriculumRef(*f.UniversityCurriculumID), true, nil
	case svc:
		return types.ServiceCurriculumRef(*f.ServiceCurriculumID), true, nil
	}
	return types.CurriculumRef{}, false, nil
}

type assignRequest struct {
	curriculumFields
	Validity  string `json:"validity"`
	Semester  string `json:"semester"`
	AuthorIDs []uint `json:"author_ids"`
	DueDate   string `json:"due_date"`
}

// POST /api/materials/assign
func (h *MaterialHandler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ref, _, err := req.ref()
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	in := materials.AssignInput{
		Curriculum: ref,
		Validity:   req.Validity,
		Semester:   req.Semester,
		AuthorIDs:  req.AuthorIDs,
	}
	if strings.TrimSpace(req.DueDate) != "" {
		due, err := time.Parse("2006-01-02", strings.TrimSpace(req.DueDate))
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_due_date", err)
			return
		}
		in.DueDate = &due
	}
	m, err := h.materials.Assign(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"material": m})
}

// POST /api/materials
func (h *MaterialHandler) Upload(c *gin.Context) {
	name, content, ok := h.readFile(c, "file")
	if !ok {
		return
	}
	var cf curriculumFields
	if err := c.ShouldBind(&cf); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ref, _, err := cf.ref()
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	authorIDs, err := parseIDList(c.PostFormArray("author_ids"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_authors", err)
		return
	}
	in := materials.UploadInput{
		FileName:        name,
		Content:         content,
		Curriculum:      ref,
		Validity:        c.PostForm("validity"),
		Semester:        c.PostForm("semester"),
		AuthorIDs:       authorIDs,
		ExpectedVersion: c.PostForm("expected_version"),
	}
	if raw := strings.TrimSpace(c.PostForm("material_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_material_id", fmt.Errorf("invalid material_id %q", raw))
			return
		}
		in.MaterialID = uint(id)
	}
	if raw := strings.TrimSpace(c.PostForm("status")); raw != "" {
		st, err := lifecycle.ParseStatus(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_status", err)
			return
		}
		in.Status = &st
	}
	res, err := h.materials.Upload(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	status := http.StatusOK
	if in.MaterialID == 0 {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// GET /api/materials
func (h *MaterialHandler) List(c *gin.Context) {
	in := materials.ListInput{
		Status:  c.Query("status"),
		Deleted: c.Query("deleted") == "true",
	}
	in.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	in.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "10"))
	list, err := h.materials.List(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"materials": list, "page": in.Page})
}

// GET /api/materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	d, err := h.materials.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, d)
}

type updateRequest struct {
	curriculumFields
	Status          *string `json:"status"`
	StorageKey      *string `json:"storage_key"`
	Notes           *string `json:"notes"`
	Validity        *string `json:"validity"`
	Semester        *string `json:"semester"`
	ExpectedVersion string  `json:"expected_version"`
}

// PATCH /api/materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in := materials.UpdateInput{
		StorageKey:      req.StorageKey,
		Notes:           req.Notes,
		Validity:        req.Validity,
		Semester:        req.Semester,
		ExpectedVersion: req.ExpectedVersion,
	}
	if req.Status != nil {
		st, err := lifecycle.ParseStatus(*req.Status)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_status", err)
			return
		}
		in.Status = &st
	}
	ref, set, err := req.ref()
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if set {
		in.Curriculum = &ref
	}
	res, err := h.materials.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out := gin.H{"material": res.Material}
	if res.Outcome != nil {
		out["version_incremented"] = res.Outcome.Incremented
		out["rule"] = res.Outcome.Rule
		if res.Outcome.Flagged {
			out["flagged"] = true
		}
	}
	if len(res.Certificates) > 0 {
		out["certificates"] = res.Certificates
	}
	response.RespondOK(c, out)
}

// DELETE /api/materials/:id
func (h *MaterialHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.materials.SoftDelete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/materials/:id/restore
func (h *MaterialHandler) Restore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.materials.Restore(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/materials/:id/url
func (h *MaterialHandler) DocumentURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	url, err := h.materials.PresignDocument(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}

// POST /api/materials/:id/analyze
func (h *MaterialHandler) Analyze(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	notes, err := h.materials.Reanalyze(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notes": notes})
}

// POST /api/materials/:id/certificates
//
// An optional {"user_id": N} body reissues for one author.
func (h *MaterialHandler) IssueCertificates(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		UserID uint `json:"user_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	if req.UserID != 0 {
		res, err := h.certs.Reissue(c.Request.Context(), id, req.UserID)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		response.RespondCreated(c, gin.H{"certificates": []certificates.Result{res}})
		return
	}
	results, err := h.certs.Issue(c.Request.Context(), id)
	if err != nil && len(results) == 0 {
		response.RespondAPIError(c, err)
		return
	}
	out := gin.H{"certificates": results}
	if err != nil {
		h.log.Warn("Certificate issuance partially failed", "material_id", id, "error", err)
		out["error"] = err.Error()
		c.JSON(http.StatusMultiStatus, out)
		return
	}
	response.RespondCreated(c, out)
}

// POST /api/materials/:id/appreciation
func (h *MaterialHandler) SendAppreciation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	name, content, ok := h.readFile(c, "file")
	if !ok {
		return
	}
	res, err := h.materials.SendAppreciation(c.Request.Context(), id, materials.AppreciationInput{
		FileName: name,
		Content:  content,
		Subject:  c.PostForm("subject"),
		HTML:     c.PostForm("html"),
		Text:     c.PostForm("text"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/materials/remind
func (h *MaterialHandler) Remind(c *gin.Context) {
	opts := materials.RemindOptions{DryRun: c.Query("dry_run") == "true"}
	opts.WithinDays, _ = strconv.Atoi(c.DefaultQuery("within", "3"))
	rep, err := h.materials.Remind(c.Request.Context(), opts)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, rep)
}

func (h *MaterialHandler) readFile(c *gin.Context, field string) (string, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+(1<<20))
	fh, err := c.FormFile(field)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return "", nil, false
	}
	if fh.Size > h.maxUpload {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("file exceeds %d bytes", h.maxUpload))
		return "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return "", nil, false
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return "", nil, false
	}
	return fh.Filename, content, true
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid id %q", c.Param("id")))
		return 0, false
	}
	return uint(id), true
}

// parseIDList accepts repeated fields and comma separated values.
func parseIDList(raw []string) ([]uint, error) {
	var out []uint
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil || id == 0 {
				return nil, fmt.Errorf("invalid author id %q", part)
			}
			out = append(out, uint(id))
		}
	}
	return out, nil
}
