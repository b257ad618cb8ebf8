package materials

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/imtrack-backend/internal/data/dberr"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type CertificateRepo interface {
	// CreateStub inserts a row without a verification id and flushes it so
	// the assigned id is visible inside the caller's transaction.
	CreateStub(dbc dbctx.Context, stub *types.Certificate) error
	// Finalize fixes the verification id and document keys of a stub.
	Finalize(dbc dbctx.Context, cert *types.Certificate, docxKey string, pdfKey *string) error
	SetPDFKey(dbc dbctx.Context, id uint, pdfKey string) error
	ExistsForCycle(dbc dbctx.Context, materialID, userID uint, cycle int) (bool, error)
	// LatestForPair returns nil, nil when the pair has no finalized certificate.
	LatestForPair(dbc dbctx.Context, materialID, userID uint) (*types.Certificate, error)
	ListForUser(dbc dbctx.Context, userID uint) ([]*types.Certificate, error)
	ListForMaterial(dbc dbctx.Context, materialID uint) ([]*types.Certificate, error)
	ListMissingPDF(dbc dbctx.Context, limit int) ([]*types.Certificate, error)
	GetByVerificationID(dbc dbctx.Context, verificationID string) (*types.Certificate, error)
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return &certificateRepo{
		db:  db,
		log: baseLog.With("repo", "CertificateRepo"),
	}
}

func (r *certificateRepo) CreateStub(dbc dbctx.Context, stub *types.Certificate) error {
	if stub == nil || stub.MaterialID == 0 || stub.UserID == 0 {
		return fmt.Errorf("create certificate stub: %w: material and user required", pkgerrors.ErrInvalidArgument)
	}
	stub.ID = 0
	stub.VerificationID = nil
	if stub.DateIssued.IsZero() {
		stub.DateIssued = time.Now()
	}
	if err := dbc.Conn(r.db).Create(stub).Error; err != nil {
		return dberr.MapError("create certificate stub", err)
	}
	if stub.ID == 0 {
		return dberr.MapError("create certificate stub", gorm.ErrPrimaryKeyRequired)
	}
	return nil
}

func (r *certificateRepo) Finalize(dbc dbctx.Context, cert *types.Certificate, docxKey string, pdfKey *string) error {
	code := types.VerificationIDFor(cert.ID)
	err := dbc.Conn(r.db).
		Model(&types.Certificate{}).
		Where("id = ?", cert.ID).
		Updates(map[string]interface{}{
			"verification_id": code,
			"docx_key":        docxKey,
			"pdf_key":         pdfKey,
		}).Error
	if err != nil {
		return dberr.MapError("finalize certificate", err)
	}
	cert.VerificationID = &code
	cert.DocxKey = docxKey
	cert.PDFKey = pdfKey
	return nil
}

func (r *certificateRepo) SetPDFKey(dbc dbctx.Context, id uint, pdfKey string) error {
	res := dbc.Conn(r.db).
		Model(&types.Certificate{}).
		Where("id = ?", id).
		Update("pdf_key", pdfKey)
	if res.Error != nil {
		return dberr.MapError("set certificate pdf key", res.Error)
	}
	if res.RowsAffected == 0 {
		return dberr.MapError("set certificate pdf key", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *certificateRepo) ExistsForCycle(dbc dbctx.Context, materialID, userID uint, cycle int) (bool, error) {
	var n int64
	err := dbc.Conn(r.db).
		Model(&types.Certificate{}).
		Where("material_id = ? AND user_id = ? AND cycle = ?", materialID, userID, cycle).
		Count(&n).Error
	if err != nil {
		return false, dberr.MapError("count certificates", err)
	}
	return n > 0, nil
}

func (r *certificateRepo) LatestForPair(dbc dbctx.Context, materialID, userID uint) (*types.Certificate, error) {
	var c types.Certificate
	err := dbc.Conn(r.db).
		Where("material_id = ? AND user_id = ? AND verification_id IS NOT NULL", materialID, userID).
		Order("id DESC").
		Limit(1).
		Find(&c).Error
	if err != nil {
		return nil, dberr.MapError("latest certificate", err)
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *certificateRepo) ListForUser(dbc dbctx.Context, userID uint) ([]*types.Certificate, error) {
	var out []*types.Certificate
	err := dbc.Conn(r.db).
		Where("user_id = ? AND verification_id IS NOT NULL", userID).
		Order("date_issued DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, dberr.MapError("list user certificates", err)
	}
	return out, nil
}

func (r *certificateRepo) ListForMaterial(dbc dbctx.Context, materialID uint) ([]*types.Certificate, error) {
	var out []*types.Certificate
	err := dbc.Conn(r.db).
		Where("material_id = ? AND verification_id IS NOT NULL", materialID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, dberr.MapError("list material certificates", err)
	}
	return out, nil
}

func (r *certificateRepo) ListMissingPDF(dbc dbctx.Context, limit int) ([]*types.Certificate, error) {
	q := dbc.Conn(r.db).
		Where("verification_id IS NOT NULL AND (pdf_key IS NULL OR pdf_key = '')").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Certificate
	if err := q.Find(&out).Error; err != nil {
		return nil, dberr.MapError("list certificates missing pdf", err)
	}
	return out, nil
}

func (r *certificateRepo) GetByVerificationID(dbc dbctx.Context, verificationID string) (*types.Certificate, error) {
	var c types.Certificate
	if err := dbc.Conn(r.db).Where("verification_id = ?", verificationID).First(&c).Error; err != nil {
		return nil, dberr.MapError("get certificate", err)
	}
	return &c, nil
}
