package certificates

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
)

// View is a certificate with access URLs minted for this call only.
type View struct {
	ID             uint      `json:"id"`
	VerificationID string    `json:"qr_id"`
	MaterialID     uint      `json:"im_id"`
	DateIssued     time.Time `json:"date_issued"`
	DocxURL        string    `json:"docx_url"`
	PDFURL         *string   `json:"pdf_url"`
}

// ListForUser presigns every certificate of a user. The PDF object is probed
// on every call since a backfill may have produced it since issuance.
func (u Usecases) ListForUser(ctx context.Context, userID uint) ([]View, error) {
	certs, err := u.deps.Certificates.ListForUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, apierr.Internal("certificates_load_failed", err)
	}
	out := make([]View, 0, len(certs))
	for _, c := range certs {
		code := c.Code()
		docxKey := c.DocxKey
		if docxKey == "" {
			docxKey = u.docxKey(code)
		}
		docxURL, err := u.presign(ctx, docxKey)
		if err != nil {
			return nil, apierr.Upstream("presign_failed", err)
		}
		v := View{
			ID:             c.ID,
			VerificationID: code,
			MaterialID:     c.MaterialID,
			DateIssued:     c.DateIssued,
			DocxURL:        docxURL,
		}

		pdfKey := u.pdfKey(code)
		exists, err := u.deps.Store.Exists(ctx, pdfKey)
		if err != nil {
			u.deps.Log.Warn("Certificate PDF probe failed", "key", pdfKey, "error", err)
		}
		if exists {
			pdfURL, err := u.presign(ctx, pdfKey)
			if err != nil {
				return nil, apierr.Upstream("presign_failed", err)
			}
			v.PDFURL = &pdfURL
		}
		out = append(out, v)
	}
	return out, nil
}

func (u Usecases) presign(ctx context.Context, key string) (string, error) {
	return u.deps.Store.PresignGet(ctx, key, u.deps.Config.PresignTTL, objectstore.PresignOptions{
		ResponseDisposition: objectstore.AttachmentDisposition(path.Base(key)),
	})
}

// Verification is the public answer for a scanned QR code.
type Verification struct {
	VerificationID string    `json:"qr_id"`
	AuthorName     string    `json:"author_name"`
	MaterialID     uint      `json:"im_id"`
	CourseCode     string    `json:"course_code"`
	CourseTitle    string    `json:"course_title"`
	DateIssued     time.Time `json:"date_issued"`
	Reissued       bool      `json:"reissued"`
}

func (u Usecases) VerifyByCode(ctx context.Context, code string) (Verification, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !strings.HasPrefix(code, "CERT-") {
		return Verification{}, apierr.BadRequest("invalid_verification_id", fmt.Errorf("%w: %q", pkgerrors.ErrInvalidArgument, code))
	}
	dbc := dbctx.Context{Ctx: ctx}
	c, err := u.deps.Certificates.GetByVerificationID(dbc, code)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return Verification{}, apierr.NotFound("certificate_not_found", err)
		}
		return Verification{}, apierr.Internal("certificate_load_failed", err)
	}
	v := Verification{
		VerificationID: c.Code(),
		MaterialID:     c.MaterialID,
		DateIssued:     c.DateIssued,
		Reissued:       c.ReissueOf != nil,
	}
	if author, err := u.deps.Users.GetByID(dbc, c.UserID); err == nil {
		v.AuthorName = author.DisplayName()
	}
	if m, err := u.deps.Materials.GetByID(dbc, c.MaterialID); err == nil {
		if course, err := ResolveCourse(dbc, u.deps.Catalog, m); err == nil {
			v.CourseCode, v.CourseTitle = course.CourseCode, course.CourseTitle
		}
	}
	return v, nil
}
