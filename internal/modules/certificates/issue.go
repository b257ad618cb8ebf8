package certificates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/domain/activity"
	"github.com/yungbote/imtrack-backend/internal/observability"
	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/docx"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
	"github.com/yungbote/imtrack-backend/internal/services"
)

// Result describes what happened for one author.
type Result struct {
	UserID         uint   `json:"user_id"`
	AuthorName     string `json:"author_name"`
	CertificateID  uint   `json:"certificate_id,omitempty"`
	VerificationID string `json:"qr_id,omitempty"`
	DocxKey        string `json:"docx_key,omitempty"`
	PDFKey         string `json:"pdf_key,omitempty"`
	Notified       bool   `json:"notified"`
	// Skipped is set when the author already holds a certificate for this cycle.
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Issue creates one certificate per linked author of a material for its
// current publication cycle. Authors that already hold one are skipped.
// Per-author failures are reported in the results and joined into the error.
func (u Usecases) Issue(ctx context.Context, materialID uint) ([]Result, error) {
	return u.issue(ctx, materialID, 0)
}

// Reissue creates a fresh certificate for one author regardless of existing
// ones. The new row references the latest certificate it replaces.
func (u Usecases) Reissue(ctx context.Context, materialID, userID uint) (Result, error) {
	if userID == 0 {
		return Result{}, apierr.BadRequest("invalid_user_id", fmt.Errorf("user id required"))
	}
	results, err := u.issue(ctx, materialID, userID)
	if len(results) == 0 {
		if err == nil {
			err = apierr.NotFound("author_not_found", fmt.Errorf("user %d is not an author of material %d", userID, materialID))
		}
		return Result{}, err
	}
	return results[0], err
}

func (u Usecases) issue(ctx context.Context, materialID, onlyUser uint) ([]Result, error) {
	ctx, span := observability.Tracer().Start(ctx, "certificates.issue",
		trace.WithAttributes(attribute.Int64("material_id", int64(materialID))))
	defer span.End()

	dbc := dbctx.Context{Ctx: ctx}
	m, err := u.deps.Materials.GetByID(dbc, materialID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, apierr.NotFound("material_not_found", err)
		}
		return nil, apierr.Internal("material_load_failed", err)
	}
	if m.IsDeleted {
		return nil, apierr.NotFound("material_not_found", fmt.Errorf("material %d is deleted", materialID))
	}

	authorIDs, err := u.deps.Authors.ListUserIDs(dbc, m.ID)
	if err != nil {
		return nil, apierr.Internal("authors_load_failed", err)
	}
	if onlyUser != 0 {
		filtered := authorIDs[:0]
		for _, id := range authorIDs {
			if id == onlyUser {
				filtered = append(filtered, id)
			}
		}
		authorIDs = filtered
	}
	if len(authorIDs) == 0 {
		return nil, apierr.BadRequest("no_authors", fmt.Errorf("%w: material %d has no authors", pkgerrors.ErrInvalidArgument, m.ID))
	}
	authors, err := u.deps.Users.GetByIDs(dbc, authorIDs)
	if err != nil {
		return nil, apierr.Internal("authors_load_failed", err)
	}

	course, err := ResolveCourse(dbc, u.deps.Catalog, m)
	if err != nil {
		return nil, apierr.Internal("curriculum_load_failed", err)
	}
	tmpl, err := u.loadTemplate(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "template")
		return nil, apierr.Upstream("template_load_failed", err)
	}

	issued := u.deps.Now()
	results := make([]Result, 0, len(authors))
	var errs []error
	for _, author := range authors {
		res, err := u.issueOne(ctx, tmpl, m, course, author, issued, onlyUser != 0)
		results = append(results, res)
		if err != nil {
			errs = append(errs, fmt.Errorf("author %d: %w", author.ID, err))
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "partial")
		return results, apierr.Upstream("certificate_issue_failed", err)
	}
	return results, nil
}

func (u Usecases) loadTemplate(ctx context.Context) ([]byte, error) {
	if p := u.deps.Config.TemplatePath; p != "" {
		return os.ReadFile(p)
	}
	return objectstore.ReadAll(ctx, u.deps.Store, u.deps.Config.TemplateKey)
}

func (u Usecases) issueOne(ctx context.Context, tmpl []byte, m *types.InstructionalMaterial, course Course, author *types.User, issued time.Time, reissue bool) (Result, error) {
	ctx, span := observability.Tracer().Start(ctx, "certificates.issue_author",
		trace.WithAttributes(attribute.Int64("user_id", int64(author.ID))))
	defer span.End()

	log := u.deps.Log.With("material_id", m.ID, "user_id", author.ID)
	res := Result{UserID: author.ID, AuthorName: author.DisplayName()}
	fail := func(err error) (Result, error) {
		res.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "issue failed")
		observability.Current().IncCertificate("failed")
		return res, err
	}

	var reissueOf *uint
	if reissue {
		prev, err := u.deps.Certificates.LatestForPair(dbctx.Context{Ctx: ctx}, m.ID, author.ID)
		if err != nil {
			return fail(err)
		}
		if prev != nil {
			reissueOf = &prev.ID
		}
	} else {
		exists, err := u.deps.Certificates.ExistsForCycle(dbctx.Context{Ctx: ctx}, m.ID, author.ID, m.Published)
		if err != nil {
			return fail(err)
		}
		if exists {
			res.Skipped = true
			observability.Current().IncCertificate("skipped")
			return res, nil
		}
	}

	// Merge before any row exists so a broken template leaves nothing behind.
	doc, err := docx.Open(tmpl)
	if err != nil {
		return fail(fmt.Errorf("open template: %w", err))
	}
	if _, err := doc.ReplacePlaceholders(mergeFields(course, m, author, issued)); err != nil {
		return fail(fmt.Errorf("merge fields: %w", err))
	}
	if left := doc.Unresolved(); len(left) > 0 {
		log.Warn("Template has unknown merge fields", "fields", left)
	}

	var uploaded []string
	var docxBytes, pdfBytes []byte
	cert := &types.Certificate{
		MaterialID: m.ID,
		UserID:     author.ID,
		Cycle:      m.Published,
		ReissueOf:  reissueOf,
		DateIssued: issued,
	}
	txErr := u.deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := u.deps.Certificates.CreateStub(dbc, cert); err != nil {
			return err
		}
		code := types.VerificationIDFor(cert.ID)

		img, err := u.deps.QR.Render(services.QRPayload{
			QRID:       code,
			AuthorName: author.DisplayName(),
			MaterialID: m.ID,
			DateIssued: issued.Format(DateLayout),
		})
		if err != nil {
			return fmt.Errorf("render qr: %w", err)
		}
		cx := int64(u.deps.Config.QRWidthInches * float64(docx.EMUPerInch))
		cy := cx * int64(img.Height) / int64(img.Width)
		placed, err := doc.ReplaceMarkerWithImage(u.deps.Config.QRMarker, img.PNG, cx, cy)
		if err != nil {
			return fmt.Errorf("place qr: %w", err)
		}
		if !placed {
			log.Warn("QR marker not found in template", "marker", u.deps.Config.QRMarker)
		}
		docxBytes, err = doc.Bytes()
		if err != nil {
			return fmt.Errorf("serialize certificate: %w", err)
		}

		docxKey := u.docxKey(code)
		if err := u.deps.Store.Put(ctx, docxKey, bytes.NewReader(docxBytes), objectstore.PutOptions{}); err != nil {
			return apierr.Upstream("certificate_upload_failed", fmt.Errorf("upload %s: %w", docxKey, err))
		}
		uploaded = append(uploaded, docxKey)

		var pdfKey *string
		if u.deps.Converter != nil {
			pdfBytes = u.deps.Converter.ToPDFBytes(ctx, code+".docx", docxBytes)
		}
		if len(pdfBytes) > 0 {
			k := u.pdfKey(code)
			if err := u.deps.Store.Put(ctx, k, bytes.NewReader(pdfBytes), objectstore.PutOptions{}); err != nil {
				log.Warn("Certificate PDF upload failed", "key", k, "error", err)
				pdfBytes = nil
			} else {
				uploaded = append(uploaded, k)
				pdfKey = &k
			}
		} else {
			log.Warn("Certificate PDF conversion failed; DOCX only", "code", code)
		}

		return u.deps.Certificates.Finalize(dbc, cert, docxKey, pdfKey)
	})
	if txErr != nil {
		for _, key := range uploaded {
			if err := u.deps.Store.Delete(ctx, key); err != nil {
				log.Warn("Orphan certificate object cleanup failed", "key", key, "error", err)
			}
		}
		return fail(txErr)
	}

	res.CertificateID = cert.ID
	res.VerificationID = cert.Code()
	res.DocxKey = cert.DocxKey
	if cert.PDFKey != nil {
		res.PDFKey = *cert.PDFKey
	}
	observability.Current().IncCertificate("issued")
	log.Info("Certificate issued", "code", res.VerificationID, "pdf", res.PDFKey != "")

	if u.deps.Activity != nil {
		u.deps.Activity.Record(dbctx.Context{Ctx: ctx}, services.ActivityEntry{
			UserID:      author.ID,
			Action:      activity.ActionIssue,
			Table:       "certificate",
			RecordID:    &cert.ID,
			New:         cert,
			Description: fmt.Sprintf("Issued %s for instructional material %d", res.VerificationID, m.ID),
		})
	}

	if u.deps.Notifier != nil {
		attachments := []services.MailAttachment{{Filename: res.VerificationID + ".docx", Content: docxBytes}}
		if len(pdfBytes) > 0 {
			attachments = append(attachments, services.MailAttachment{Filename: res.VerificationID + ".pdf", Content: pdfBytes})
		}
		ok, err := u.deps.Notifier.NotifyCertificate(ctx, []string{author.Email}, services.CertificateNotice{
			AuthorName:  author.DisplayName(),
			CourseCode:  course.CourseCode,
			CourseTitle: course.CourseTitle,
			Attachments: attachments,
		})
		if err != nil {
			log.Warn("Certificate notification rejected", "error", err)
		}
		res.Notified = ok
	}
	return res, nil
}
