package certificates

import (
	"bytes"
	"context"

	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
)

type BackfillOptions struct {
	Limit  int
	DryRun bool
}

type BackfillReport struct {
	Scanned   int      `json:"scanned"`
	Converted int      `json:"converted"`
	Linked    int      `json:"linked"`
	Failed    int      `json:"failed"`
	Pending   []string `json:"pending,omitempty"`
}

// BackfillPDFs converts certificates that were issued without a PDF. When
// the PDF object already exists it is only linked to the row.
func (u Usecases) BackfillPDFs(ctx context.Context, opts BackfillOptions) (BackfillReport, error) {
	var rep BackfillReport
	if u.deps.Converter == nil && !opts.DryRun {
		return rep, apierr.Internal("converter_missing", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	certs, err := u.deps.Certificates.ListMissingPDF(dbc, opts.Limit)
	if err != nil {
		return rep, apierr.Internal("certificates_load_failed", err)
	}
	for _, c := range certs {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		rep.Scanned++
		code := c.Code()
		pdfKey := u.pdfKey(code)
		log := u.deps.Log.With("code", code)

		if opts.DryRun {
			rep.Pending = append(rep.Pending, code)
			continue
		}

		exists, err := u.deps.Store.Exists(ctx, pdfKey)
		if err != nil {
			log.Warn("PDF probe failed", "error", err)
		}
		if !exists {
			docxKey := c.DocxKey
			if docxKey == "" {
				docxKey = u.docxKey(code)
			}
			data, err := objectstore.ReadAll(ctx, u.deps.Store, docxKey)
			if err != nil {
				log.Warn("DOCX download failed", "key", docxKey, "error", err)
				rep.Failed++
				continue
			}
			pdf := u.deps.Converter.ToPDFBytes(ctx, code+".docx", data)
			if len(pdf) == 0 {
				rep.Failed++
				continue
			}
			if err := u.deps.Store.Put(ctx, pdfKey, bytes.NewReader(pdf), objectstore.PutOptions{}); err != nil {
				log.Warn("PDF upload failed", "key", pdfKey, "error", err)
				rep.Failed++
				continue
			}
			rep.Converted++
		} else {
			rep.Linked++
		}

		if err := u.deps.Certificates.SetPDFKey(dbc, c.ID, pdfKey); err != nil {
			log.Warn("PDF key update failed", "error", err)
			rep.Failed++
		}
	}
	u.deps.Log.Info("PDF backfill finished",
		"scanned", rep.Scanned, "converted", rep.Converted, "linked", rep.Linked, "failed", rep.Failed, "dry_run", opts.DryRun)
	return rep, nil
}
