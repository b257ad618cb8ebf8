package materials

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/imtrack-backend/internal/data/repos"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/domain/activity"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
)

type Detail struct {
	Material    *types.InstructionalMaterial `json:"material"`
	AuthorIDs   []uint                       `json:"author_ids"`
	Submissions []*types.Submission          `json:"submissions"`
}

// Get returns an active material with its authors and submissions.
func (u Usecases) Get(ctx context.Context, id uint) (Detail, error) {
	dbc := dbctx.Context{Ctx: ctx}
	m, err := u.active(dbc, id)
	if err != nil {
		return Detail{}, err
	}
	authorIDs, err := u.deps.Authors.ListUserIDs(dbc, id)
	if err != nil {
		return Detail{}, apierr.Internal("authors_load_failed", err)
	}
	subs, err := u.deps.Submissions.ListForMaterial(dbc, id)
	if err != nil {
		return Detail{}, apierr.Internal("submissions_load_failed", err)
	}
	return Detail{Material: m, AuthorIDs: authorIDs, Submissions: subs}, nil
}

func (u Usecases) active(dbc dbctx.Context, id uint) (*types.InstructionalMaterial, error) {
	m, err := u.deps.Materials.GetByID(dbc, id)
	if err != nil {
		return nil, mapLoadErr(err)
	}
	if m.IsDeleted {
		return nil, apierr.NotFound("material_not_found", fmt.Errorf("%w: material %d is deleted", pkgerrors.ErrNotFound, id))
	}
	return m, nil
}

type ListInput struct {
	// Status is a label; empty lists every status.
	Status  string
	Deleted bool
	Page    int
	PerPage int
}

const defaultPerPage = 10

func (u Usecases) List(ctx context.Context, in ListInput) ([]*types.InstructionalMaterial, error) {
	f := repos.MaterialListFilter{DeletedOnly: in.Deleted}
	if s := strings.TrimSpace(in.Status); s != "" {
		st, err := lifecycle.ParseStatus(s)
		if err != nil {
			return nil, apierr.BadRequest("invalid_status", err)
		}
		f.Status = &st
	}
	per := in.PerPage
	if per <= 0 {
		per = defaultPerPage
	}
	page := in.Page
	if page <= 0 {
		page = 1
	}
	f.Limit = per
	f.Offset = (page - 1) * per
	out, err := u.deps.Materials.List(dbctx.Context{Ctx: ctx}, f)
	if err != nil {
		return nil, apierr.Internal("materials_load_failed", err)
	}
	return out, nil
}

// PresignDocument mints a short-lived inline URL for the current document.
func (u Usecases) PresignDocument(ctx context.Context, id uint) (string, error) {
	m, err := u.active(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return "", err
	}
	if m.StorageKey == nil || *m.StorageKey == "" {
		return "", apierr.NotFound("document_not_found", fmt.Errorf("%w: material %d has no document", pkgerrors.ErrNotFound, id))
	}
	url, err := u.deps.Store.PresignGet(ctx, *m.StorageKey, u.deps.Config.PresignTTL, objectstore.PresignOptions{
		ResponseContentType: pdfContentType,
		ResponseDisposition: objectstore.InlineDisposition(m.FileName()),
	})
	if err != nil {
		return "", apierr.Upstream("presign_failed", err)
	}
	return url, nil
}

// Reanalyze runs the section analyzer against the stored document and saves
// the advisory notes.
func (u Usecases) Reanalyze(ctx context.Context, id uint) (string, error) {
	dbc := dbctx.Context{Ctx: ctx}
	m, err := u.active(dbc, id)
	if err != nil {
		return "", err
	}
	if m.StorageKey == nil || *m.StorageKey == "" {
		return "", apierr.NotFound("document_not_found", fmt.Errorf("%w: material %d has no document", pkgerrors.ErrNotFound, id))
	}
	data, err := objectstore.ReadAll(ctx, u.deps.Store, *m.StorageKey)
	if err != nil {
		return "", apierr.Upstream("download_failed", err)
	}
	notes := u.analyze(ctx, m.FileName(), data)
	m.Notes = notes
	m.UpdatedBy = actorFrom(ctx).label()
	if err := u.deps.Materials.Save(dbc, m); err != nil {
		return "", mapLifecycleErr(err)
	}
	return notes, nil
}

func (u Usecases) SoftDelete(ctx context.Context, id uint) error {
	return u.setDeleted(ctx, id, true)
}

func (u Usecases) Restore(ctx context.Context, id uint) error {
	return u.setDeleted(ctx, id, false)
}

// setDeleted only flips rows that are currently in the opposite state.
func (u Usecases) setDeleted(ctx context.Context, id uint, deleted bool) error {
	dbc := dbctx.Context{Ctx: ctx}
	m, err := u.deps.Materials.GetByID(dbc, id)
	if err != nil {
		return mapLoadErr(err)
	}
	if m.IsDeleted == deleted {
		return apierr.NotFound("material_not_found", fmt.Errorf("%w: material %d", pkgerrors.ErrNotFound, id))
	}
	who := actorFrom(ctx)
	if err := u.deps.Materials.SetDeleted(dbc, id, deleted, who.label()); err != nil {
		return mapLifecycleErr(err)
	}
	action, verb := activity.ActionDelete, "Deleted"
	if !deleted {
		action, verb = activity.ActionRestore, "Restored"
	}
	u.deps.Log.Info(verb+" material", "material_id", id)
	u.record(ctx, who, action, id, nil, nil, fmt.Sprintf("%s instructional material %d", verb, id))
	return nil
}
