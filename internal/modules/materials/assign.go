package materials

import (
	"context"
	"fmt"
	"strings"
	"time"

	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/domain/activity"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/services"
)

type AssignInput struct {
	Curriculum types.CurriculumRef
	Validity   string
	Semester   string
	AuthorIDs  []uint
	// DueDate is copied onto every author's submission row.
	DueDate *time.Time
}

// Assign creates a material without a document, links its authors and opens
// one submission per author.
func (u Usecases) Assign(ctx context.Context, in AssignInput) (*types.InstructionalMaterial, error) {
	if in.Curriculum.IsZero() {
		return nil, apierr.BadRequest("invalid_curriculum", fmt.Errorf("%w: curriculum reference required", pkgerrors.ErrInvalidArgument))
	}
	if strings.TrimSpace(in.Validity) == "" {
		return nil, apierr.BadRequest("invalid_validity", fmt.Errorf("%w: validity required", pkgerrors.ErrInvalidArgument))
	}
	authorIDs := uniqueIDs(in.AuthorIDs)
	if len(authorIDs) == 0 {
		return nil, apierr.BadRequest("invalid_authors", fmt.Errorf("%w: at least one author required", pkgerrors.ErrInvalidArgument))
	}
	if err := u.checkAuthors(ctx, authorIDs); err != nil {
		return nil, err
	}

	who := actorFrom(ctx)
	m := &types.InstructionalMaterial{
		Validity:  strings.TrimSpace(in.Validity),
		Semester:  strings.TrimSpace(in.Semester),
		CreatedBy: who.label(),
		UpdatedBy: who.label(),
	}
	if who.userID != 0 {
		id := who.userID
		m.AssignedBy = &id
	}
	if err := m.SetCurriculum(in.Curriculum); err != nil {
		return nil, apierr.Internal("invariant_violation", err)
	}
	c := lifecycle.InitialCounters(lifecycle.StatusAssignedToFaculty)
	m.SetLifecycle(lifecycle.StatusAssignedToFaculty, c, c.Version())

	err := u.deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := u.deps.Materials.Create(dbc, m); err != nil {
			return err
		}
		if err := u.deps.Authors.Add(dbc, m.ID, authorIDs); err != nil {
			return err
		}
		subs := make([]*types.Submission, 0, len(authorIDs))
		for _, id := range authorIDs {
			subs = append(subs, &types.Submission{UserID: id, MaterialID: m.ID, DueDate: in.DueDate})
		}
		return u.deps.Submissions.Create(dbc, subs)
	})
	if err != nil {
		return nil, mapLifecycleErr(err)
	}
	u.deps.Log.Info("Material assigned", "material_id", m.ID, "authors", len(authorIDs))

	u.record(ctx, who, activity.ActionCreate, m.ID, nil, m, fmt.Sprintf("Assigned instructional material %d", m.ID))

	if emails, _ := u.authorEmails(ctx, m.ID); len(emails) > 0 && u.deps.Notifier != nil {
		if _, err := u.deps.Notifier.NotifyStatusChange(ctx, emails, services.StatusChangeNotice{
			Action:   "assigned",
			FileName: fmt.Sprintf("IM-%d", m.ID),
			Status:   string(m.Status),
		}); err != nil {
			u.deps.Log.Warn("Assignment notification rejected", "material_id", m.ID, "error", err)
		}
	}
	return m, nil
}

func (u Usecases) checkAuthors(ctx context.Context, ids []uint) error {
	users, err := u.deps.Users.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		return apierr.Internal("authors_load_failed", err)
	}
	if len(users) == len(ids) {
		return nil
	}
	found := make(map[uint]bool, len(users))
	for _, usr := range users {
		found[usr.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return apierr.NotFound("author_not_found", fmt.Errorf("%w: user %d", pkgerrors.ErrNotFound, id))
		}
	}
	return nil
}

func (u Usecases) record(ctx context.Context, who actor, action string, id uint, old, cur any, desc string) {
	if u.deps.Activity == nil {
		return
	}
	rid := id
	u.deps.Activity.Record(dbctx.Context{Ctx: ctx}, services.ActivityEntry{
		UserID:      who.userID,
		Action:      action,
		Table:       "instructional_material",
		RecordID:    &rid,
		Old:         old,
		New:         cur,
		Description: desc,
	})
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
