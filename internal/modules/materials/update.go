package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/domain/activity"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/modules/certificates"
	"github.com/yungbote/imtrack-backend/internal/observability"
	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
)

// UpdateInput carries the fields of a partial update. Nil means unchanged.
type UpdateInput struct {
	Status     *lifecycle.Status
	StorageKey *string
	Notes      *string
	Validity   *string
	Semester   *string
	Curriculum *types.CurriculumRef

	// ExpectedVersion enables the optimistic check: the update fails with
	// 409 when the stored version differs at read or at write time.
	ExpectedVersion string
}

type UpdateResult struct {
	Material     *types.InstructionalMaterial `json:"material"`
	Outcome      *lifecycle.Outcome           `json:"-"`
	Certificates []certificates.Result        `json:"certificates,omitempty"`
}

// Update applies a status and/or document change through the lifecycle
// engine and commits counters, version and fields together. The superseded
// document is deleted after commit; notifications and certificate issuance
// run after commit and never fail the update.
func (u Usecases) Update(ctx context.Context, id uint, in UpdateInput) (UpdateResult, error) {
	if in.StorageKey != nil && strings.TrimSpace(*in.StorageKey) == "" {
		return UpdateResult{}, apierr.BadRequest("invalid_storage_key", fmt.Errorf("%w: storage key is empty", pkgerrors.ErrInvalidArgument))
	}
	if in.Curriculum != nil && in.Curriculum.IsZero() {
		return UpdateResult{}, apierr.BadRequest("invalid_curriculum", fmt.Errorf("%w: curriculum reference is empty", pkgerrors.ErrInvalidArgument))
	}

	who := actorFrom(ctx)
	expected := strings.TrimSpace(in.ExpectedVersion)
	var (
		m        *types.InstructionalMaterial
		before   types.InstructionalMaterial
		out      lifecycle.Outcome
		oldKey   string
		fileSwap bool
	)
	err := u.deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		m, err = u.deps.Materials.GetByIDForUpdate(dbc, id)
		if err != nil {
			return err
		}
		if m.IsDeleted {
			return apierr.NotFound("material_not_found", fmt.Errorf("%w: material %d is deleted", pkgerrors.ErrNotFound, id))
		}
		if expected != "" && m.Version != expected {
			return apierr.Conflict("version_conflict", fmt.Errorf("%w: material %d is at version %s, expected %s", pkgerrors.ErrConflict, id, m.Version, expected))
		}
		before = *m

		if in.StorageKey != nil {
			newKey := strings.TrimSpace(*in.StorageKey)
			if m.StorageKey != nil && *m.StorageKey != "" && *m.StorageKey != newKey {
				fileSwap = true
				oldKey = *m.StorageKey
			}
			m.StorageKey = &newKey
		}

		out, err = u.deps.Engine.Apply(m, lifecycle.Update{NewStatus: in.Status, FileReplaced: fileSwap})
		if err != nil {
			return err
		}
		if out.Flagged {
			u.deps.Log.Warn("Out-of-table status transition accepted",
				"material_id", m.ID, "from", string(out.From), "to", string(out.To))
		}

		if in.Notes != nil {
			m.Notes = *in.Notes
		}
		if in.Validity != nil {
			m.Validity = strings.TrimSpace(*in.Validity)
		}
		if in.Semester != nil {
			m.Semester = strings.TrimSpace(*in.Semester)
		}
		if in.Curriculum != nil {
			if err := m.SetCurriculum(*in.Curriculum); err != nil {
				return err
			}
		}
		if _, err := m.Curriculum(); err != nil {
			return err
		}
		m.UpdatedBy = who.label()

		if expected == "" {
			if err := u.deps.Materials.Save(dbc, m); err != nil {
				return err
			}
		} else {
			ok, err := u.deps.Materials.SaveIfVersion(dbc, m, expected)
			if err != nil {
				return err
			}
			if !ok {
				return apierr.Conflict("version_conflict", fmt.Errorf("%w: material %d changed concurrently", pkgerrors.ErrConflict, id))
			}
		}
		if in.StorageKey != nil && u.deps.Submissions != nil {
			if _, err := u.deps.Submissions.CloseForMaterial(dbc, m.ID, u.deps.Now().UTC()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return UpdateResult{}, mapLifecycleErr(err)
	}

	log := u.deps.Log.With("material_id", m.ID)
	log.Info("Material updated",
		"from", string(out.From), "to", string(out.To), "rule", string(out.Rule), "version", out.Version)
	if out.Incremented {
		observability.Current().IncLifecycle(string(out.Counter), string(out.Rule))
	}

	if fileSwap {
		if err := u.deps.Store.Delete(ctx, oldKey); err != nil {
			log.Warn("Superseded document delete failed", "key", oldKey, "error", err)
		}
	}

	u.record(ctx, who, activity.ActionUpdate, m.ID, &before, m,
		fmt.Sprintf("Updated instructional material %d to %s (version %s)", m.ID, m.Status, m.Version))

	emails, _ := u.authorEmails(ctx, m.ID)
	u.notifyStatus(ctx, append([]string{who.email}, emails...), "updated", m)

	res := UpdateResult{Material: m, Outcome: &out}
	if out.Rule == lifecycle.RulePublished && u.deps.Certificates != nil {
		results, err := u.deps.Certificates.Issue(ctx, m.ID)
		if err != nil {
			var ae *apierr.Error
			if errors.As(err, &ae) {
				log.Warn("Certificate issuance failed", "code", ae.Code, "error", err)
			} else {
				log.Warn("Certificate issuance failed", "error", err)
			}
		}
		res.Certificates = results
	}
	return res, nil
}
