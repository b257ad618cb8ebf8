package evaluations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/imtrack-backend/internal/data/repos"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/domain/activity"
	"github.com/yungbote/imtrack-backend/internal/domain/materials"
	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
	"github.com/yungbote/imtrack-backend/internal/services"
)

const table = "evaluation"

type UsecasesDeps struct {
	Log         *logger.Logger
	Tx          repos.TxRunner
	Evaluations repos.EvaluationRepo
	Activity    services.ActivityLogger
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	deps.Log = deps.Log.With("service", "EvaluationUsecases")
	return Usecases{deps: deps}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

type CreateInput struct {
	// MaterialID links the new evaluation to a live material when set.
	MaterialID *uint
	// Scores must carry every rubric item.
	Scores   map[string]int
	Comments map[string]string
}

type UpdateInput struct {
	Scores   map[string]int
	Comments map[string]string
}

type ListInput struct {
	Page    int
	PerPage int
}

type Page struct {
	Evaluations []*types.Evaluation `json:"evaluations"`
	Total       int64               `json:"total"`
	Pages       int64               `json:"pages"`
	CurrentPage int                 `json:"current_page"`
	PerPage     int                 `json:"per_page"`
}

const defaultPerPage = 10

// Create stores a complete rubric with derived subtotals and, when asked,
// links it to its material in the same transaction.
func (u Usecases) Create(ctx context.Context, in CreateInput) (*types.Evaluation, error) {
	if missing := materials.MissingKeys(in.Scores); len(missing) > 0 {
		return nil, apierr.BadRequest("missing_scores", fmt.Errorf("%w: missing rubric items %s", pkgerrors.ErrInvalidArgument, strings.Join(missing, ", ")))
	}
	who := actorFrom(ctx)
	e := &types.Evaluation{CreatedBy: who.label(), UpdatedBy: who.label()}
	if err := e.UpdateScores(in.Scores); err != nil {
		return nil, mapScoreErr(err)
	}
	if err := e.Comments.Apply(in.Comments); err != nil {
		return nil, mapScoreErr(err)
	}

	err := u.deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := u.deps.Evaluations.Create(dbc, e); err != nil {
			return err
		}
		if in.MaterialID == nil || *in.MaterialID == 0 {
			return nil
		}
		if err := u.deps.Evaluations.LinkMaterial(dbc, *in.MaterialID, e.ID, who.label()); err != nil {
			if errors.Is(err, pkgerrors.ErrNotFound) {
				return apierr.NotFound("material_not_found", err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, mapSaveErr(err)
	}
	u.deps.Log.Info("Evaluation created", "evaluation_id", e.ID, "total", e.Subtotals.Total)
	u.record(ctx, who, activity.ActionCreate, e.ID, nil, e, fmt.Sprintf("Created evaluation %d", e.ID))
	return e, nil
}

// Get returns an active evaluation.
func (u Usecases) Get(ctx context.Context, id uint) (*types.Evaluation, error) {
	e, err := u.deps.Evaluations.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, mapLoadErr(err)
	}
	if e.IsDeleted {
		return nil, apierr.NotFound("evaluation_not_found", fmt.Errorf("%w: evaluation %d is deleted", pkgerrors.ErrNotFound, id))
	}
	return e, nil
}

func (u Usecases) List(ctx context.Context, in ListInput) (Page, error) {
	per := in.PerPage
	if per <= 0 {
		per = defaultPerPage
	}
	page := in.Page
	if page <= 0 {
		page = 1
	}
	out, total, err := u.deps.Evaluations.ListActive(dbctx.Context{Ctx: ctx}, per, (page-1)*per)
	if err != nil {
		return Page{}, apierr.Internal("evaluations_load_failed", err)
	}
	return Page{
		Evaluations: out,
		Total:       total,
		Pages:       (total + int64(per) - 1) / int64(per),
		CurrentPage: page,
		PerPage:     per,
	}, nil
}

// Update applies partial scores and comments. Subtotals and the total are
// recomputed from the merged scores on every call.
func (u Usecases) Update(ctx context.Context, id uint, in UpdateInput) (*types.Evaluation, error) {
	who := actorFrom(ctx)
	var (
		e      *types.Evaluation
		before types.Evaluation
	)
	err := u.deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		e, err = u.deps.Evaluations.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if e.IsDeleted {
			return apierr.NotFound("evaluation_not_found", fmt.Errorf("%w: evaluation %d is deleted", pkgerrors.ErrNotFound, id))
		}
		before = *e
		if err := e.UpdateScores(in.Scores); err != nil {
			return err
		}
		if err := e.Comments.Apply(in.Comments); err != nil {
			return err
		}
		e.UpdatedBy = who.label()
		return u.deps.Evaluations.Save(dbc, e)
	})
	if err != nil {
		var se *materials.ScoreError
		if errors.As(err, &se) {
			return nil, mapScoreErr(err)
		}
		return nil, mapSaveErr(err)
	}
	u.deps.Log.Info("Evaluation updated", "evaluation_id", e.ID, "total", e.Subtotals.Total)
	u.record(ctx, who, activity.ActionUpdate, e.ID, &before, e, fmt.Sprintf("Updated evaluation %d", e.ID))
	return e, nil
}

func (u Usecases) SoftDelete(ctx context.Context, id uint) error {
	return u.setDeleted(ctx, id, true)
}

func (u Usecases) Restore(ctx context.Context, id uint) error {
	return u.setDeleted(ctx, id, false)
}

func (u Usecases) setDeleted(ctx context.Context, id uint, deleted bool) error {
	who := actorFrom(ctx)
	if err := u.deps.Evaluations.SetDeleted(dbctx.Context{Ctx: ctx}, id, deleted, who.label()); err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			if deleted {
				return apierr.NotFound("evaluation_not_found", err)
			}
			return apierr.NotFound("evaluation_not_deleted", err)
		}
		return apierr.Internal("evaluation_save_failed", err)
	}
	action, verb := activity.ActionDelete, "Deleted"
	if !deleted {
		action, verb = activity.ActionRestore, "Restored"
	}
	u.deps.Log.Info(verb+" evaluation", "evaluation_id", id)
	u.record(ctx, who, action, id, nil, nil, fmt.Sprintf("%s evaluation %d", verb, id))
	return nil
}

type actor struct {
	userID uint
	email  string
}

func (a actor) label() string {
	if a.email != "" {
		return a.email
	}
	return "system"
}

func actorFrom(ctx context.Context) actor {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return actor{}
	}
	return actor{userID: rd.UserID, email: strings.TrimSpace(rd.Email)}
}

func (u Usecases) record(ctx context.Context, who actor, action string, id uint, old, cur any, desc string) {
	if u.deps.Activity == nil {
		return
	}
	rid := id
	u.deps.Activity.Record(dbctx.Context{Ctx: ctx}, services.ActivityEntry{
		UserID:      who.userID,
		Action:      action,
		Table:       table,
		RecordID:    &rid,
		Old:         old,
		New:         cur,
		Description: desc,
	})
}

func mapScoreErr(err error) error {
	return apierr.BadRequest("invalid_scores", fmt.Errorf("%w: %v", pkgerrors.ErrInvalidArgument, err))
}

func mapLoadErr(err error) error {
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return apierr.NotFound("evaluation_not_found", err)
	}
	return apierr.Internal("evaluation_load_failed", err)
}

func mapSaveErr(err error) error {
	if _, ok := apierr.As(err); ok {
		return err
	}
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return apierr.NotFound("evaluation_not_found", err)
	}
	return apierr.Internal("evaluation_save_failed", err)
}
