package materials

import (
	"context"
	"time"

	"github.com/yungbote/imtrack-backend/internal/modules/certificates"
	"github.com/yungbote/imtrack-backend/internal/observability"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/services"
)

const dueDateLayout = "2006-01-02"

type RemindOptions struct {
	// WithinDays selects submissions due up to this many days ahead. Past due
	// submissions are always included.
	WithinDays int
	DryRun     bool
}

type RemindReport struct {
	Scanned  int `json:"scanned"`
	Deadline int `json:"deadline"`
	PastDue  int `json:"past_due"`
	Failed   int `json:"failed"`
}

// Remind mails every author whose assigned material is still missing its
// document: a deadline reminder when the due date is ahead, a past-due
// notice once it has passed.
func (u Usecases) Remind(ctx context.Context, opts RemindOptions) (RemindReport, error) {
	var rep RemindReport
	if u.deps.Notifier == nil && !opts.DryRun {
		return rep, apierr.Internal("notifier_missing", nil)
	}
	if opts.WithinDays < 0 {
		opts.WithinDays = 0
	}
	now := u.deps.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	until := today.AddDate(0, 0, opts.WithinDays)

	dbc := dbctx.Context{Ctx: ctx}
	subs, err := u.deps.Submissions.ListPending(dbc, until)
	if err != nil {
		return rep, apierr.Internal("submissions_load_failed", err)
	}

	subjects := map[uint]string{}
	for _, s := range subs {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		rep.Scanned++
		due := s.DueDate.UTC()
		due = time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
		days := int(due.Sub(today).Hours() / 24)
		kind := "deadline"
		if days < 0 {
			kind = "past_due"
		}
		log := u.deps.Log.With("submission_id", s.ID, "material_id", s.MaterialID, "kind", kind)

		if opts.DryRun {
			rep.count(kind)
			continue
		}
		usr, err := u.deps.Users.GetByID(dbc, s.UserID)
		if err != nil {
			log.Warn("Reminder recipient lookup failed", "error", err)
			rep.Failed++
			observability.Current().IncReminder(kind, false)
			continue
		}
		subject, ok := subjects[s.MaterialID]
		if !ok {
			subject = u.subjectName(dbc, s.MaterialID)
			subjects[s.MaterialID] = subject
		}
		notice := services.DeadlineNotice{
			MaterialID:    s.MaterialID,
			SubjectName:   subject,
			DueDate:       due.Format(dueDateLayout),
			DaysRemaining: days,
		}
		var sent bool
		if kind == "past_due" {
			sent, err = u.deps.Notifier.NotifyPastDue(ctx, []string{usr.Email}, notice)
		} else {
			sent, err = u.deps.Notifier.NotifyDeadline(ctx, []string{usr.Email}, notice)
		}
		observability.Current().IncReminder(kind, err == nil && sent)
		if err != nil || !sent {
			log.Warn("Reminder not delivered", "error", err)
			rep.Failed++
			continue
		}
		rep.count(kind)
	}
	u.deps.Log.Info("Reminder run finished",
		"scanned", rep.Scanned, "deadline", rep.Deadline, "past_due", rep.PastDue, "failed", rep.Failed, "dry_run", opts.DryRun)
	return rep, nil
}

func (r *RemindReport) count(kind string) {
	if kind == "past_due" {
		r.PastDue++
	} else {
		r.Deadline++
	}
}

func (u Usecases) subjectName(dbc dbctx.Context, materialID uint) string {
	m, err := u.deps.Materials.GetByID(dbc, materialID)
	if err != nil {
		return ""
	}
	course, err := certificates.ResolveCourse(dbc, u.deps.Catalog, m)
	if err != nil || course.CourseTitle == "N/A" {
		return ""
	}
	return course.CourseTitle
}
