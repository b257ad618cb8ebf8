package materials

import (
	"context"
	"fmt"
	"path"
	"strings"

	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/services"
)

type AppreciationInput struct {
	FileName string
	Content  []byte
	// Optional overrides of the default committee letter.
	Subject string
	HTML    string
	Text    string
}

type AppreciationResult struct {
	Recipients []string `json:"recipients"`
	Sent       bool     `json:"success"`
}

// SendAppreciation emails an uploaded file to every author of a material.
func (u Usecases) SendAppreciation(ctx context.Context, id uint, in AppreciationInput) (AppreciationResult, error) {
	name := path.Base(strings.TrimSpace(in.FileName))
	if name == "" || name == "." || len(in.Content) == 0 {
		return AppreciationResult{}, apierr.BadRequest("invalid_file", fmt.Errorf("%w: file is required", pkgerrors.ErrInvalidArgument))
	}
	if _, err := u.deps.Materials.GetByID(dbctx.Context{Ctx: ctx}, id); err != nil {
		return AppreciationResult{}, mapLoadErr(err)
	}
	emails, names := u.authorEmails(ctx, id)
	if len(emails) == 0 {
		return AppreciationResult{}, apierr.BadRequest("no_author_emails", fmt.Errorf("%w: material %d has no author emails", pkgerrors.ErrNoRecipients, id))
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = services.AppreciationSubject
	}
	html, text := in.HTML, in.Text
	if strings.TrimSpace(html) == "" || strings.TrimSpace(text) == "" {
		defHTML, defText, err := services.AppreciationBody(names)
		if err != nil {
			return AppreciationResult{}, apierr.Internal("render_failed", err)
		}
		if strings.TrimSpace(html) == "" {
			html = defHTML
		}
		if strings.TrimSpace(text) == "" {
			text = defText
		}
	}

	if u.deps.Notifier == nil {
		return AppreciationResult{}, apierr.Internal("notifier_missing", nil)
	}
	sent, err := u.deps.Notifier.SendFile(ctx, emails, services.FileNotice{
		FileName: name,
		Content:  in.Content,
		Subject:  subject,
		HTML:     html,
		Text:     text,
	})
	if err != nil {
		return AppreciationResult{}, apierr.BadRequest("invalid_recipients", err)
	}
	if !sent {
		return AppreciationResult{Recipients: emails}, apierr.Upstream("email_failed", fmt.Errorf("failed to send email to recipients"))
	}
	u.deps.Log.Info("Appreciation sent", "material_id", id, "recipients", len(emails))
	return AppreciationResult{Recipients: emails, Sent: true}, nil
}
