package materials

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/domain/activity"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
	"github.com/yungbote/imtrack-backend/internal/services"
)

const pdfContentType = "application/pdf"

type UploadInput struct {
	// MaterialID attaches the document to an existing record. Zero creates one.
	MaterialID uint
	FileName   string
	Content    []byte

	// Used only when creating.
	Curriculum types.CurriculumRef
	Validity   string
	Semester   string
	AuthorIDs  []uint

	// Status defaults to "For Department Checking" on create and is left
	// untouched on attach when nil.
	Status          *lifecycle.Status
	ExpectedVersion string
}

type UploadResult struct {
	Material   *types.InstructionalMaterial `json:"material"`
	StorageKey string                       `json:"storage_key"`
	Notes      string                       `json:"notes"`
	FileName   string                       `json:"filename"`
	Outcome    *lifecycle.Outcome           `json:"-"`
}

// Upload analyzes a PDF, stores it and either creates a material around it
// or attaches it to an existing one.
func (u Usecases) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	name, err := u.validateUpload(in.FileName, in.Content)
	if err != nil {
		return UploadResult{}, err
	}
	if in.MaterialID == 0 {
		if in.Curriculum.IsZero() {
			return UploadResult{}, apierr.BadRequest("invalid_curriculum", fmt.Errorf("%w: curriculum reference required", pkgerrors.ErrInvalidArgument))
		}
		if strings.TrimSpace(in.Validity) == "" {
			return UploadResult{}, apierr.BadRequest("invalid_validity", fmt.Errorf("%w: validity required", pkgerrors.ErrInvalidArgument))
		}
		if err := u.checkAuthors(ctx, uniqueIDs(in.AuthorIDs)); err != nil {
			return UploadResult{}, err
		}
	}
	if in.Status != nil && !in.Status.Valid() {
		return UploadResult{}, apierr.BadRequest("invalid_status", &lifecycle.UnknownStatusError{Label: string(*in.Status)})
	}

	notes := u.analyze(ctx, name, in.Content)
	key, err := u.putDocument(ctx, name, in.Content)
	if err != nil {
		return UploadResult{}, err
	}

	var res UploadResult
	if in.MaterialID != 0 {
		upd, uerr := u.Update(ctx, in.MaterialID, UpdateInput{
			Status:          in.Status,
			StorageKey:      &key,
			Notes:           &notes,
			ExpectedVersion: in.ExpectedVersion,
		})
		err = uerr
		res = UploadResult{Material: upd.Material, Outcome: upd.Outcome}
	} else {
		var m *types.InstructionalMaterial
		m, err = u.createWithDocument(ctx, in, key, notes)
		res = UploadResult{Material: m}
	}
	if err != nil {
		if derr := u.deps.Store.Delete(ctx, key); derr != nil {
			u.deps.Log.Warn("Orphan document cleanup failed", "key", key, "error", derr)
		}
		return UploadResult{}, err
	}
	res.StorageKey = key
	res.Notes = notes
	res.FileName = name
	return res, nil
}

func (u Usecases) validateUpload(fileName string, content []byte) (string, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	if name == "" || name == "." || name == "/" || !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return "", apierr.BadRequest("invalid_file", fmt.Errorf("%w: valid PDF file is required", pkgerrors.ErrInvalidArgument))
	}
	if len(content) == 0 {
		return "", apierr.BadRequest("invalid_file", fmt.Errorf("%w: file is empty", pkgerrors.ErrInvalidArgument))
	}
	if int64(len(content)) > u.deps.Config.MaxUploadBytes {
		return "", apierr.BadRequest("file_too_large", fmt.Errorf("%w: file exceeds %d bytes", pkgerrors.ErrInvalidArgument, u.deps.Config.MaxUploadBytes))
	}
	return name, nil
}

// analyze spools the document to a temp file for the analyzer and removes it
// on every path.
func (u Usecases) analyze(ctx context.Context, name string, content []byte) string {
	if u.deps.Analyzer == nil {
		return ""
	}
	dir, err := os.MkdirTemp(u.deps.Config.TempDir, "imtrack-upload-*")
	if err != nil {
		u.deps.Log.Warn("Upload temp dir failed", "error", err)
		return u.deps.Analyzer.Analyze(ctx, "")
	}
	defer os.RemoveAll(dir)
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, content, 0o600); err != nil {
		u.deps.Log.Warn("Upload temp write failed", "error", err)
	}
	return u.deps.Analyzer.Analyze(ctx, p)
}

func (u Usecases) documentKey(name string) string {
	return u.deps.Config.KeyPrefix + "/" + uuid.NewString() + "/" + name
}

func (u Usecases) putDocument(ctx context.Context, name string, content []byte) (string, error) {
	key := u.documentKey(name)
	err := u.deps.Store.Put(ctx, key, bytes.NewReader(content), objectstore.PutOptions{
		ContentType:        pdfContentType,
		ContentDisposition: objectstore.InlineDisposition(name),
	})
	if err != nil {
		return "", apierr.Upstream("upload_failed", fmt.Errorf("upload %s: %w", key, err))
	}
	return key, nil
}

func (u Usecases) createWithDocument(ctx context.Context, in UploadInput, key, notes string) (*types.InstructionalMaterial, error) {
	status := lifecycle.StatusDepartmentChecking
	if in.Status != nil {
		status = *in.Status
	}
	who := actorFrom(ctx)
	m := &types.InstructionalMaterial{
		Validity:   strings.TrimSpace(in.Validity),
		Semester:   strings.TrimSpace(in.Semester),
		StorageKey: &key,
		Notes:      notes,
		CreatedBy:  who.label(),
		UpdatedBy:  who.label(),
	}
	if err := m.SetCurriculum(in.Curriculum); err != nil {
		return nil, apierr.Internal("invariant_violation", err)
	}
	c := lifecycle.InitialCounters(status)
	m.SetLifecycle(status, c, c.Version())

	authorIDs := uniqueIDs(in.AuthorIDs)
	err := u.deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := u.deps.Materials.Create(dbc, m); err != nil {
			return err
		}
		if len(authorIDs) == 0 {
			return nil
		}
		return u.deps.Authors.Add(dbc, m.ID, authorIDs)
	})
	if err != nil {
		return nil, mapLifecycleErr(err)
	}
	u.deps.Log.Info("Material created", "material_id", m.ID, "status", string(m.Status), "version", m.Version)
	u.record(ctx, who, activity.ActionCreate, m.ID, nil, m, fmt.Sprintf("Created instructional material %d", m.ID))

	emails, _ := u.authorEmails(ctx, m.ID)
	u.notifyStatus(ctx, append([]string{who.email}, emails...), "created", m)
	return m, nil
}

// notifyStatus never fails the caller.
func (u Usecases) notifyStatus(ctx context.Context, recipients []string, action string, m *types.InstructionalMaterial) {
	if u.deps.Notifier == nil {
		return
	}
	to, err := services.NormalizeRecipients(recipients...)
	if err != nil {
		u.deps.Log.Debug("Status notification skipped", "material_id", m.ID, "reason", err.Error())
		return
	}
	ok, err := u.deps.Notifier.NotifyStatusChange(ctx, to, services.StatusChangeNotice{
		Action:   action,
		FileName: m.FileName(),
		Status:   string(m.Status),
		Notes:    m.Notes,
	})
	if err != nil || !ok {
		u.deps.Log.Warn("Status notification not delivered", "material_id", m.ID, "error", err)
	}
}
