package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/yungbote/imtrack-backend/internal/pkg/errors"
	"github.com/yungbote/imtrack-backend/internal/platform/brevo"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
	"github.com/yungbote/imtrack-backend/internal/platform/smtpmail"
)

type MailAttachment struct {
	Filename string
	Content  []byte
}

type MailMessage struct {
	To          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []MailAttachment
}

// MailTransport delivers one message or reports why it could not.
type MailTransport interface {
	Name() string
	Attempt(ctx context.Context, msg MailMessage) error
}

// TransportHook observes every transport attempt.
type TransportHook func(transport string, ok bool, elapsed time.Duration)

type Notifier interface {
	// Send returns false when every transport failed. The error is reserved
	// for malformed input such as an empty recipient list.
	Send(ctx context.Context, msg MailMessage) (bool, error)
	NotifyStatusChange(ctx context.Context, recipients []string, n StatusChangeNotice) (bool, error)
	NotifyCertificate(ctx context.Context, recipients []string, n CertificateNotice) (bool, error)
	SendFile(ctx context.Context, recipients []string, n FileNotice) (bool, error)
	NotifyDeadline(ctx context.Context, recipients []string, n DeadlineNotice) (bool, error)
	NotifyPastDue(ctx context.Context, recipients []string, n DeadlineNotice) (bool, error)
}

type notifier struct {
	log        *logger.Logger
	transports []MailTransport
	hook       TransportHook
}

func NewNotifier(baseLog *logger.Logger, hook TransportHook, transports ...MailTransport) Notifier {
	return &notifier{
		log:        baseLog.With("service", "Notifier"),
		transports: transports,
		hook:       hook,
	}
}

// NormalizeRecipients splits comma separated entries, trims them and drops
// blanks and duplicates while keeping first-seen order.
func NormalizeRecipients(raw ...string) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, addr := range strings.Split(entry, ",") {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				continue
			}
			key := strings.ToLower(addr)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, addr)
		}
	}
	if len(out) == 0 {
		return nil, pkgerrors.ErrNoRecipients
	}
	return out, nil
}

func (n *notifier) Send(ctx context.Context, msg MailMessage) (bool, error) {
	to, err := NormalizeRecipients(msg.To...)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return false, fmt.Errorf("%w: subject required", pkgerrors.ErrInvalidArgument)
	}
	msg.To = to

	for _, t := range n.transports {
		start := time.Now()
		err := t.Attempt(ctx, msg)
		if n.hook != nil {
			n.hook(t.Name(), err == nil, time.Since(start))
		}
		if err == nil {
			n.log.Info("Email sent", "transport", t.Name(), "recipients", len(to), "subject", msg.Subject)
			return true, nil
		}
		n.log.Warn("Email transport failed", "transport", t.Name(), "error", err)
	}
	n.log.Error("All email transports failed", "recipients", len(to), "subject", msg.Subject)
	return false, nil
}

func (n *notifier) NotifyStatusChange(ctx context.Context, recipients []string, sc StatusChangeNotice) (bool, error) {
	msg, err := renderStatusChange(sc)
	if err != nil {
		return false, err
	}
	msg.To = recipients
	return n.Send(ctx, msg)
}

func (n *notifier) NotifyCertificate(ctx context.Context, recipients []string, cn CertificateNotice) (bool, error) {
	msg, err := renderCertificate(cn)
	if err != nil {
		return false, err
	}
	msg.To = recipients
	return n.Send(ctx, msg)
}

func (n *notifier) SendFile(ctx context.Context, recipients []string, fn FileNotice) (bool, error) {
	msg, err := renderFile(fn)
	if err != nil {
		return false, err
	}
	msg.To = recipients
	return n.Send(ctx, msg)
}

func (n *notifier) NotifyDeadline(ctx context.Context, recipients []string, dn DeadlineNotice) (bool, error) {
	msg, err := renderDeadline(dn)
	if err != nil {
		return false, err
	}
	msg.To = recipients
	return n.Send(ctx, msg)
}

func (n *notifier) NotifyPastDue(ctx context.Context, recipients []string, dn DeadlineNotice) (bool, error) {
	msg, err := renderPastDue(dn)
	if err != nil {
		return false, err
	}
	msg.To = recipients
	return n.Send(ctx, msg)
}

// ---------- transports ----------

type brevoTransport struct {
	client brevo.Client
}

func NewBrevoTransport(client brevo.Client) MailTransport {
	return &brevoTransport{client: client}
}

func (t *brevoTransport) Name() string { return "brevo" }

func (t *brevoTransport) Attempt(ctx context.Context, msg MailMessage) error {
	if t.client == nil {
		return fmt.Errorf("brevo not configured")
	}
	to := make([]brevo.EmailAddress, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, brevo.EmailAddress{Email: addr})
	}
	atts := make([]brevo.Attachment, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		atts = append(atts, brevo.Attachment{Filename: a.Filename, Content: a.Content})
	}
	_, err := t.client.Send(ctx, brevo.SendEmailRequest{
		To:          to,
		Subject:     msg.Subject,
		HTML:        msg.HTML,
		Text:        msg.Text,
		Attachments: atts,
	})
	return err
}

type SMTPSender interface {
	Send(ctx context.Context, msg smtpmail.Message) error
}

type smtpTransport struct {
	sender SMTPSender
}

func NewSMTPTransport(sender SMTPSender) MailTransport {
	return &smtpTransport{sender: sender}
}

func (t *smtpTransport) Name() string { return "smtp" }

func (t *smtpTransport) Attempt(ctx context.Context, msg MailMessage) error {
	if t.sender == nil {
		return fmt.Errorf("smtp not configured")
	}
	atts := make([]smtpmail.Attachment, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		atts = append(atts, smtpmail.Attachment{Filename: a.Filename, Content: a.Content})
	}
	return t.sender.Send(ctx, smtpmail.Message{
		To:          msg.To,
		Subject:     msg.Subject,
		HTML:        msg.HTML,
		Text:        msg.Text,
		Attachments: atts,
	})
}
