package app

import (
	"fmt"

	"github.com/yungbote/imtrack-backend/internal/observability"
	"github.com/yungbote/imtrack-backend/internal/platform/brevo"
	"github.com/yungbote/imtrack-backend/internal/platform/docconvert"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
	"github.com/yungbote/imtrack-backend/internal/platform/smtpmail"
	"github.com/yungbote/imtrack-backend/internal/services"
)

type Services struct {
	QR        services.QRRenderer
	Analyzer  services.SectionAnalyzer
	Notifier  services.Notifier
	Activity  services.ActivityLogger
	Converter *docconvert.Converter
}

func wireServices(log *logger.Logger, cfg Config, repos Repos, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	qr, err := services.NewQRRenderer(log, cfg.QR)
	if err != nil {
		return Services{}, fmt.Errorf("init qr renderer: %w", err)
	}

	converter := docconvert.NewFromConfig(log, cfg.Converter)
	converter.SetHook(metrics.ObserveConversion)
	log.Info("PDF conversion chain", "strategies", converter.Strategies())

	return Services{
		QR:        qr,
		Analyzer:  services.NewSectionAnalyzer(log),
		Notifier:  services.NewNotifier(log, metrics.ObserveNotification, wireTransports(log, cfg)...),
		Activity:  services.NewActivityLogger(log, repos.Activity),
		Converter: converter,
	}, nil
}

// wireTransports orders Brevo before SMTP. Unconfigured transports are left
// out; with none the notifier reports every send as failed.
func wireTransports(log *logger.Logger, cfg Config) []services.MailTransport {
	var out []services.MailTransport
	if cfg.Brevo.Enabled() {
		client, err := brevo.New(log, cfg.Brevo)
		if err != nil {
			log.Warn("Brevo disabled", "error", err)
		} else {
			out = append(out, services.NewBrevoTransport(client))
		}
	}
	if cfg.SMTP.Enabled() {
		out = append(out, services.NewSMTPTransport(smtpmail.New(log, cfg.SMTP)))
	}
	if len(out) == 0 {
		log.Warn("No email transport configured")
	}
	return out
}
