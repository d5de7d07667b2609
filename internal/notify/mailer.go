package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"

	"selecao/pkg/types"

	mail "github.com/go-mail/mail/v2"
	"github.com/sirupsen/logrus"
)

// Notifier tells candidates about changes to their applications.
type Notifier interface {
	ApplicationStatusChanged(ctx context.Context, process *types.SelectionProcess, application *types.Application) error
}

type sender interface {
	DialAndSend(m ...*mail.Message) error
}

type Mailer struct {
	logger *logrus.Logger
	from   string
	dialer sender
}

// NewMailer sends over SMTP with mandatory STARTTLS. When no host is
// configured it returns a Notifier that only logs.
func NewMailer(config *types.Config, logger *logrus.Logger) Notifier {
	if config.SMTPHost == "" || config.SMTPFrom == "" {
		logger.Warn("smtp not configured, status notifications will only be logged")
		return NewLogNotifier(logger)
	}

	d := mail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUser, config.SMTPPass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         config.SMTPHost,
		InsecureSkipVerify: config.SMTPSkipTLSVerify,
	}

	return &Mailer{logger: logger, from: config.SMTPFrom, dialer: d}
}

var statusTemplate = template.Must(template.New("status").Parse(`<p>Olá, {{.Name}}.</p>
<p>A situação da sua inscrição no processo seletivo <strong>{{.Process}}</strong> foi atualizada para <strong>{{.Status}}</strong>.</p>
{{if .EndAnalysisDate}}<p>O período de análise termina em {{.EndAnalysisDate}}.</p>{{end}}`))

func (m *Mailer) ApplicationStatusChanged(ctx context.Context, process *types.SelectionProcess, application *types.Application) error {
	if application.UserEmail == "" {
		return nil
	}

	var body bytes.Buffer
	err := statusTemplate.Execute(&body, map[string]any{
		"Name":            application.Name,
		"Process":         process.Name,
		"Status":          application.Status,
		"EndAnalysisDate": process.EndAnalysisDate,
	})
	if err != nil {
		return fmt.Errorf("failed to render status email: %w", err)
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", application.UserEmail)
	msg.SetHeader("Subject", fmt.Sprintf("%s: inscrição %s", process.Name, application.Status))
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send status email to %s: %w", application.UserEmail, err)
	}

	m.logger.WithFields(logrus.Fields{
		"process_id": process.ID,
		"uid":        application.UID,
		"status":     application.Status,
	}).Info("status email sent")

	return nil
}

type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ApplicationStatusChanged(_ context.Context, process *types.SelectionProcess, application *types.Application) error {
	n.logger.WithFields(logrus.Fields{
		"process_id": process.ID,
		"uid":        application.UID,
		"email":      application.UserEmail,
		"status":     application.Status,
	}).Info("application status changed")
	return nil
}
