// Package mailer renders and delivers the outbound account messages
// (email verification, password reset).
package mailer

import (
	"bytes"
	"context"
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"

	"github.com/taskforge-io/taskforge/auth"
)

//go:embed templates/*.django
var templatesFS embed.FS

const (
	productName = "TaskForge"
	productLink = "https://taskforge.example.com"

	verifyTemplate = "verify_email"
	resetTemplate  = "reset_password"
)

// Config is the transport configuration the mailer consumes.
type Config interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUser() string
	GetSMTPPass() string
	GetMailFrom() string
}

// Mailer delivers template-rendered messages over SMTP.
type Mailer struct {
	client *mail.Client
	engine *django.Engine
	from   string
	logger auth.Logger
}

var _ auth.Mailer = (*Mailer)(nil)

// New builds the SMTP-backed mailer. The template engine is loaded eagerly
// so a broken template fails at startup, not on the first registration.
func New(cfg Config, logger auth.Logger) (*Mailer, error) {
	engine, err := loadEngine()
	if err != nil {
		return nil, err
	}

	client, err := mail.NewClient(cfg.GetSMTPHost(),
		mail.WithPort(cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.GetSMTPUser()),
		mail.WithPassword(cfg.GetSMTPPass()),
	)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to configure SMTP client")
	}

	return &Mailer{
		client: client,
		engine: engine,
		from:   cfg.GetMailFrom(),
		logger: logger,
	}, nil
}

func (m *Mailer) SendEmailVerification(ctx context.Context, to, username, link string) error {
	return m.send(ctx, to, "Please verify your email", verifyTemplate, username, link)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, username, link string) error {
	return m.send(ctx, to, "Password reset request", resetTemplate, username, link)
}

func (m *Mailer) send(ctx context.Context, to, subject, template, username, link string) error {
	body, err := renderBody(m.engine, template, username, link)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "invalid mail sender")
	}
	if err := msg.To(to); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "invalid mail recipient")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deliver mail")
	}

	m.logger.Info("outbound mail delivered", "to", to, "template", template)
	return nil
}

func loadEngine() (*django.Engine, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to scope mail templates")
	}

	engine := django.NewFileSystem(http.FS(sub), ".django")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load mail templates")
	}
	return engine, nil
}

func renderBody(engine *django.Engine, template, username, link string) (string, error) {
	var buf bytes.Buffer
	err := engine.Render(&buf, template, map[string]any{
		"product_name": productName,
		"product_link": productLink,
		"username":     username,
		"link":         link,
	})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render mail template")
	}
	return buf.String(), nil
}

// LogMailer writes the message link to the log instead of sending it. Used
// when no SMTP transport is configured, typically in development.
type LogMailer struct {
	logger auth.Logger
}

var _ auth.Mailer = (*LogMailer)(nil)

func NewLogMailer(logger auth.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendEmailVerification(_ context.Context, to, username, link string) error {
	m.logger.Info("email verification (log only)", "to", to, "username", username, "link", link)
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, username, link string) error {
	m.logger.Info("password reset (log only)", "to", to, "username", username, "link", link)
	return nil
}
