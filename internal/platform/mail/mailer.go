package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const verificationSubject = "Verify your email address"

type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromName     string
	FromAddress  string
	AppURL       string
	AppName      string
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type verificationData struct {
	VerificationURL string
	AppName         string
}

// Mailer renders the verification template and relays it over SMTP.
type Mailer struct {
	cfg    Config
	sender Sender
	tmpl   *template.Template
	logger *zap.Logger
}

func NewMailer(cfg Config, logger *zap.Logger) (*Mailer, error) {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return NewMailerWithSender(cfg, dialer, logger)
}

func NewMailerWithSender(cfg Config, sender Sender, logger *zap.Logger) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/verification_email.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, sender: sender, tmpl: tmpl, logger: logger}, nil
}

// VerificationURL is the link the user follows to confirm their address.
func (m *Mailer) VerificationURL(token string) string {
	return strings.TrimRight(m.cfg.AppURL, "/") + "/auth/verify-email?token=" + url.QueryEscape(token)
}

// SendVerificationEmail sends the link carrying the plaintext token. Delivery errors are
// returned as-is; there is no retry.
func (m *Mailer) SendVerificationEmail(ctx context.Context, email, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := m.renderVerification(token)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.FromAddress, m.cfg.FromName)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", verificationSubject)
	msg.SetBody("text/html", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	m.logger.Info("verification email sent", zap.String("to", email))
	return nil
}

func (m *Mailer) renderVerification(token string) (string, error) {
	var buf bytes.Buffer
	data := verificationData{VerificationURL: m.VerificationURL(token), AppName: m.cfg.AppName}
	if err := m.tmpl.ExecuteTemplate(&buf, "verification_email.html", data); err != nil {
		return "", fmt.Errorf("render verification email: %w", err)
	}
	return buf.String(), nil
}
