// Package notify delivers security notifications by email and keeps the
// in-app notification feed
package notify

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/config"
	"github.com/tillerstead/admin/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// lockWarnThreshold is the attempt count that triggers the lock warning line
const lockWarnThreshold = 5

// Message is a rendered email
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered email
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends through an SMTP relay with PLAIN auth
type SMTPSender struct {
	addr string
	auth smtp.Auth
}

// NewSMTPSender creates a sender for cfg
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	s := &SMTPSender{addr: cfg.Host + ":" + strconv.Itoa(cfg.Port)}
	if cfg.User != "" {
		s.auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return s
}

// Send writes msg as a single text/html part
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return smtp.SendMail(s.addr, s.auth, msg.From, []string{msg.To}, buildMIME(msg))
}

func buildMIME(msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.HTML)
	return b.Bytes()
}

// EmailConfig controls delivery
type EmailConfig struct {
	Enabled    bool
	From       string
	AdminEmail string
}

// EmailNotifier renders the notification templates and hands them to a
// Sender. When disabled it only logs what it would have sent.
type EmailNotifier struct {
	cfg       EmailConfig
	sender    Sender
	templates *template.Template
	recipient func(username string) (string, bool)
	log       *zap.Logger
	now       func() time.Time
}

// NewEmailNotifier parses the embedded templates
func NewEmailNotifier(cfg EmailConfig, sender Sender, log *zap.Logger) (*EmailNotifier, error) {
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	return &EmailNotifier{
		cfg:       cfg,
		sender:    sender,
		templates: tmpl,
		log:       log,
		now:       time.Now,
	}, nil
}

// SetRecipientLookup resolves per-user mail to the user's own address.
// Without it those notices go to the admin address.
func (n *EmailNotifier) SetRecipientLookup(fn func(username string) (string, bool)) {
	n.recipient = fn
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006 3:04:05 PM MST")
		},
		"toJSON": func(v any) string {
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return "{}"
			}
			return string(b)
		},
	}
}

// NotifyLoginFailure alerts the admin about a failed login
func (n *EmailNotifier) NotifyLoginFailure(ctx context.Context, username, ip string, attempts int) {
	n.send(ctx, n.cfg.AdminEmail, "Failed Login Attempt - "+username, "login_failure", map[string]any{
		"Username":  username,
		"IP":        ip,
		"Attempts":  attempts,
		"Threshold": lockWarnThreshold,
		"Time":      n.now(),
	})
}

// NotifyAccountLocked alerts the admin about a lockout
func (n *EmailNotifier) NotifyAccountLocked(ctx context.Context, identifier, ip string, unlockTime time.Time) {
	n.send(ctx, n.cfg.AdminEmail, "Account Locked - "+identifier, "account_locked", map[string]any{
		"Username": identifier,
		"IP":       ip,
		"Until":    unlockTime,
	})
}

// NotifyNewUser tells the admin a user was created
func (n *EmailNotifier) NotifyNewUser(ctx context.Context, user models.PublicUser, createdBy string) {
	n.send(ctx, n.cfg.AdminEmail, "New User Created - "+user.Username, "new_user", map[string]any{
		"User":  user,
		"Actor": createdBy,
		"Time":  n.now(),
	})
}

// NotifyUserDeleted tells the admin a user was removed
func (n *EmailNotifier) NotifyUserDeleted(ctx context.Context, username, deletedBy string) {
	n.send(ctx, n.cfg.AdminEmail, "User Deleted - "+username, "user_deleted", map[string]any{
		"Username": username,
		"Actor":    deletedBy,
		"Time":     n.now(),
	})
}

// Notify2FAEnabled tells the user 2FA was turned on
func (n *EmailNotifier) Notify2FAEnabled(ctx context.Context, username string) {
	n.sendToUser(ctx, username, "Two-Factor Authentication Enabled - "+username, "2fa_enabled", nil)
}

// Notify2FADisabled tells the user 2FA was turned off
func (n *EmailNotifier) Notify2FADisabled(ctx context.Context, username string) {
	n.sendToUser(ctx, username, "Two-Factor Authentication Disabled - "+username, "2fa_disabled", nil)
}

// NotifyPasswordChanged tells the user their password changed
func (n *EmailNotifier) NotifyPasswordChanged(ctx context.Context, username string) {
	n.sendToUser(ctx, username, "Password Changed - "+username, "password_changed", nil)
}

// NotifyPasswordReset mails a reset link to the user
func (n *EmailNotifier) NotifyPasswordReset(ctx context.Context, username, link string) {
	n.sendToUser(ctx, username, "Password Reset Request", "password_reset", map[string]any{"Link": link})
}

// NotifyHighSeverityEvent forwards a high or critical audit entry
func (n *EmailNotifier) NotifyHighSeverityEvent(ctx context.Context, entry models.AuditEntry) {
	n.send(ctx, n.cfg.AdminEmail, "High Severity Security Event", "high_severity", map[string]any{
		"Entry": entry,
	})
}

// NotifyAPIKeyCreated tells the admin a key was issued
func (n *EmailNotifier) NotifyAPIKeyCreated(ctx context.Context, name, createdBy string) {
	n.send(ctx, n.cfg.AdminEmail, "API Key Created - "+name, "api_key_created", map[string]any{
		"Name":  name,
		"Actor": createdBy,
		"Time":  n.now(),
	})
}

// NotifyIPBlacklisted tells the admin an address was blocked
func (n *EmailNotifier) NotifyIPBlacklisted(ctx context.Context, ip, addedBy string) {
	n.send(ctx, n.cfg.AdminEmail, "IP Address Blacklisted - "+ip, "ip_blacklisted", map[string]any{
		"IP":    ip,
		"Actor": addedBy,
		"Time":  n.now(),
	})
}

func (n *EmailNotifier) sendToUser(ctx context.Context, username, subject, name string, data map[string]any) {
	to := n.cfg.AdminEmail
	if n.recipient != nil {
		if addr, ok := n.recipient(username); ok && addr != "" {
			to = addr
		}
	}

	if data == nil {
		data = map[string]any{}
	}
	data["Username"] = username
	data["Time"] = n.now()
	n.send(ctx, to, subject, name, data)
}

// send renders name and delivers it. Failures are logged, never returned.
func (n *EmailNotifier) send(ctx context.Context, to, subject, name string, data any) {
	var body strings.Builder
	if err := n.templates.ExecuteTemplate(&body, name, data); err != nil {
		n.log.Error("failed to render email", zap.String("template", name), zap.Error(err))
		return
	}

	if !n.cfg.Enabled || n.sender == nil {
		n.log.Info("email disabled, would send", zap.String("to", to), zap.String("subject", subject))
		return
	}

	msg := Message{
		From:    n.cfg.From,
		To:      to,
		Subject: subject,
		HTML:    strings.TrimSpace(body.String()),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.log.Warn("failed to send email", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return
	}
	n.log.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
}
