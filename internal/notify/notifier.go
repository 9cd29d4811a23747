// Package notify delivers best-effort user notifications.
package notify

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"skillsync/internal/model"
)

// Notifier sends user-facing notifications.
type Notifier interface {
	Welcome(ctx context.Context, user *model.User) error
}

// SMTPConfig holds outgoing mail settings.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	ClientURL string
}

// SMTPNotifier sends welcome mail through an SMTP relay.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates an SMTP backed notifier.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

// Welcome mails the registration greeting. smtp.SendMail has no context support,
// so cancellation is only checked before dialing.
func (n *SMTPNotifier) Welcome(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	msg := welcomeMessage(n.cfg.From, user, n.cfg.ClientURL)
	if err := n.send(addr, auth, n.cfg.From, []string{user.Email}, msg); err != nil {
		return fmt.Errorf("send welcome mail: %w", err)
	}
	return nil
}

func welcomeMessage(from string, user *model.User, clientURL string) []byte {
	loginURL := strings.TrimRight(clientURL, "/") + "/login"
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + user.Email + "\r\n")
	b.WriteString("Subject: Welcome to SkillSync!\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "<h1>Welcome to SkillSync, %s!</h1>", html.EscapeString(user.Name))
	b.WriteString("<p>We are thrilled to have you on board.</p>")
	b.WriteString("<p>Start applying to top tech jobs or post your own openings today.</p>")
	fmt.Fprintf(&b, `<p><a href="%s">Login to Dashboard</a></p>`, html.EscapeString(loginURL))
	return []byte(b.String())
}

// LogNotifier only records notifications; used when no SMTP relay is configured.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a notifier that writes to the log.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Welcome logs the greeting instead of sending it.
func (n *LogNotifier) Welcome(ctx context.Context, user *model.User) error {
	n.log.Info("welcome notification", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return nil
}
