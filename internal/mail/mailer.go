// Package mail delivers the notifications produced by the services.
// Services emit domain.Notification intents; the Dispatcher renders and
// sends them over SMTP without blocking the request that produced them.
package mail

import (
	"context"
	"fmt"
	"html"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/itas-team/itas/internal/domain"
)

// Sender delivers a rendered message. Implemented by SMTPMailer and by
// the log-only mailer used in development and tests.
type Sender interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// SMTPConfig carries the SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	StartTLS bool
}

// SMTPMailer sends mail through a real SMTP server.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(10 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	if cfg.StartTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mail: from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail: to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, textBody)
	if htmlBody != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, htmlBody)
	}

	return m.client.DialAndSendWithContext(ctx, msg)
}

// render turns a notification intent into subject and bodies.
func render(n domain.Notification) (subject, text, html string) {
	switch n.Kind {
	case domain.NotifyRoleRequest:
		subject = fmt.Sprintf("Role request: %s wants %s access", n.UserName, n.RequestedRole)
		text = fmt.Sprintf(
			"%s <%s> requested the %s role.\n\nApprove: %s\nDeny: %s\n\nLinks expire in 48 hours.",
			n.UserName, n.UserEmail, n.RequestedRole, n.ApproveURL, n.DenyURL,
		)
		// Name and email are user input; they must not land in the
		// reviewer's mail client as live markup.
		html = fmt.Sprintf(
			`<p><strong>%s</strong> &lt;%s&gt; requested the <strong>%s</strong> role.</p>`+
				`<p><a href="%s">Approve</a> &middot; <a href="%s">Deny</a></p>`+
				`<p>Links expire in 48 hours.</p>`,
			escape(n.UserName), escape(n.UserEmail), n.RequestedRole, n.ApproveURL, n.DenyURL,
		)

	case domain.NotifyRoleApproved:
		subject = fmt.Sprintf("Your %s access was approved", n.RequestedRole)
		text = fmt.Sprintf("Hi %s,\n\nYour request for the %s role was approved. Sign in again to pick up the new permissions.", n.UserName, n.RequestedRole)

	case domain.NotifyRoleDenied:
		subject = fmt.Sprintf("Your %s request was declined", n.RequestedRole)
		text = fmt.Sprintf("Hi %s,\n\nYour request for the %s role was declined. You keep your current access.", n.UserName, n.RequestedRole)

	case domain.NotifyPasswordReset:
		subject = "Password reset"
		text = fmt.Sprintf("Hi %s,\n\nReset your password here: %s\n\nThe link expires in 15 minutes. If you did not request this, ignore this email.", n.UserName, n.ResetURL)
		html = fmt.Sprintf(
			`<p>Hi %s,</p><p><a href="%s">Reset your password</a></p><p>The link expires in 15 minutes. If you did not request this, ignore this email.</p>`,
			escape(n.UserName), n.ResetURL,
		)

	case domain.NotifySupport:
		subject = n.Subject
		text = fmt.Sprintf("From: %s <%s>\n\n%s", n.UserName, n.UserEmail, n.Body)

	default:
		subject = n.Subject
		text = n.Body
	}
	return subject, text, html
}

func escape(s string) string { return html.EscapeString(s) }
