package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/itas-team/itas/internal/domain"
)

// SupportService relays contact-form messages to the support mailbox.
type SupportService struct {
	Notify  Notifier
	Mailbox string
}

type SupportInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

func (s *SupportService) Contact(_ context.Context, in SupportInput) error {
	name := strings.TrimSpace(in.Name)
	message := strings.TrimSpace(in.Message)

	if name == "" || message == "" {
		return fmt.Errorf("%w: name and message are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = "Support request from " + name
	}

	s.Notify.Dispatch(domain.Notification{
		Kind:      domain.NotifySupport,
		To:        s.Mailbox,
		UserName:  name,
		UserEmail: in.Email,
		Subject:   subject,
		Body:      message,
	})
	return nil
}
