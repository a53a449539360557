package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/herbveda/storefront/config"
	"github.com/herbveda/storefront/pkg/logger"
	"github.com/herbveda/storefront/pkg/mail"
)

// ContactService relays messages from signed-in customers to the shop's
// admin mailbox.
type ContactService struct{}

func NewContactService() *ContactService {
	return &ContactService{}
}

// Send forwards the message to the admin address with the customer as
// reply-to. Name and email come from the session, not the request body.
func (s *ContactService) Send(ctx context.Context, name, email, subject, message string) error {
	if email == "" || strings.TrimSpace(message) == "" {
		return NewError(http.StatusBadRequest, "Message is required.")
	}
	if name == "" {
		name = "Customer"
	}

	admin := config.AdminEmail()
	if admin == "" {
		return NewError(http.StatusInternalServerError, "Admin email not configured on server.")
	}

	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "New Contact Form Message"
	}

	err := mail.To(admin).
		ReplyTo(email).
		Subject("[Contact] " + subject).
		Body(buildContactEmailHTML(name, email, subject, message)).
		Text(buildContactEmailText(name, email, subject, message)).
		Send()
	if err != nil {
		logger.WithCtx(ctx).Error("contact: relay failed", "error", err)
		return NewError(http.StatusInternalServerError, "Failed to send message. Please try again later.")
	}
	return nil
}
