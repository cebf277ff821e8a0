// Package service handles contact, expo, and influencer intake. Submissions
// are deduplicated on content so client retries create one row, and each new
// message notifies the operator.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"utsav/internal/notify"
	"utsav/internal/outreach/models"
	"utsav/internal/outreach/store"
	dErrors "utsav/pkg/domain-errors"
	"utsav/pkg/email"
	audit "utsav/pkg/platform/audit"
	"utsav/pkg/requestcontext"
)

// AuditPublisher records intake events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles outreach submissions.
type Service struct {
	store        store.Store
	notifier     notify.Notifier
	audit        AuditPublisher
	logger       *slog.Logger
	operatorAddr string
}

// New wires the outreach service.
func New(st store.Store, notifier notify.Notifier, auditPub AuditPublisher, logger *slog.Logger, operatorAddr string) *Service {
	return &Service{
		store:        st,
		notifier:     notifier,
		audit:        auditPub,
		logger:       logger,
		operatorAddr: operatorAddr,
	}
}

// SubmitContact stores a contact message.
func (s *Service) SubmitContact(ctx context.Context, in models.Input) (*models.Message, error) {
	in.Kind = models.KindContact
	return s.submit(ctx, in, audit.EventContactReceived)
}

// SubmitExpo stores an expo registration.
func (s *Service) SubmitExpo(ctx context.Context, in models.Input) (*models.Message, error) {
	in.Kind = models.KindExpo
	return s.submit(ctx, in, audit.EventExpoReceived)
}

// SubmitInfluencer stores an influencer application.
func (s *Service) SubmitInfluencer(ctx context.Context, in models.Input) (*models.Message, error) {
	in.Kind = models.KindInfluencer
	return s.submit(ctx, in, audit.EventInfluencerReceived)
}

// List returns all messages for the admin read view.
func (s *Service) List(ctx context.Context) ([]*models.Message, error) {
	msgs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list messages")
	}
	return msgs, nil
}

func (s *Service) submit(ctx context.Context, in models.Input, action audit.AuditEvent) (*models.Message, error) {
	msg, err := models.New(uuid.NewString(), in, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	stored, created, err := s.store.CreateIfAbsent(ctx, msg)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store message")
	}
	if !created {
		// Client retry; the original row already notified the operator.
		return stored, nil
	}

	if err := s.notifyOperator(ctx, stored); err != nil {
		// The message is stored either way; delivery problems are for logs.
		s.logger.ErrorContext(ctx, "failed to notify operator",
			"request_id", requestcontext.RequestID(ctx),
			"message_id", stored.ID,
			"error", err.Error(),
		)
	}

	if s.audit != nil {
		_ = s.audit.Emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Action:    string(action),
			RequestID: requestcontext.RequestID(ctx),
			Detail:    stored.ID,
		})
	}
	return stored, nil
}

func (s *Service) notifyOperator(ctx context.Context, msg *models.Message) error {
	return s.notifier.Send(ctx, notify.Message{
		To:      s.operatorAddr,
		Subject: operatorSubject(msg),
		Body:    operatorBody(msg),
	})
}

func operatorSubject(msg *models.Message) string {
	from := email.Salutation(msg.Name, msg.Email)
	switch msg.Kind {
	case models.KindExpo:
		return fmt.Sprintf("Expo registration from %s (%s)", from, msg.BusinessName)
	case models.KindInfluencer:
		return fmt.Sprintf("Influencer application from %s", from)
	default:
		return fmt.Sprintf("Contact message from %s", from)
	}
}

func operatorBody(msg *models.Message) string {
	body := fmt.Sprintf("Kind: %s\nName: %s\nEmail: %s\nPhone: %s", msg.Kind, msg.Name, msg.Email, msg.Phone)
	switch msg.Kind {
	case models.KindContact:
		body += "\n\n" + msg.Body
	case models.KindExpo:
		body += fmt.Sprintf("\nBusiness: %s\nBooth preference: %s", msg.BusinessName, msg.BoothPreference)
	case models.KindInfluencer:
		for _, l := range msg.SocialLinks {
			body += "\nLink: " + l
		}
	}
	return body
}
