// Package admin exposes JWT-gated operator views over registrations and
// outreach messages, plus the fan-out recovery trigger.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	outreachModel "utsav/internal/outreach/models"
	"utsav/internal/platform/middleware"
	regModel "utsav/internal/registration/models"
	"utsav/internal/transport/http/shared"
	"utsav/pkg/domain"
	dErrors "utsav/pkg/domain-errors"
)

// RegistrationService is the slice of the registration service admin needs.
type RegistrationService interface {
	List(ctx context.Context) ([]*regModel.Registration, error)
	RetryFanOut(ctx context.Context, id domain.RegistrationID) (*regModel.Registration, error)
}

// OutreachService is the slice of the outreach service admin needs.
type OutreachService interface {
	List(ctx context.Context) ([]*outreachModel.Message, error)
}

// Handler handles the admin endpoints.
type Handler struct {
	logger        *slog.Logger
	registrations RegistrationService
	outreach      OutreachService
	signingKey    string
}

// New creates an admin Handler. signingKey verifies the bearer tokens.
func New(registrations RegistrationService, outreach OutreachService, logger *slog.Logger, signingKey string) *Handler {
	return &Handler{
		logger:        logger,
		registrations: registrations,
		outreach:      outreach,
		signingKey:    signingKey,
	}
}

// Register registers the admin routes behind the admin gate.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.signingKey, h.logger))
		r.Get("/registrations", h.handleListRegistrations)
		r.Get("/messages", h.handleListMessages)
		r.Post("/registrations/{id}/fanout-retry", h.handleRetryFanOut)
	})
}

type registrationView struct {
	RegistrationID string     `json:"registration_id"`
	TransactionID  string     `json:"transaction_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Category       string     `json:"category"`
	Kind           string     `json:"kind"`
	ContestName    string     `json:"contest_name,omitempty"`
	PaymentStatus  string     `json:"payment_status"`
	ArtifactRef    string     `json:"artifact_ref,omitempty"`
	NotifiedAt     *time.Time `json:"notified_at,omitempty"`
	LedgerAt       *time.Time `json:"ledger_appended_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type messageView struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Body         string    `json:"message,omitempty"`
	BusinessName string    `json:"business_name,omitempty"`
	SocialLinks  []string  `json:"social_links,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *Handler) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	regs, err := h.registrations.List(ctx)
	if err != nil {
		h.writeError(ctx, w, "failed to list registrations", err)
		return
	}

	views := make([]registrationView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, registrationView{
			RegistrationID: reg.ID.String(),
			TransactionID:  reg.TransactionID.String(),
			Name:           reg.FullName,
			Email:          reg.Email,
			Phone:          reg.Phone,
			Category:       string(reg.Category),
			Kind:           string(reg.Kind),
			ContestName:    reg.ContestName,
			PaymentStatus:  string(reg.PaymentStatus),
			ArtifactRef:    reg.ArtifactRef,
			NotifiedAt:     reg.NotifiedAt,
			LedgerAt:       reg.LedgerAppendedAt,
			CreatedAt:      reg.CreatedAt,
		})
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	msgs, err := h.outreach.List(ctx)
	if err != nil {
		h.writeError(ctx, w, "failed to list messages", err)
		return
	}

	views := make([]messageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, messageView{
			ID:           msg.ID,
			Kind:         string(msg.Kind),
			Name:         msg.Name,
			Email:        msg.Email,
			Phone:        msg.Phone,
			Body:         msg.Body,
			BusinessName: msg.BusinessName,
			SocialLinks:  msg.SocialLinks,
			CreatedAt:    msg.CreatedAt,
		})
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleRetryFanOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	reg, err := h.registrations.RetryFanOut(ctx, id)
	if err != nil {
		switch dErrors.CodeOf(err) {
		case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
			h.writeError(ctx, w, "failed to retry fan-out", err)
		default:
			shared.WriteError(w, err)
		}
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"registration_id":  reg.ID.String(),
		"fan_out_complete": reg.FanOutComplete(),
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
	shared.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
}
