// Package handler exposes the outreach intake endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"utsav/internal/outreach/models"
	"utsav/internal/platform/middleware"
	"utsav/internal/transport/http/shared"
	dErrors "utsav/pkg/domain-errors"
)

// Service is the slice of the outreach service the HTTP layer needs.
type Service interface {
	SubmitContact(ctx context.Context, in models.Input) (*models.Message, error)
	SubmitExpo(ctx context.Context, in models.Input) (*models.Message, error)
	SubmitInfluencer(ctx context.Context, in models.Input) (*models.Message, error)
}

// Handler handles contact, expo, and influencer endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates an outreach Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: svc}
}

// Register registers the outreach routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/contact", h.submitWith(h.service.SubmitContact))
	r.Post("/api/expo", h.submitWith(h.service.SubmitExpo))
	r.Post("/api/influencer", h.submitWith(h.service.SubmitInfluencer))
}

type submitRequest struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone,omitempty"`
	Message         string   `json:"message,omitempty"`
	BusinessName    string   `json:"business_name,omitempty"`
	BoothPreference string   `json:"booth_preference,omitempty"`
	SocialLinks     []string `json:"social_links,omitempty"`
}

type submitResponse struct {
	ID string `json:"id"`
}

func (h *Handler) submitWith(submit func(context.Context, models.Input) (*models.Message, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.WarnContext(ctx, "invalid outreach request",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}

		msg, err := submit(ctx, models.Input{
			Name:            req.Name,
			Email:           req.Email,
			Phone:           req.Phone,
			Body:            req.Message,
			BusinessName:    req.BusinessName,
			BoothPreference: req.BoothPreference,
			SocialLinks:     req.SocialLinks,
		})
		if err != nil {
			if dErrors.Is(err, dErrors.CodeBadRequest) {
				shared.WriteError(w, err)
				return
			}
			h.logger.ErrorContext(ctx, "failed to store outreach message",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to store message"))
			return
		}

		shared.WriteJSON(w, http.StatusCreated, submitResponse{ID: msg.ID})
	}
}
