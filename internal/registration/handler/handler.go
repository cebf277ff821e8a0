// Package handler exposes the registration pipeline over HTTP.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"utsav/internal/platform/middleware"
	"utsav/internal/registration/models"
	"utsav/internal/registration/service"
	"utsav/internal/transport/http/shared"
	"utsav/pkg/domain"
	dErrors "utsav/pkg/domain-errors"
)

// Service is the slice of the registration service the HTTP layer needs.
type Service interface {
	Submit(ctx context.Context, in models.Input, txn domain.TransactionID) (*models.Registration, error)
	InitiatePayment(ctx context.Context, id domain.RegistrationID) (string, error)
	PollStatus(ctx context.Context, txn domain.TransactionID) (service.StatusResult, error)
	Ticket(ctx context.Context, id domain.RegistrationID) (service.TicketView, error)
	ArtifactPNG(ctx context.Context, id domain.RegistrationID) ([]byte, error)
	AttachPhoto(ctx context.Context, id domain.RegistrationID, data []byte) error
	AttachPaymentProof(ctx context.Context, id domain.RegistrationID, filename string, data []byte) (string, error)
	UploadedBlob(ctx context.Context, ref string) ([]byte, error)
}

// Handler handles registration, payment, and ticket endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a registration Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: svc}
}

// Register registers the public registration routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/registrations", h.handleSubmit)
	r.Post("/api/registrations/{id}/payment", h.handleInitiatePayment)
	r.Post("/api/registrations/{id}/proof", h.handleAttachProof)
	r.Get("/api/payments/{txn}/status", h.handlePollStatus)
	r.Get("/api/tickets/{id}", h.handleTicket)
	r.Get("/api/tickets/{id}/artifact", h.handleArtifact)
	r.Get("/uploads/{ref}", h.handleUpload)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid submit request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	photo, err := req.photo()
	if err != nil {
		h.warn(ctx, "invalid photo encoding", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "photo_base64 is not valid base64"))
		return
	}

	reg, err := h.service.Submit(ctx, req.toInput(), req.transactionID())
	if err != nil {
		h.writeServiceError(ctx, w, "failed to submit registration", err)
		return
	}

	if len(photo) > 0 {
		if err := h.service.AttachPhoto(ctx, reg.ID, photo); err != nil {
			// The registration stands; the ticket falls back to a monogram.
			h.warn(ctx, "failed to store photo", err)
		}
	}

	shared.WriteJSON(w, http.StatusCreated, submitResponse{
		RegistrationID: reg.ID.String(),
		TransactionID:  reg.TransactionID.String(),
		PaymentStatus:  string(reg.PaymentStatus),
	})
}

func (h *Handler) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	redirectURL, err := h.service.InitiatePayment(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to initiate payment", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, paymentResponse{RedirectURL: redirectURL})
}

func (h *Handler) handlePollStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txn, err := domain.ParseTransactionID(chi.URLParam(r, "txn"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	res, err := h.service.PollStatus(ctx, txn)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to poll payment status", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, statusResponse{
		Status:         string(res.Status),
		RegistrationID: res.RegistrationID.String(),
	})
}

func (h *Handler) handleTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	view, err := h.service.Ticket(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load ticket", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, ticketResponseFrom(view))
}

func (h *Handler) handleArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	data, err := h.service.ArtifactPNG(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load artifact", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleAttachProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req proofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid proof request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.DataBase64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "data_base64 is not valid base64"))
		return
	}

	url, err := h.service.AttachPaymentProof(ctx, id, req.Filename, data)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to attach payment proof", err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, proofResponse{ProofURL: url})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := h.service.UploadedBlob(ctx, chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load upload", err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// writeServiceError logs at the right level and writes the coded error.
// Internal codes get a generic body so store and gateway details stay out of
// responses.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
	default:
		h.warn(ctx, msg, err)
		shared.WriteError(w, err)
	}
}

func (h *Handler) warn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}
