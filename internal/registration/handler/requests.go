package handler

import (
	"encoding/base64"

	"utsav/internal/registration/models"
	"utsav/internal/registration/service"
	"utsav/pkg/domain"
)

// submitRequest is the registration submission body. IdempotencyKey lets a
// flaky client retry the POST and land on the same registration.
type submitRequest struct {
	FullName       string   `json:"full_name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Age            int      `json:"age"`
	Category       string   `json:"category"`
	Institution    string   `json:"institution,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	Kind           string   `json:"kind"`
	TicketCategory string   `json:"ticket_category,omitempty"`
	ContestName    string   `json:"contest_name,omitempty"`
	TeamSize       int      `json:"team_size,omitempty"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
	PhotoBase64    string   `json:"photo_base64,omitempty"`
}

func (r submitRequest) toInput() models.Input {
	return models.Input{
		FullName:       r.FullName,
		Email:          r.Email,
		Phone:          r.Phone,
		Age:            r.Age,
		Category:       models.Category(r.Category),
		Institution:    r.Institution,
		Interests:      r.Interests,
		Kind:           models.Kind(r.Kind),
		TicketCategory: r.TicketCategory,
		ContestName:    r.ContestName,
		TeamSize:       r.TeamSize,
	}
}

// transactionID derives the pinned transaction id from the idempotency key,
// or the zero value when the client did not send one.
func (r submitRequest) transactionID() domain.TransactionID {
	if r.IdempotencyKey == "" {
		return ""
	}
	return domain.TransactionID(domain.TransactionIDPrefix + r.IdempotencyKey)
}

func (r submitRequest) photo() ([]byte, error) {
	if r.PhotoBase64 == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(r.PhotoBase64)
}

type submitResponse struct {
	RegistrationID string `json:"registration_id"`
	TransactionID  string `json:"transaction_id"`
	PaymentStatus  string `json:"payment_status"`
}

type paymentResponse struct {
	RedirectURL string `json:"redirect_url"`
}

type statusResponse struct {
	Status         string `json:"status"`
	RegistrationID string `json:"registration_id,omitempty"`
}

type proofRequest struct {
	Filename   string `json:"filename"`
	DataBase64 string `json:"data_base64"`
}

type proofResponse struct {
	ProofURL string `json:"proof_url"`
}

type ticketResponse struct {
	RegistrationID string `json:"registration_id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Kind           string `json:"kind"`
	ContestName    string `json:"contest_name,omitempty"`
	PaymentStatus  string `json:"payment_status"`
	ArtifactURL    string `json:"artifact_url,omitempty"`
}

func ticketResponseFrom(view service.TicketView) ticketResponse {
	resp := ticketResponse{
		RegistrationID: view.RegistrationID.String(),
		Name:           view.Name,
		Category:       string(view.Category),
		Kind:           string(view.Kind),
		ContestName:    view.ContestName,
		PaymentStatus:  string(view.PaymentStatus),
	}
	if view.ArtifactRef != "" {
		resp.ArtifactURL = "/api/tickets/" + view.RegistrationID.String() + "/artifact"
	}
	return resp
}
