// Package models owns the Registration entity and its lifecycle rules.
package models

import (
	"regexp"
	"strings"
	"time"

	"utsav/pkg/domain"
	dErrors "utsav/pkg/domain-errors"
)

// PaymentStatus is monotonic over PENDING → {SUCCESS, FAILED}. Terminal
// statuses never revert; the store's compare-and-set enforces this.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// IsTerminal reports whether the status can no longer change.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// Category is the participant type.
type Category string

const (
	CategoryIndividual  Category = "individual"
	CategoryTeam        Category = "team"
	CategoryInstitution Category = "institution"
)

var validCategories = map[Category]bool{
	CategoryIndividual:  true,
	CategoryTeam:        true,
	CategoryInstitution: true,
}

// Kind discriminates the registration variants. Contest registrations carry
// contest-specific fields; session registrations do not.
type Kind string

const (
	KindSession Kind = "session"
	KindContest Kind = "contest"
)

// Registration is the durable record of one participant's intent to attend
// or compete. Exactly one exists per TransactionID.
type Registration struct {
	ID            domain.RegistrationID
	TransactionID domain.TransactionID

	FullName    string
	Email       string
	Phone       string
	Age         int
	Category    Category
	Institution string
	Interests   []string

	Kind           Kind
	TicketCategory string
	ContestName    string
	TeamSize       int

	PaymentStatus     PaymentStatus
	GatewaySessionRef string
	PaymentProofURL   string

	// ArtifactRef is set once by the fan-out after the first successful
	// render; set iff PaymentStatus is SUCCESS.
	ArtifactRef      string
	NotifiedAt       *time.Time
	LedgerAppendedAt *time.Time

	CreatedAt time.Time
}

// Input is the submission payload after transport decoding.
type Input struct {
	FullName       string
	Email          string
	Phone          string
	Age            int
	Category       Category
	Institution    string
	Interests      []string
	Kind           Kind
	TicketCategory string
	ContestName    string
	TeamSize       int
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

const (
	minAge = 10
	maxAge = 100
)

// New validates input and builds a Registration in PENDING state.
//
// Errors: CodeBadRequest for any shape violation; the message names the
// offending field so clients can resubmit corrected data.
func New(id domain.RegistrationID, txn domain.TransactionID, in Input, now time.Time) (*Registration, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Institution = strings.TrimSpace(in.Institution)
	in.ContestName = strings.TrimSpace(in.ContestName)

	if in.FullName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "full name is required")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email is malformed")
	}
	if !phonePattern.MatchString(in.Phone) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "phone is malformed")
	}
	if in.Age < minAge || in.Age > maxAge {
		return nil, dErrors.New(dErrors.CodeBadRequest, "age is outside the allowed range")
	}
	if !validCategories[in.Category] {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown participant category")
	}
	if in.Category == CategoryInstitution && in.Institution == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "institution name is required for institution registrations")
	}

	switch in.Kind {
	case KindSession:
		// No extra fields.
	case KindContest:
		if in.ContestName == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "contest name is required for contest registrations")
		}
		if in.Category == CategoryTeam && in.TeamSize < 2 {
			return nil, dErrors.New(dErrors.CodeBadRequest, "team contests need a team size of at least 2")
		}
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown registration kind")
	}

	return &Registration{
		ID:             id,
		TransactionID:  txn,
		FullName:       in.FullName,
		Email:          in.Email,
		Phone:          in.Phone,
		Age:            in.Age,
		Category:       in.Category,
		Institution:    in.Institution,
		Interests:      in.Interests,
		Kind:           in.Kind,
		TicketCategory: in.TicketCategory,
		ContestName:    in.ContestName,
		TeamSize:       in.TeamSize,
		PaymentStatus:  PaymentPending,
		CreatedAt:      now,
	}, nil
}

// TicketReady reports whether the ticket view can include an artifact.
func (r *Registration) TicketReady() bool {
	return r.PaymentStatus == PaymentSuccess && r.ArtifactRef != ""
}

// FanOutComplete reports whether every post-confirmation effect has been
// recorded for this registration.
func (r *Registration) FanOutComplete() bool {
	return r.ArtifactRef != "" && r.NotifiedAt != nil && r.LedgerAppendedAt != nil
}
