package domain

import (
	"strings"

	dErrors "utsav/pkg/domain-errors"
)

// RegistrationID identifies one participant's registration. It is opaque but
// human-presentable ("R-" prefix) because registrants read it back from emails
// and payment pages.
//
// Usage: construct via pkg/identifier at creation time, via ParseRegistrationID
// at trust boundaries. Direct casting bypasses validation.
type RegistrationID string

// TransactionID correlates a Registration with one payment-gateway session.
// Exactly one Registration exists per TransactionID for its lifetime.
type TransactionID string

const (
	RegistrationIDPrefix = "R-"
	TransactionIDPrefix  = "TXN-"
)

func (id RegistrationID) String() string { return string(id) }
func (id RegistrationID) IsZero() bool   { return id == "" }

func (id TransactionID) String() string { return string(id) }
func (id TransactionID) IsZero() bool   { return id == "" }

// ParseRegistrationID constructs a RegistrationID from external input.
//
// Errors: CodeBadRequest when the value is empty or not in the R- form.
func ParseRegistrationID(s string) (RegistrationID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "registration id cannot be empty")
	}
	if !strings.HasPrefix(s, RegistrationIDPrefix) || len(s) <= len(RegistrationIDPrefix) {
		return "", dErrors.New(dErrors.CodeBadRequest, "malformed registration id")
	}
	return RegistrationID(s), nil
}

// ParseTransactionID constructs a TransactionID from external input.
//
// Errors: CodeBadRequest when the value is empty or not in the TXN- form.
func ParseTransactionID(s string) (TransactionID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "transaction id cannot be empty")
	}
	if !strings.HasPrefix(s, TransactionIDPrefix) || len(s) <= len(TransactionIDPrefix) {
		return "", dErrors.New(dErrors.CodeBadRequest, "malformed transaction id")
	}
	return TransactionID(s), nil
}
