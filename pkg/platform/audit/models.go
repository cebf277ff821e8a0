package audit

import "time"

// EventCategory classifies audit events by their primary purpose, enabling
// different retention and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events operators may need to reconcile with
	// payments: confirmations, failures, ledger appends.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and visibility.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key pipeline actions. Keep
// it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp      time.Time
	Action         string
	RegistrationID string
	TransactionID  string
	RequestID      string
	Detail         string
}

type AuditEvent string

const (
	EventRegistrationSubmitted AuditEvent = "registration_submitted"
	EventPaymentInitiated      AuditEvent = "payment_initiated"
	EventPaymentConfirmed      AuditEvent = "payment_confirmed"
	EventPaymentFailed         AuditEvent = "payment_failed"
	EventArtifactRendered      AuditEvent = "artifact_rendered"
	EventNotificationSent      AuditEvent = "notification_sent"
	EventLedgerAppended        AuditEvent = "ledger_appended"
	EventFanOutRetried         AuditEvent = "fanout_retried"
	EventContactReceived       AuditEvent = "contact_received"
	EventExpoReceived          AuditEvent = "expo_registration_received"
	EventInfluencerReceived    AuditEvent = "influencer_application_received"
)

// eventCategories is the source of truth for categorization.
var eventCategories = map[AuditEvent]EventCategory{
	EventRegistrationSubmitted: CategoryOperations,
	EventPaymentInitiated:      CategoryOperations,
	EventPaymentConfirmed:      CategoryCompliance,
	EventPaymentFailed:         CategoryCompliance,
	EventArtifactRendered:      CategoryOperations,
	EventNotificationSent:      CategoryOperations,
	EventLedgerAppended:        CategoryCompliance,
	EventFanOutRetried:         CategoryOperations,
	EventContactReceived:       CategoryOperations,
	EventExpoReceived:          CategoryOperations,
	EventInfluencerReceived:    CategoryOperations,
}

// Category returns the event's category, defaulting to operations.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}
