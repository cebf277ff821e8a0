// Package store persists registrations. Implementations guarantee the two
// contracts the state machine leans on: insert-if-absent keyed by transaction
// id, and compare-and-set status transitions out of PENDING.
package store

import (
	"context"
	"time"

	"utsav/internal/registration/models"
	"utsav/pkg/domain"
)

// Store is the idempotent persistence contract for registrations.
//
// Sentinel errors: sentinel.ErrNotFound for unknown ids. CreateIfAbsent never
// errors on duplicates; it reports them through the created flag.
type Store interface {
	// CreateIfAbsent inserts reg unless a registration already exists for its
	// transaction id, in which case the existing row is returned and created
	// is false. Safe under concurrent and repeated calls.
	CreateIfAbsent(ctx context.Context, reg *models.Registration) (stored *models.Registration, created bool, err error)

	FindByID(ctx context.Context, id domain.RegistrationID) (*models.Registration, error)
	FindByTransactionID(ctx context.Context, txn domain.TransactionID) (*models.Registration, error)

	// UpdateStatusIfPending transitions the payment status out of PENDING.
	// Returns false without error when the stored status is already terminal;
	// the caller lost the race and must re-read. next must be terminal.
	UpdateStatusIfPending(ctx context.Context, txn domain.TransactionID, next models.PaymentStatus) (bool, error)

	SetGatewaySessionRef(ctx context.Context, id domain.RegistrationID, ref string) error
	SetPaymentProofURL(ctx context.Context, id domain.RegistrationID, url string) error

	// SetArtifact records the artifact reference. First write wins; repeat
	// calls with any value are no-ops so re-renders cannot flap the reference.
	SetArtifact(ctx context.Context, id domain.RegistrationID, ref string) error
	MarkNotified(ctx context.Context, id domain.RegistrationID, at time.Time) error
	MarkLedgerAppended(ctx context.Context, id domain.RegistrationID, at time.Time) error

	// List returns all registrations, newest first. Admin read view only.
	List(ctx context.Context) ([]*models.Registration, error)
}
