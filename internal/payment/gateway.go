// Package payment adapts the external payment gateway behind a narrow
// capability so the state machine never touches a concrete SDK type.
package payment

//go:generate mockgen -source=gateway.go -destination=mocks/mocks.go -package=mocks Gateway

import (
	"context"

	"utsav/pkg/domain"
)

// Status is the gateway's view of a transaction.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Session is an open payment session at the gateway.
type Session struct {
	Ref         string
	RedirectURL string
}

// SessionRequest carries what the gateway needs to open a session.
type SessionRequest struct {
	TransactionID domain.TransactionID
	AmountPaise   int64
	Description   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// Gateway is the payment capability.
//
// Sentinel errors: sentinel.ErrUnavailable when the gateway is unreachable,
// sentinel.ErrTimeout when it is too slow, sentinel.ErrNotFound for unknown
// transaction ids. A gateway outage is never mapped to SUCCESS or FAILED.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	GetStatus(ctx context.Context, txn domain.TransactionID) (Status, error)
}
