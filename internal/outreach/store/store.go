// Package store persists outreach messages with the same insert-if-absent
// contract the registration store uses, keyed by the message dedupe key.
package store

import (
	"context"

	"utsav/internal/outreach/models"
)

// Store is the outreach persistence contract.
//
// Sentinel errors: sentinel.ErrNotFound for unknown ids.
type Store interface {
	// CreateIfAbsent inserts msg unless a message with the same dedupe key
	// exists, in which case the existing row is returned and created is false.
	CreateIfAbsent(ctx context.Context, msg *models.Message) (stored *models.Message, created bool, err error)

	// List returns all messages, newest first. Admin read view only.
	List(ctx context.Context) ([]*models.Message, error)
}
