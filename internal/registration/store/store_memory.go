package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"utsav/internal/registration/models"
	"utsav/pkg/domain"
	"utsav/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded map store. It backs unit tests and single-node
// demo deployments; PostgresStore is the production implementation.
type InMemory struct {
	mu    sync.RWMutex
	byTxn map[domain.TransactionID]*models.Registration
	byID  map[domain.RegistrationID]domain.TransactionID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byTxn: make(map[domain.TransactionID]*models.Registration),
		byID:  make(map[domain.RegistrationID]domain.TransactionID),
	}
}

func (s *InMemory) CreateIfAbsent(ctx context.Context, reg *models.Registration) (*models.Registration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byTxn[reg.TransactionID]; ok {
		return copyOf(existing), false, nil
	}
	stored := copyOf(reg)
	s.byTxn[reg.TransactionID] = stored
	s.byID[reg.ID] = reg.TransactionID
	return copyOf(stored), true, nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.RegistrationID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyOf(s.byTxn[txn]), nil
}

func (s *InMemory) FindByTransactionID(ctx context.Context, txn domain.TransactionID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.byTxn[txn]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyOf(reg), nil
}

func (s *InMemory) UpdateStatusIfPending(ctx context.Context, txn domain.TransactionID, next models.PaymentStatus) (bool, error) {
	if !next.IsTerminal() {
		return false, sentinel.ErrInvalidState
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.byTxn[txn]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if reg.PaymentStatus != models.PaymentPending {
		return false, nil
	}
	reg.PaymentStatus = next
	return true, nil
}

func (s *InMemory) SetGatewaySessionRef(ctx context.Context, id domain.RegistrationID, ref string) error {
	return s.update(id, func(reg *models.Registration) {
		reg.GatewaySessionRef = ref
	})
}

func (s *InMemory) SetPaymentProofURL(ctx context.Context, id domain.RegistrationID, url string) error {
	return s.update(id, func(reg *models.Registration) {
		reg.PaymentProofURL = url
	})
}

func (s *InMemory) SetArtifact(ctx context.Context, id domain.RegistrationID, ref string) error {
	return s.update(id, func(reg *models.Registration) {
		if reg.ArtifactRef == "" {
			reg.ArtifactRef = ref
		}
	})
}

func (s *InMemory) MarkNotified(ctx context.Context, id domain.RegistrationID, at time.Time) error {
	return s.update(id, func(reg *models.Registration) {
		if reg.NotifiedAt == nil {
			t := at
			reg.NotifiedAt = &t
		}
	})
}

func (s *InMemory) MarkLedgerAppended(ctx context.Context, id domain.RegistrationID, at time.Time) error {
	return s.update(id, func(reg *models.Registration) {
		if reg.LedgerAppendedAt == nil {
			t := at
			reg.LedgerAppendedAt = &t
		}
	})
}

func (s *InMemory) List(ctx context.Context) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Registration, 0, len(s.byTxn))
	for _, reg := range s.byTxn {
		out = append(out, copyOf(reg))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) update(id domain.RegistrationID, fn func(*models.Registration)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	fn(s.byTxn[txn])
	return nil
}

func copyOf(reg *models.Registration) *models.Registration {
	c := *reg
	c.Interests = append([]string(nil), reg.Interests...)
	if reg.NotifiedAt != nil {
		t := *reg.NotifiedAt
		c.NotifiedAt = &t
	}
	if reg.LedgerAppendedAt != nil {
		t := *reg.LedgerAppendedAt
		c.LedgerAppendedAt = &t
	}
	return &c
}
