package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"utsav/internal/registration/models"
	"utsav/pkg/domain"
	"utsav/pkg/identifier"
	"utsav/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newRegistration() *models.Registration {
	reg, err := models.New(identifier.NewRegistrationID(), identifier.NewTransactionID(), models.Input{
		FullName: "Asha Menon",
		Email:    "asha@example.com",
		Phone:    "9876543210",
		Age:      21,
		Category: models.CategoryIndividual,
		Kind:     models.KindSession,
	}, time.Now())
	s.Require().NoError(err)
	return reg
}

func (s *MemoryStoreSuite) TestCreateIfAbsentIsIdempotent() {
	reg := s.newRegistration()

	first, created, err := s.store.CreateIfAbsent(s.ctx, reg)
	s.Require().NoError(err)
	s.True(created)

	// Retried submission with the same transaction id.
	retry := *reg
	retry.ID = identifier.NewRegistrationID()
	second, created, err := s.store.CreateIfAbsent(s.ctx, &retry)
	s.Require().NoError(err)
	s.False(created)
	s.Equal(first.ID, second.ID, "retry must observe the original registration")

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *MemoryStoreSuite) TestFindByUnknownIDs() {
	_, err := s.store.FindByID(s.ctx, domain.RegistrationID("R-UNKNOWN1"))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByTransactionID(s.ctx, domain.TransactionID("TXN-UNKNOWN"))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestStatusCompareAndSet() {
	reg := s.newRegistration()
	_, _, err := s.store.CreateIfAbsent(s.ctx, reg)
	s.Require().NoError(err)

	won, err := s.store.UpdateStatusIfPending(s.ctx, reg.TransactionID, models.PaymentSuccess)
	s.Require().NoError(err)
	s.True(won)

	// Terminal status never reverts, not even to another terminal value.
	won, err = s.store.UpdateStatusIfPending(s.ctx, reg.TransactionID, models.PaymentFailed)
	s.Require().NoError(err)
	s.False(won)

	stored, err := s.store.FindByTransactionID(s.ctx, reg.TransactionID)
	s.Require().NoError(err)
	s.Equal(models.PaymentSuccess, stored.PaymentStatus)
}

func (s *MemoryStoreSuite) TestStatusCASRejectsNonTerminalTarget() {
	reg := s.newRegistration()
	_, _, err := s.store.CreateIfAbsent(s.ctx, reg)
	s.Require().NoError(err)

	_, err = s.store.UpdateStatusIfPending(s.ctx, reg.TransactionID, models.PaymentPending)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

// Exactly one of N concurrent polls may win the PENDING→SUCCESS transition.
func (s *MemoryStoreSuite) TestConcurrentCASHasOneWinner() {
	reg := s.newRegistration()
	_, _, err := s.store.CreateIfAbsent(s.ctx, reg)
	s.Require().NoError(err)

	const workers = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			won, err := s.store.UpdateStatusIfPending(s.ctx, reg.TransactionID, models.PaymentSuccess)
			if err == nil && won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

func (s *MemoryStoreSuite) TestConcurrentCreateHasOneWinner() {
	reg := s.newRegistration()

	const workers = 16
	var creates atomic.Int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			dup := *reg
			dup.ID = identifier.NewRegistrationID()
			_, created, err := s.store.CreateIfAbsent(s.ctx, &dup)
			if err == nil && created {
				creates.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), creates.Load())
}

func (s *MemoryStoreSuite) TestEffectMarkersAreWriteOnce() {
	reg := s.newRegistration()
	_, _, err := s.store.CreateIfAbsent(s.ctx, reg)
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetArtifact(s.ctx, reg.ID, "artifacts/a.png"))
	s.Require().NoError(s.store.SetArtifact(s.ctx, reg.ID, "artifacts/b.png"))

	early := time.Now()
	late := early.Add(time.Hour)
	s.Require().NoError(s.store.MarkNotified(s.ctx, reg.ID, early))
	s.Require().NoError(s.store.MarkNotified(s.ctx, reg.ID, late))
	s.Require().NoError(s.store.MarkLedgerAppended(s.ctx, reg.ID, early))
	s.Require().NoError(s.store.MarkLedgerAppended(s.ctx, reg.ID, late))

	stored, err := s.store.FindByID(s.ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal("artifacts/a.png", stored.ArtifactRef, "first artifact write must win")
	s.True(stored.NotifiedAt.Equal(early))
	s.True(stored.LedgerAppendedAt.Equal(early))
}

func (s *MemoryStoreSuite) TestCopiesAreIsolated() {
	reg := s.newRegistration()
	stored, _, err := s.store.CreateIfAbsent(s.ctx, reg)
	s.Require().NoError(err)

	stored.FullName = "mutated"
	again, err := s.store.FindByID(s.ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal("Asha Menon", again.FullName)
}
