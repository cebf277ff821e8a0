//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"utsav/internal/registration/models"
	"utsav/pkg/identifier"
	"utsav/pkg/platform/sentinel"
	"utsav/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(pg.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) newRegistration() *models.Registration {
	reg, err := models.New(
		identifier.NewRegistrationID(),
		identifier.NewTransactionID(),
		models.Input{
			FullName: "Asha Menon",
			Email:    "asha@example.com",
			Phone:    "+919876543210",
			Age:      21,
			Category: models.CategoryIndividual,
			Kind:     models.KindSession,
		},
		time.Now().UTC(),
	)
	s.Require().NoError(err)
	return reg
}

func (s *PostgresStoreSuite) TestCreateIfAbsentIsIdempotent() {
	ctx := context.Background()
	reg := s.newRegistration()

	_, created, err := s.store.CreateIfAbsent(ctx, reg)
	s.Require().NoError(err)
	s.True(created)

	dup := *reg
	dup.FullName = "Someone Else"
	stored, created, err := s.store.CreateIfAbsent(ctx, &dup)
	s.Require().NoError(err)
	s.False(created)
	s.Equal("Asha Menon", stored.FullName)
}

func (s *PostgresStoreSuite) TestStatusTransitionIsCompareAndSet() {
	ctx := context.Background()
	reg := s.newRegistration()
	_, _, err := s.store.CreateIfAbsent(ctx, reg)
	s.Require().NoError(err)

	won, err := s.store.UpdateStatusIfPending(ctx, reg.TransactionID, models.PaymentSuccess)
	s.Require().NoError(err)
	s.True(won)

	// Terminal status never reverts, even to the other terminal state.
	won, err = s.store.UpdateStatusIfPending(ctx, reg.TransactionID, models.PaymentFailed)
	s.Require().NoError(err)
	s.False(won)

	stored, err := s.store.FindByTransactionID(ctx, reg.TransactionID)
	s.Require().NoError(err)
	s.Equal(models.PaymentSuccess, stored.PaymentStatus)
}

func (s *PostgresStoreSuite) TestStatusTransitionRejectsNonTerminal() {
	ctx := context.Background()
	reg := s.newRegistration()
	_, _, err := s.store.CreateIfAbsent(ctx, reg)
	s.Require().NoError(err)

	_, err = s.store.UpdateStatusIfPending(ctx, reg.TransactionID, models.PaymentPending)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresStoreSuite) TestStatusTransitionUnknownTransaction() {
	_, err := s.store.UpdateStatusIfPending(context.Background(), "TXN-unknown", models.PaymentSuccess)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestArtifactRefIsWriteOnce() {
	ctx := context.Background()
	reg := s.newRegistration()
	_, _, err := s.store.CreateIfAbsent(ctx, reg)
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetArtifact(ctx, reg.ID, "first.png"))
	s.Require().NoError(s.store.SetArtifact(ctx, reg.ID, "second.png"))

	stored, err := s.store.FindByID(ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal("first.png", stored.ArtifactRef)
}

func (s *PostgresStoreSuite) TestEffectMarkersRoundTrip() {
	ctx := context.Background()
	reg := s.newRegistration()
	_, _, err := s.store.CreateIfAbsent(ctx, reg)
	s.Require().NoError(err)

	at := time.Now().UTC().Truncate(time.Millisecond)
	s.Require().NoError(s.store.MarkNotified(ctx, reg.ID, at))
	s.Require().NoError(s.store.MarkLedgerAppended(ctx, reg.ID, at))

	stored, err := s.store.FindByID(ctx, reg.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.NotifiedAt)
	s.Require().NotNil(stored.LedgerAppendedAt)
	s.WithinDuration(at, *stored.NotifiedAt, time.Second)
}

func (s *PostgresStoreSuite) TestFindUnknownReturnsNotFound() {
	_, err := s.store.FindByID(context.Background(), "R-missing1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
