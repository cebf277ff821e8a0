package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"utsav/internal/registration/models"
	"utsav/pkg/domain"
	"utsav/pkg/platform/sentinel"
)

// PostgresStore persists registrations in PostgreSQL. Idempotency rests on
// the transaction-id unique constraint (ON CONFLICT DO NOTHING) and status
// monotonicity on a guarded UPDATE checking the prior status.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registration store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const registrationsSchema = `
CREATE TABLE IF NOT EXISTS registrations (
	id                  TEXT PRIMARY KEY,
	transaction_id      TEXT NOT NULL UNIQUE,
	full_name           TEXT NOT NULL,
	email               TEXT NOT NULL,
	phone               TEXT NOT NULL,
	age                 INT NOT NULL,
	category            TEXT NOT NULL,
	institution         TEXT NOT NULL DEFAULT '',
	interests           TEXT[] NOT NULL DEFAULT '{}',
	kind                TEXT NOT NULL,
	ticket_category     TEXT NOT NULL DEFAULT '',
	contest_name        TEXT NOT NULL DEFAULT '',
	team_size           INT NOT NULL DEFAULT 0,
	payment_status      TEXT NOT NULL DEFAULT 'PENDING',
	gateway_session_ref TEXT NOT NULL DEFAULT '',
	payment_proof_url   TEXT NOT NULL DEFAULT '',
	artifact_ref        TEXT NOT NULL DEFAULT '',
	notified_at         TIMESTAMPTZ,
	ledger_appended_at  TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the registrations table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, registrationsSchema); err != nil {
		return fmt.Errorf("ensure registrations schema: %w", err)
	}
	return nil
}

const registrationColumns = `id, transaction_id, full_name, email, phone, age, category,
	institution, interests, kind, ticket_category, contest_name, team_size,
	payment_status, gateway_session_ref, payment_proof_url, artifact_ref,
	notified_at, ledger_appended_at, created_at`

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, reg *models.Registration) (*models.Registration, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO registrations (`+registrationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (transaction_id) DO NOTHING`,
		reg.ID.String(), reg.TransactionID.String(), reg.FullName, reg.Email, reg.Phone,
		reg.Age, string(reg.Category), reg.Institution, pq.Array(reg.Interests),
		string(reg.Kind), reg.TicketCategory, reg.ContestName, reg.TeamSize,
		string(reg.PaymentStatus), reg.GatewaySessionRef, reg.PaymentProofURL,
		reg.ArtifactRef, reg.NotifiedAt, reg.LedgerAppendedAt, reg.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert registration rows affected: %w", err)
	}

	stored, err := s.FindByTransactionID(ctx, reg.TransactionID)
	if err != nil {
		return nil, false, err
	}
	return stored, affected == 1, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.RegistrationID) (*models.Registration, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id.String())
	return scanRegistration(row)
}

func (s *PostgresStore) FindByTransactionID(ctx context.Context, txn domain.TransactionID) (*models.Registration, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+registrationColumns+` FROM registrations WHERE transaction_id = $1`, txn.String())
	return scanRegistration(row)
}

func (s *PostgresStore) UpdateStatusIfPending(ctx context.Context, txn domain.TransactionID, next models.PaymentStatus) (bool, error) {
	if !next.IsTerminal() {
		return false, sentinel.ErrInvalidState
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE registrations SET payment_status = $2
		WHERE transaction_id = $1 AND payment_status = 'PENDING'`,
		txn.String(), string(next),
	)
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update payment status rows affected: %w", err)
	}
	if affected == 1 {
		return true, nil
	}

	// Distinguish a lost race from an unknown transaction.
	if _, err := s.FindByTransactionID(ctx, txn); err != nil {
		return false, err
	}
	return false, nil
}

func (s *PostgresStore) SetGatewaySessionRef(ctx context.Context, id domain.RegistrationID, ref string) error {
	return s.exec(ctx, `UPDATE registrations SET gateway_session_ref = $2 WHERE id = $1`, id.String(), ref)
}

func (s *PostgresStore) SetPaymentProofURL(ctx context.Context, id domain.RegistrationID, url string) error {
	return s.exec(ctx, `UPDATE registrations SET payment_proof_url = $2 WHERE id = $1`, id.String(), url)
}

func (s *PostgresStore) SetArtifact(ctx context.Context, id domain.RegistrationID, ref string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE registrations SET artifact_ref = $2
		WHERE id = $1 AND artifact_ref = ''`, id.String(), ref)
	if err != nil {
		return fmt.Errorf("set artifact ref: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		// Either already set (fine) or the id is unknown.
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) MarkNotified(ctx context.Context, id domain.RegistrationID, at time.Time) error {
	return s.exec(ctx, `
		UPDATE registrations SET notified_at = $2
		WHERE id = $1 AND notified_at IS NULL`, id.String(), at)
}

func (s *PostgresStore) MarkLedgerAppended(ctx context.Context, id domain.RegistrationID, at time.Time) error {
	return s.exec(ctx, `
		UPDATE registrations SET ledger_appended_at = $2
		WHERE id = $1 AND ledger_appended_at IS NULL`, id.String(), at)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Registration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+registrationColumns+` FROM registrations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("registration update: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var (
		reg            models.Registration
		id, txn        string
		category, kind string
		status         string
		interests      pq.StringArray
		notifiedAt     sql.NullTime
		ledgerAt       sql.NullTime
	)
	err := row.Scan(&id, &txn, &reg.FullName, &reg.Email, &reg.Phone, &reg.Age,
		&category, &reg.Institution, &interests, &kind, &reg.TicketCategory,
		&reg.ContestName, &reg.TeamSize, &status, &reg.GatewaySessionRef,
		&reg.PaymentProofURL, &reg.ArtifactRef, &notifiedAt, &ledgerAt, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}

	reg.ID = domain.RegistrationID(id)
	reg.TransactionID = domain.TransactionID(txn)
	reg.Category = models.Category(category)
	reg.Kind = models.Kind(kind)
	reg.PaymentStatus = models.PaymentStatus(status)
	reg.Interests = []string(interests)
	if notifiedAt.Valid {
		reg.NotifiedAt = &notifiedAt.Time
	}
	if ledgerAt.Valid {
		reg.LedgerAppendedAt = &ledgerAt.Time
	}
	return &reg, nil
}
