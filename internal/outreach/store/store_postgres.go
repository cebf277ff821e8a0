package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"utsav/internal/outreach/models"
	"utsav/pkg/platform/sentinel"
)

// PostgresStore persists outreach messages in PostgreSQL. Retried submissions
// collapse via the dedupe-key unique constraint.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed outreach store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const messagesSchema = `
CREATE TABLE IF NOT EXISTS outreach_messages (
	id               TEXT PRIMARY KEY,
	kind             TEXT NOT NULL,
	name             TEXT NOT NULL DEFAULT '',
	email            TEXT NOT NULL,
	phone            TEXT NOT NULL DEFAULT '',
	body             TEXT NOT NULL DEFAULT '',
	business_name    TEXT NOT NULL DEFAULT '',
	booth_preference TEXT NOT NULL DEFAULT '',
	social_links     TEXT[] NOT NULL DEFAULT '{}',
	dedupe_key       TEXT NOT NULL UNIQUE,
	created_at       TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the outreach_messages table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, messagesSchema); err != nil {
		return fmt.Errorf("ensure outreach schema: %w", err)
	}
	return nil
}

const messageColumns = `id, kind, name, email, phone, body, business_name,
	booth_preference, social_links, dedupe_key, created_at`

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, msg *models.Message) (*models.Message, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO outreach_messages (`+messageColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (dedupe_key) DO NOTHING`,
		msg.ID, string(msg.Kind), msg.Name, msg.Email, msg.Phone, msg.Body,
		msg.BusinessName, msg.BoothPreference, pq.Array(msg.SocialLinks),
		msg.DedupeKey, msg.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert outreach message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert outreach message rows affected: %w", err)
	}

	stored, err := s.findByDedupeKey(ctx, msg.DedupeKey)
	if err != nil {
		return nil, false, err
	}
	return stored, affected == 1, nil
}

func (s *PostgresStore) findByDedupeKey(ctx context.Context, key string) (*models.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM outreach_messages WHERE dedupe_key = $1`, key)
	return scanMessage(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM outreach_messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list outreach messages: %w", err)
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		msg   models.Message
		kind  string
		links pq.StringArray
	)
	err := row.Scan(&msg.ID, &kind, &msg.Name, &msg.Email, &msg.Phone, &msg.Body,
		&msg.BusinessName, &msg.BoothPreference, &links, &msg.DedupeKey, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan outreach message: %w", err)
	}

	msg.Kind = models.Kind(kind)
	msg.SocialLinks = []string(links)
	return &msg, nil
}
