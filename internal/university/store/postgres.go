package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"certverify/internal/university/models"
	"certverify/pkg/platform/sentinel"
)

// Postgres persists universities in PostgreSQL.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgres(db *sql.DB, timeout time.Duration) *Postgres {
	return &Postgres{db: db, timeout: timeout}
}

func (s *Postgres) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

const universityColumns = `
	id, name, email, address, phone, public_key, private_key,
	password_hash, verified, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, u *models.University) error {
	query := `
		INSERT INTO universities (` + universityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, nullStr(u.Address), nullStr(u.Phone),
		u.PublicKey, u.PrivateKey, nullStr(u.PasswordHash), u.Verified,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create university: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id string) (*models.University, error) {
	query := `SELECT ` + universityColumns + ` FROM universities WHERE id = $1`
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return scanUniversity(s.db.QueryRowContext(ctx, query, id))
}

func (s *Postgres) SetVerified(ctx context.Context, id string, verified bool, now time.Time) (*models.University, error) {
	query := `
		UPDATE universities SET verified = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + universityColumns
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return scanUniversity(s.db.QueryRowContext(ctx, query, id, verified, now))
}

func (s *Postgres) List(ctx context.Context) ([]*models.University, error) {
	query := `SELECT ` + universityColumns + ` FROM universities ORDER BY id`
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	defer rows.Close()

	var out []*models.University
	for rows.Next() {
		u, err := scanUniversity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUniversity(row rowScanner) (*models.University, error) {
	var (
		u                     models.University
		address, phone, pwddh sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &address, &phone, &u.PublicKey,
		&u.PrivateKey, &pwddh, &u.Verified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan university: %w", err)
	}
	u.Address = address.String
	u.Phone = phone.String
	u.PasswordHash = pwddh.String
	return &u, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
