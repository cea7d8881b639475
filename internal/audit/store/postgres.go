package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"certverify/internal/audit/models"
)

const entryColumns = `id, certificate_id, identifier, verifier_ip, user_agent, method, result, reason, verified_at`

// Postgres is the durable append-only verification log.
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

func (s *Postgres) Append(ctx context.Context, e *models.Entry) error {
	certID := uuid.NullUUID{}
	if e.CertificateID != nil {
		certID = uuid.NullUUID{UUID: *e.CertificateID, Valid: true}
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_logs (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, certID, e.Identifier,
		nullStr(e.VerifierIP), nullStr(e.UserAgent),
		e.Method, e.Result, nullStr(e.Reason), e.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("appending verification log: %w", err)
	}
	return nil
}

func (s *Postgres) ListByCertificate(ctx context.Context, certificateID uuid.UUID) ([]*models.Entry, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM verification_logs
		WHERE certificate_id = $1
		ORDER BY verified_at ASC`,
		certificateID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing verification logs: %w", err)
	}
	defer rows.Close()

	var out []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (*models.Entry, error) {
	var (
		e          models.Entry
		certID     uuid.NullUUID
		verifierIP sql.NullString
		userAgent  sql.NullString
		reason     sql.NullString
	)
	err := rows.Scan(
		&e.ID, &certID, &e.Identifier, &verifierIP, &userAgent,
		&e.Method, &e.Result, &reason, &e.VerifiedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning verification log: %w", err)
	}
	if certID.Valid {
		id := certID.UUID
		e.CertificateID = &id
	}
	e.VerifierIP = verifierIP.String
	e.UserAgent = userAgent.String
	e.Reason = reason.String
	return &e, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
