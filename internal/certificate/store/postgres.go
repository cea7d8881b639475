package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"certverify/internal/certificate/models"
	"certverify/pkg/platform/sentinel"
)

// Postgres persists certificates in PostgreSQL. Uniqueness of certificate
// numbers and verification codes is delegated to unique constraints (see
// schema.sql); 23505 violations are translated to the duplicate errors so
// issuance can retry with a fresh code.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgres wraps db with a per-operation timeout so a slow database
// surfaces as a store error instead of a hung request.
func NewPostgres(db *sql.DB, timeout time.Duration) *Postgres {
	return &Postgres{db: db, timeout: timeout}
}

func (s *Postgres) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

const certColumns = `
	id, certificate_number, student_id, student_name, student_email,
	university_id, course_name, specialization, grade, cgpa,
	issue_date, completion_date, certificate_hash, digital_signature,
	verification_code, status, revocation_reason, revoked_at, revoked_by,
	created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, cert *models.Certificate) error {
	query := `
		INSERT INTO certificates (` + certColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query,
		cert.ID, cert.CertificateNumber, cert.StudentID, cert.StudentName,
		nullStr(cert.StudentEmail), cert.UniversityID, cert.CourseName,
		nullStr(cert.Specialization), cert.Grade, nullFloat(cert.CGPA),
		cert.IssueDate, nullTime(cert.CompletionDate), cert.CertificateHash,
		cert.DigitalSignature, cert.VerificationCode, string(cert.Status),
		nullStr(cert.RevocationReason), nullTime(cert.RevokedAt),
		nullStr(cert.RevokedBy), cert.CreatedAt, cert.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "certificates_verification_code_key":
				return ErrDuplicateCode
			case "certificates_certificate_number_key", "certificates_pkey":
				return ErrDuplicateNumber
			}
			return fmt.Errorf("create certificate: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	query := `SELECT ` + certColumns + ` FROM certificates WHERE id = $1`
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *Postgres) FindByNumber(ctx context.Context, number string) (*models.Certificate, error) {
	query := `SELECT ` + certColumns + ` FROM certificates WHERE certificate_number = $1`
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.scanOne(s.db.QueryRowContext(ctx, query, number))
}

func (s *Postgres) FindByCode(ctx context.Context, code string) (*models.Certificate, error) {
	query := `SELECT ` + certColumns + ` FROM certificates WHERE verification_code = $1`
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.scanOne(s.db.QueryRowContext(ctx, query, code))
}

func (s *Postgres) List(ctx context.Context, filter Filter) ([]*models.Certificate, error) {
	query := `SELECT ` + certColumns + ` FROM certificates WHERE 1=1`
	var args []any
	if filter.StudentEmail != "" {
		args = append(args, filter.StudentEmail)
		query += fmt.Sprintf(" AND lower(student_email) = lower($%d)", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var out []*models.Certificate
	for rows.Next() {
		cert, err := scanCert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cert)
	}
	return out, rows.Err()
}

// Revoke is a single conditional UPDATE guarded by status='active', so two
// concurrent revokes of the same certificate resolve to exactly one winner
// without application-level locking.
func (s *Postgres) Revoke(ctx context.Context, number, reason, actor string, now time.Time) (*models.Certificate, error) {
	query := `
		UPDATE certificates
		SET status = 'revoked', revocation_reason = $2, revoked_by = $3,
		    revoked_at = $4, updated_at = $4
		WHERE certificate_number = $1 AND status = 'active'
		RETURNING ` + certColumns
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	cert, err := s.scanOne(s.db.QueryRowContext(ctx, query, number, reason, actor, now))
	if err == nil {
		return cert, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	// No row updated: distinguish missing from already revoked.
	if _, err := s.FindByNumber(ctx, number); err != nil {
		return nil, err
	}
	return nil, sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Postgres) scanOne(row rowScanner) (*models.Certificate, error) {
	cert, err := scanCert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return cert, err
}

func scanCert(row rowScanner) (*models.Certificate, error) {
	var (
		cert                          models.Certificate
		email, spec, reason, actor    sql.NullString
		cgpa                          sql.NullFloat64
		completionDate, revokedAt     sql.NullTime
		status                        string
	)
	err := row.Scan(
		&cert.ID, &cert.CertificateNumber, &cert.StudentID, &cert.StudentName,
		&email, &cert.UniversityID, &cert.CourseName, &spec, &cert.Grade,
		&cgpa, &cert.IssueDate, &completionDate, &cert.CertificateHash,
		&cert.DigitalSignature, &cert.VerificationCode, &status,
		&reason, &revokedAt, &actor, &cert.CreatedAt, &cert.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan certificate: %w", err)
	}

	cert.StudentEmail = email.String
	cert.Specialization = spec.String
	cert.RevocationReason = reason.String
	cert.RevokedBy = actor.String
	cert.Status = models.Status(status)
	if cgpa.Valid {
		cert.CGPA = &cgpa.Float64
	}
	if completionDate.Valid {
		t := completionDate.Time
		cert.CompletionDate = &t
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		cert.RevokedAt = &t
	}
	return &cert, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
