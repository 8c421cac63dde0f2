package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cert-roster-api/internal/database"
	"github.com/cert-roster-api/internal/models"
)

// certificateRepo is the concrete implementation of CertificateRepository
type certificateRepo struct {
	db *database.DB
}

// NewCertificateRepo creates a new certificate repository
func NewCertificateRepo(db *database.DB) CertificateRepository {
	return &certificateRepo{db: db}
}

// Create inserts one certificate request. Each row insert is independent of
// the rest of its batch so one failure never aborts the roster submission.
func (r *certificateRepo) Create(ctx context.Context, cert *models.Certificate) error {
	query := `
		INSERT INTO certificates (id, recipient_name, email, phone, company,
			first_aid_level, cpr_level, length_hours, assessment_status,
			instructor_name, issue_date, expiry_date, status, course_id,
			location_id, roster_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.ExecContext(ctx, query,
		cert.ID, cert.RecipientName, cert.Email, cert.Phone, cert.Company,
		cert.FirstAidLevel, cert.CPRLevel, cert.LengthHours, cert.AssessmentStatus,
		nullString(cert.InstructorName), cert.IssueDate, cert.ExpiryDate,
		cert.Status, cert.CourseID, cert.LocationID, cert.RosterID, cert.CreatedAt,
	)
	return err
}

// GetByID retrieves a certificate by ID
func (r *certificateRepo) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	query := selectCertificates + ` WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	cert, err := scanCertificate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// GetByRosterID retrieves all certificates created from one roster batch
func (r *certificateRepo) GetByRosterID(ctx context.Context, rosterID string) ([]*models.Certificate, error) {
	query := selectCertificates + ` WHERE roster_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, rosterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []*models.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			continue
		}
		certs = append(certs, cert)
	}

	return certs, rows.Err()
}

// MarkEmailed records a successful email delivery for one certificate
func (r *certificateRepo) MarkEmailed(ctx context.Context, id string) error {
	query := `UPDATE certificates SET status = $1, emailed_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, models.CertificateStatusEmailed, time.Now(), id)
	return err
}

// Count returns the total number of certificates
func (r *certificateRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&count)
	return count, err
}

const selectCertificates = `
	SELECT id, recipient_name, email, phone, company, first_aid_level,
		cpr_level, length_hours, assessment_status, instructor_name,
		issue_date, expiry_date, status, course_id, location_id, roster_id,
		emailed_at, created_at
	FROM certificates`

func scanCertificate(row rowScanner) (*models.Certificate, error) {
	var cert models.Certificate
	var instructorName sql.NullString
	var emailedAt sql.NullTime

	err := row.Scan(
		&cert.ID, &cert.RecipientName, &cert.Email, &cert.Phone, &cert.Company,
		&cert.FirstAidLevel, &cert.CPRLevel, &cert.LengthHours,
		&cert.AssessmentStatus, &instructorName, &cert.IssueDate,
		&cert.ExpiryDate, &cert.Status, &cert.CourseID, &cert.LocationID,
		&cert.RosterID, &emailedAt, &cert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	cert.InstructorName = instructorName.String
	if emailedAt.Valid {
		cert.EmailedAt = &emailedAt.Time
	}

	return &cert, nil
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
