package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cert-roster-api/internal/database"
	"github.com/cert-roster-api/internal/models"
)

// emailBatchRepo is the concrete implementation of EmailBatchRepository
type emailBatchRepo struct {
	db *database.DB
}

// NewEmailBatchRepo creates a new email batch repository
func NewEmailBatchRepo(db *database.DB) EmailBatchRepository {
	return &emailBatchRepo{db: db}
}

// Create inserts a new email batch operation record
func (r *emailBatchRepo) Create(ctx context.Context, batch *models.EmailBatch) error {
	query := `
		INSERT INTO email_batches (id, name, total_certificates,
			processed_certificates, successful_emails, failed_emails,
			status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		batch.ID, batch.Name, batch.TotalCertificates,
		batch.ProcessedCertificates, batch.SuccessfulEmails,
		batch.FailedEmails, batch.Status, batch.CreatedAt,
	)
	return err
}

// GetByID retrieves an email batch by ID. The progress fields are written
// by the external mail worker; this read is the polling surface.
func (r *emailBatchRepo) GetByID(ctx context.Context, id string) (*models.EmailBatch, error) {
	query := `
		SELECT id, name, total_certificates, processed_certificates,
			successful_emails, failed_emails, status, error_message,
			created_at, completed_at
		FROM email_batches WHERE id = $1
	`

	var batch models.EmailBatch
	var errorMessage sql.NullString
	var completedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&batch.ID, &batch.Name, &batch.TotalCertificates,
		&batch.ProcessedCertificates, &batch.SuccessfulEmails,
		&batch.FailedEmails, &batch.Status, &errorMessage,
		&batch.CreatedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	batch.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		batch.CompletedAt = &completedAt.Time
	}

	return &batch, nil
}

// MarkFailed records a batch that could not be handed to the mail worker
func (r *emailBatchRepo) MarkFailed(ctx context.Context, id string, message string) error {
	query := `
		UPDATE email_batches SET status = $1, error_message = $2, completed_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.EmailBatchFailed, message, time.Now(), id)
	return err
}
