package models

import (
	"time"
)

// EmailBatchStatus represents the processing state of a bulk email operation.
// Written by the external mail worker, read by this service via polling.
type EmailBatchStatus string

const (
	EmailBatchPending    EmailBatchStatus = "PENDING"
	EmailBatchProcessing EmailBatchStatus = "PROCESSING"
	EmailBatchCompleted  EmailBatchStatus = "COMPLETED"
	EmailBatchFailed     EmailBatchStatus = "FAILED"
)

// Terminal reports whether the status is final
func (s EmailBatchStatus) Terminal() bool {
	return s == EmailBatchCompleted || s == EmailBatchFailed
}

// EmailBatch is the persisted record tracking one bulk certificate email
// operation. This service creates it and only ever reads the progress
// fields afterwards; the mail worker owns the writes.
type EmailBatch struct {
	ID                    string           `json:"id" db:"id"`
	Name                  string           `json:"name" db:"name"`
	TotalCertificates     int              `json:"total_certificates" db:"total_certificates"`
	ProcessedCertificates int              `json:"processed_certificates" db:"processed_certificates"`
	SuccessfulEmails      int              `json:"successful_emails" db:"successful_emails"`
	FailedEmails          int              `json:"failed_emails" db:"failed_emails"`
	Status                EmailBatchStatus `json:"status" db:"status"`
	ErrorMessage          string           `json:"error_message,omitempty" db:"error_message"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	CompletedAt           *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
}
