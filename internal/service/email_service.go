package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cert-roster-api/internal/config"
	"github.com/cert-roster-api/internal/mailq"
	"github.com/cert-roster-api/internal/models"
	"github.com/cert-roster-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DispatchOutcome classifies how a bulk email operation ended as far as
// this service is concerned.
type DispatchOutcome string

const (
	// DispatchSucceeded: terminal COMPLETED with zero failed emails.
	DispatchSucceeded DispatchOutcome = "succeeded"
	// DispatchPartial: terminal COMPLETED but some emails failed.
	DispatchPartial DispatchOutcome = "partial"
	// DispatchFailed: terminal FAILED, worker error message attached.
	DispatchFailed DispatchOutcome = "failed"
	// DispatchInBackground: the poll ceiling was reached without a terminal
	// status. Not an error; the worker keeps going.
	DispatchInBackground DispatchOutcome = "in_background"
)

// DispatchResult is the outcome of polling one email batch to completion
type DispatchResult struct {
	Outcome DispatchOutcome    `json:"outcome"`
	Batch   *models.EmailBatch `json:"batch"`
}

// emailService is the concrete implementation of EmailService
type emailService struct {
	batches   repository.EmailBatchRepository
	publisher mailq.Publisher
	interval  time.Duration
	maxPolls  int
	log       zerolog.Logger
}

// newEmailService creates a new EmailService
func newEmailService(batches repository.EmailBatchRepository, publisher mailq.Publisher, cfg *config.Config, log zerolog.Logger) *emailService {
	return &emailService{
		batches:   batches,
		publisher: publisher,
		interval:  cfg.Email.PollInterval,
		maxPolls:  cfg.Email.MaxPolls,
		log:       log.With().Str("service", "email").Logger(),
	}
}

// StartBatch creates the batch operation record and hands the work to the
// mail worker, fire-and-forget. A publish failure is fatal at start: the
// batch is marked FAILED and the error returned immediately.
func (s *emailService) StartBatch(ctx context.Context, certificateIDs []string, name string) (*models.EmailBatch, error) {
	if len(certificateIDs) == 0 {
		return nil, fmt.Errorf("no certificates to email")
	}

	batch := &models.EmailBatch{
		ID:                uuid.New().String(),
		Name:              name,
		TotalCertificates: len(certificateIDs),
		Status:            models.EmailBatchPending,
		CreatedAt:         time.Now(),
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create email batch: %w", err)
	}

	msg := mailq.BatchMessage{
		BatchID:        batch.ID,
		CertificateIDs: certificateIDs,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("batch_id", batch.ID).Msg("Failed to hand batch to mail worker")
		if markErr := s.batches.MarkFailed(ctx, batch.ID, err.Error()); markErr != nil {
			s.log.Error().Err(markErr).Str("batch_id", batch.ID).Msg("Failed to mark batch failed")
		}
		return nil, fmt.Errorf("failed to start email batch: %w", err)
	}

	s.log.Info().
		Str("batch_id", batch.ID).
		Int("certificates", len(certificateIDs)).
		Msg("Email batch handed to mail worker")

	return batch, nil
}

// GetBatch reads the batch operation once, for UI-driven polling
func (s *emailService) GetBatch(ctx context.Context, id string) (*models.EmailBatch, error) {
	return s.batches.GetByID(ctx, id)
}

// Poll re-reads the batch row on a fixed interval until a terminal status
// or the attempt ceiling. Individual poll failures are logged and ignored.
// Reaching the ceiling is not an error: the operation simply continues in
// the background. The loop stops as soon as ctx is cancelled.
func (s *emailService) Poll(ctx context.Context, id string) (*DispatchResult, error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var last *models.EmailBatch
	for attempt := 0; attempt < s.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		batch, err := s.batches.GetByID(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("batch_id", id).Int("attempt", attempt+1).Msg("Email batch poll failed")
			continue
		}
		if batch == nil {
			return nil, fmt.Errorf("email batch %s not found", id)
		}
		last = batch

		if batch.Status.Terminal() {
			return s.terminalResult(batch), nil
		}
	}

	s.log.Info().
		Str("batch_id", id).
		Int("attempts", s.maxPolls).
		Msg("Email batch still running, continuing in background")

	return &DispatchResult{Outcome: DispatchInBackground, Batch: last}, nil
}

// RetryCertificate re-dispatches one failed delivery through the same path
// without recreating the batch.
func (s *emailService) RetryCertificate(ctx context.Context, batchID, certificateID string) error {
	msg := mailq.BatchMessage{
		BatchID:        batchID,
		CertificateIDs: []string{certificateID},
		IsRetry:        true,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to retry certificate email: %w", err)
	}

	s.log.Info().
		Str("batch_id", batchID).
		Str("certificate_id", certificateID).
		Msg("Certificate email retry dispatched")

	return nil
}

func (s *emailService) terminalResult(batch *models.EmailBatch) *DispatchResult {
	switch {
	case batch.Status == models.EmailBatchFailed:
		return &DispatchResult{Outcome: DispatchFailed, Batch: batch}
	case batch.FailedEmails > 0:
		return &DispatchResult{Outcome: DispatchPartial, Batch: batch}
	default:
		return &DispatchResult{Outcome: DispatchSucceeded, Batch: batch}
	}
}
