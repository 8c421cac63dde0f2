package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cert-roster-api/internal/config"
	"github.com/cert-roster-api/internal/models"
	"github.com/cert-roster-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SubmitRequest carries everything the submission engine needs for one batch
type SubmitRequest struct {
	Name           string
	Entries        []*models.RosterEntry
	LocationID     string
	CourseID       string
	InstructorName string
	// Progress, when set, receives a snapshot of the running status after
	// every chunk.
	Progress func(models.ProcessingStatus)
}

// Notifier delivers best-effort administrative notifications
type Notifier interface {
	BatchCompleted(ctx context.Context, roster *models.Roster, status *models.ProcessingStatus) error
}

// submissionService is the concrete implementation of SubmissionService
type submissionService struct {
	repos    *repository.Repositories
	cfg      *config.Config
	notifier Notifier
	log      zerolog.Logger
}

// newSubmissionService creates a new SubmissionService
func newSubmissionService(repos *repository.Repositories, cfg *config.Config, notifier Notifier, log zerolog.Logger) *submissionService {
	return &submissionService{
		repos:    repos,
		cfg:      cfg,
		notifier: notifier,
		log:      log.With().Str("service", "submission").Logger(),
	}
}

// Submit creates one certificate request per submittable entry, in chunks,
// and returns the terminal ProcessingStatus. Rows carrying validation
// errors or a course mismatch count toward failed but are never inserted;
// one row's insert failure never aborts the batch. Only a failure to create
// the roster record itself is batch-fatal.
func (s *submissionService) Submit(ctx context.Context, req *SubmitRequest) (*models.Roster, *models.ProcessingStatus, error) {
	roster := &models.Roster{
		ID:           uuid.New().String(),
		Name:         req.Name,
		LocationID:   req.LocationID,
		CourseID:     req.CourseID,
		Status:       models.RosterStatusProcessing,
		TotalRecords: len(req.Entries),
		CreatedAt:    time.Now(),
	}
	if err := s.repos.Roster.Create(ctx, roster); err != nil {
		return nil, nil, fmt.Errorf("failed to create roster record: %w", err)
	}

	s.log.Info().
		Str("roster_id", roster.ID).
		Int("total", len(req.Entries)).
		Msg("Roster submission started")

	status := &models.ProcessingStatus{Total: len(req.Entries)}
	var rowErrors []models.ValidationError
	chunkSize := s.cfg.Roster.SubmitChunkSize

	for start := 0; start < len(req.Entries); start += chunkSize {
		end := start + chunkSize
		if end > len(req.Entries) {
			end = len(req.Entries)
		}

		for _, entry := range req.Entries[start:end] {
			if !entry.Submittable() {
				status.RecordFailure(rowFailureMessage(entry))
				rowErrors = append(rowErrors, entry.Errors...)
				continue
			}

			cert := s.buildCertificate(entry, req)
			cert.RosterID = roster.ID
			if err := s.repos.Certificate.Create(ctx, cert); err != nil {
				s.log.Error().Err(err).
					Str("roster_id", roster.ID).
					Int("row", entry.RowIndex).
					Msg("Certificate insert failed")
				status.RecordFailure(fmt.Sprintf("Row %d: %v", entry.RowIndex, err))
				continue
			}
			status.RecordSuccess()
		}

		roster.ProcessedCount = status.Processed
		roster.SuccessfulCount = status.Successful
		roster.FailedCount = status.Failed
		if err := s.repos.Roster.Update(ctx, roster); err != nil {
			s.log.Error().Err(err).Str("roster_id", roster.ID).Msg("Failed to update roster progress")
		}
		if req.Progress != nil {
			req.Progress(*status)
		}
	}

	if len(rowErrors) > 0 {
		if err := s.repos.Roster.AddErrors(ctx, roster.ID, rowErrors); err != nil {
			s.log.Error().Err(err).Str("roster_id", roster.ID).Msg("Failed to store row errors")
		}
	}

	completedAt := time.Now()
	roster.Status = models.RosterStatusCompleted
	roster.CompletedAt = &completedAt
	if err := s.repos.Roster.Update(ctx, roster); err != nil {
		s.log.Error().Err(err).Str("roster_id", roster.ID).Msg("Failed to finalize roster")
	}

	s.log.Info().
		Str("roster_id", roster.ID).
		Int("successful", status.Successful).
		Int("failed", status.Failed).
		Msg("Roster submission completed")

	// Best effort: a notification failure never fails the batch.
	if err := s.notifier.BatchCompleted(ctx, roster, status); err != nil {
		s.log.Warn().Err(err).Str("roster_id", roster.ID).Msg("Admin notification failed")
	}

	return roster, status, nil
}

// GetRoster retrieves a roster batch record
func (s *submissionService) GetRoster(ctx context.Context, id string) (*models.Roster, error) {
	return s.repos.Roster.GetByID(ctx, id)
}

// GetRosterErrors retrieves all row errors for a roster
func (s *submissionService) GetRosterErrors(ctx context.Context, id string) ([]models.ValidationError, error) {
	return s.repos.Roster.GetErrors(ctx, id, 0)
}

// GetRosterCertificates retrieves the certificates created from one roster
func (s *submissionService) GetRosterCertificates(ctx context.Context, id string) ([]*models.Certificate, error) {
	return s.repos.Certificate.GetByRosterID(ctx, id)
}

// buildCertificate maps a validated entry to a certificate request. Expiry
// is derived from the issue date and the matched course's expiration months
// when the spreadsheet did not carry one.
func (s *submissionService) buildCertificate(entry *models.RosterEntry, req *SubmitRequest) *models.Certificate {
	courseID := req.CourseID
	expirationMonths := 0
	if entry.Match != nil {
		courseID = entry.Match.CourseID
		expirationMonths = entry.Match.ExpirationMonths
	}

	expiry := entry.IssueDate.AddDate(0, expirationMonths, 0)
	if entry.ExpiryDate != nil {
		expiry = *entry.ExpiryDate
	}

	return &models.Certificate{
		ID:               uuid.New().String(),
		RecipientName:    entry.StudentName,
		Email:            entry.Email,
		Phone:            entry.Phone,
		Company:          entry.Company,
		FirstAidLevel:    entry.FirstAidLevel,
		CPRLevel:         entry.CPRLevel,
		LengthHours:      entry.CourseLength,
		AssessmentStatus: entry.AssessmentStatus,
		InstructorName:   req.InstructorName,
		IssueDate:        entry.IssueDate,
		ExpiryDate:       expiry,
		Status:           models.CertificateStatusPending,
		CourseID:         courseID,
		LocationID:       req.LocationID,
		CreatedAt:        time.Now(),
	}
}

func rowFailureMessage(entry *models.RosterEntry) string {
	if len(entry.Errors) > 0 {
		return fmt.Sprintf("Row %d: %s", entry.RowIndex, entry.Errors[0].Message)
	}
	if entry.Match.Blocking() {
		return fmt.Sprintf("Row %d: course mismatch is unresolved", entry.RowIndex)
	}
	return fmt.Sprintf("Row %d: row cannot be submitted", entry.RowIndex)
}

// logNotifier is the default Notifier; deployments without an admin channel
// still get a structured record of every completed batch.
type logNotifier struct {
	log zerolog.Logger
}

func newLogNotifier(log zerolog.Logger) *logNotifier {
	return &logNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *logNotifier) BatchCompleted(ctx context.Context, roster *models.Roster, status *models.ProcessingStatus) error {
	n.log.Info().
		Str("roster_id", roster.ID).
		Str("roster_name", roster.Name).
		Int("successful", status.Successful).
		Int("failed", status.Failed).
		Msg("Roster batch completed")
	return nil
}
