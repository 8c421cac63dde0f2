package service

import (
	"context"
	"io"

	"github.com/cert-roster-api/internal/config"
	"github.com/cert-roster-api/internal/mailq"
	"github.com/cert-roster-api/internal/models"
	"github.com/cert-roster-api/internal/repository"
	"github.com/rs/zerolog"
)

// RosterService runs the upload half of the pipeline: parse, normalize,
// validate, and match every row of an uploaded roster file.
type RosterService interface {
	ProcessUpload(ctx context.Context, file io.Reader, selectedCourseID, defaultCourseID string) (*UploadResult, error)
}

// SubmissionService persists one certificate request per valid row, in
// bounded chunks, and reports the final aggregate status.
type SubmissionService interface {
	Submit(ctx context.Context, req *SubmitRequest) (*models.Roster, *models.ProcessingStatus, error)
	GetRoster(ctx context.Context, id string) (*models.Roster, error)
	GetRosterErrors(ctx context.Context, id string) ([]models.ValidationError, error)
	GetRosterCertificates(ctx context.Context, id string) ([]*models.Certificate, error)
}

// EmailService orchestrates bulk certificate email dispatch through the
// external mail worker and surfaces its progress.
type EmailService interface {
	StartBatch(ctx context.Context, certificateIDs []string, name string) (*models.EmailBatch, error)
	GetBatch(ctx context.Context, id string) (*models.EmailBatch, error)
	Poll(ctx context.Context, id string) (*DispatchResult, error)
	RetryCertificate(ctx context.Context, batchID, certificateID string) error
}

// CatalogService exposes the course/location catalog for batch selections
type CatalogService interface {
	ActiveCourses(ctx context.Context) ([]models.Course, error)
	ActiveLocations(ctx context.Context) ([]models.Location, error)
}

// Services holds all service interfaces
type Services struct {
	Roster     RosterService
	Submission SubmissionService
	Email      EmailService
	Catalog    CatalogService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, publisher mailq.Publisher, cfg *config.Config, log zerolog.Logger) *Services {
	return &Services{
		Roster:     newRosterService(repos, cfg, log),
		Submission: newSubmissionService(repos, cfg, newLogNotifier(log), log),
		Email:      newEmailService(repos.EmailBatch, publisher, cfg, log),
		Catalog:    newCatalogService(repos),
	}
}

// catalogService is the concrete implementation of CatalogService
type catalogService struct {
	repos *repository.Repositories
}

func newCatalogService(repos *repository.Repositories) *catalogService {
	return &catalogService{repos: repos}
}

func (s *catalogService) ActiveCourses(ctx context.Context) ([]models.Course, error) {
	return s.repos.Course.GetActive(ctx)
}

func (s *catalogService) ActiveLocations(ctx context.Context) ([]models.Location, error) {
	return s.repos.Location.GetActive(ctx)
}
