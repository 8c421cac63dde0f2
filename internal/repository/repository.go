package repository

import (
	"context"

	"github.com/cert-roster-api/internal/database"
	"github.com/cert-roster-api/internal/models"
)

// CourseRepository defines the interface for course data operations
type CourseRepository interface {
	GetActive(ctx context.Context) ([]models.Course, error)
	GetByID(ctx context.Context, id string) (*models.Course, error)
}

// LocationRepository defines the interface for location data operations
type LocationRepository interface {
	GetActive(ctx context.Context) ([]models.Location, error)
	GetByID(ctx context.Context, id string) (*models.Location, error)
}

// CertificateRepository defines the interface for certificate data operations
type CertificateRepository interface {
	Create(ctx context.Context, cert *models.Certificate) error
	GetByID(ctx context.Context, id string) (*models.Certificate, error)
	GetByRosterID(ctx context.Context, rosterID string) ([]*models.Certificate, error)
	MarkEmailed(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// RosterRepository defines the interface for roster batch records
type RosterRepository interface {
	Create(ctx context.Context, roster *models.Roster) error
	Update(ctx context.Context, roster *models.Roster) error
	GetByID(ctx context.Context, id string) (*models.Roster, error)
	AddErrors(ctx context.Context, rosterID string, errors []models.ValidationError) error
	GetErrors(ctx context.Context, rosterID string, limit int) ([]models.ValidationError, error)
}

// EmailBatchRepository defines the interface for bulk email operations.
// This service creates batches and reads progress; the external mail worker
// owns the counter and status writes.
type EmailBatchRepository interface {
	Create(ctx context.Context, batch *models.EmailBatch) error
	GetByID(ctx context.Context, id string) (*models.EmailBatch, error)
	MarkFailed(ctx context.Context, id string, message string) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Course      CourseRepository
	Location    LocationRepository
	Certificate CertificateRepository
	Roster      RosterRepository
	EmailBatch  EmailBatchRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Course:      NewCourseRepo(db),
		Location:    NewLocationRepo(db),
		Certificate: NewCertificateRepo(db),
		Roster:      NewRosterRepo(db),
		EmailBatch:  NewEmailBatchRepo(db),
	}
}
