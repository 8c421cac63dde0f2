package mocks

import (
	"context"
	"sync"

	"github.com/cert-roster-api/internal/models"
)

// MockCourseRepository is a mock implementation of CourseRepository
type MockCourseRepository struct {
	Courses  []models.Course
	GetError error
}

func NewMockCourseRepository(courses ...models.Course) *MockCourseRepository {
	return &MockCourseRepository{Courses: courses}
}

func (m *MockCourseRepository) GetActive(ctx context.Context) ([]models.Course, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	var active []models.Course
	for _, c := range m.Courses {
		if c.Active {
			active = append(active, c)
		}
	}
	return active, nil
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	for i := range m.Courses {
		if m.Courses[i].ID == id {
			return &m.Courses[i], nil
		}
	}
	return nil, nil
}

// MockLocationRepository is a mock implementation of LocationRepository
type MockLocationRepository struct {
	Locations []models.Location
}

func NewMockLocationRepository(locations ...models.Location) *MockLocationRepository {
	return &MockLocationRepository{Locations: locations}
}

func (m *MockLocationRepository) GetActive(ctx context.Context) ([]models.Location, error) {
	var active []models.Location
	for _, l := range m.Locations {
		if l.Active {
			active = append(active, l)
		}
	}
	return active, nil
}

func (m *MockLocationRepository) GetByID(ctx context.Context, id string) (*models.Location, error) {
	for i := range m.Locations {
		if m.Locations[i].ID == id {
			return &m.Locations[i], nil
		}
	}
	return nil, nil
}

// MockCertificateRepository is a mock implementation of CertificateRepository
type MockCertificateRepository struct {
	mu           sync.Mutex
	Certificates map[string]*models.Certificate
	CreateCalls  int
	// CreateFunc, when set, decides each insert's outcome.
	CreateFunc func(ctx context.Context, cert *models.Certificate) error
}

func NewMockCertificateRepository() *MockCertificateRepository {
	return &MockCertificateRepository{Certificates: make(map[string]*models.Certificate)}
}

func (m *MockCertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, cert); err != nil {
			return err
		}
	}
	m.Certificates[cert.ID] = cert
	return nil
}

func (m *MockCertificateRepository) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Certificates[id], nil
}

func (m *MockCertificateRepository) GetByRosterID(ctx context.Context, rosterID string) ([]*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var certs []*models.Certificate
	for _, cert := range m.Certificates {
		if cert.RosterID == rosterID {
			certs = append(certs, cert)
		}
	}
	return certs, nil
}

func (m *MockCertificateRepository) MarkEmailed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cert, ok := m.Certificates[id]; ok {
		cert.Status = models.CertificateStatusEmailed
	}
	return nil
}

func (m *MockCertificateRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Certificates), nil
}

// MockRosterRepository is a mock implementation of RosterRepository
type MockRosterRepository struct {
	mu          sync.Mutex
	Rosters     map[string]*models.Roster
	Errors      map[string][]models.ValidationError
	CreateError error
	UpdateCalls int
}

func NewMockRosterRepository() *MockRosterRepository {
	return &MockRosterRepository{
		Rosters: make(map[string]*models.Roster),
		Errors:  make(map[string][]models.ValidationError),
	}
}

func (m *MockRosterRepository) Create(ctx context.Context, roster *models.Roster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	copied := *roster
	m.Rosters[roster.ID] = &copied
	return nil
}

func (m *MockRosterRepository) Update(ctx context.Context, roster *models.Roster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	copied := *roster
	m.Rosters[roster.ID] = &copied
	return nil
}

func (m *MockRosterRepository) GetByID(ctx context.Context, id string) (*models.Roster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Rosters[id], nil
}

func (m *MockRosterRepository) AddErrors(ctx context.Context, rosterID string, errors []models.ValidationError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[rosterID] = append(m.Errors[rosterID], errors...)
	return nil
}

func (m *MockRosterRepository) GetErrors(ctx context.Context, rosterID string, limit int) ([]models.ValidationError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	errs := m.Errors[rosterID]
	if limit > 0 && len(errs) > limit {
		errs = errs[:limit]
	}
	return errs, nil
}

// MockEmailBatchRepository is a mock implementation of EmailBatchRepository
type MockEmailBatchRepository struct {
	mu          sync.Mutex
	Batches     map[string]*models.EmailBatch
	CreateError error
	// GetFunc, when set, decides each poll's outcome; the attempt counter
	// lets tests script a sequence of responses.
	GetFunc  func(attempt int, id string) (*models.EmailBatch, error)
	GetCalls int
}

func NewMockEmailBatchRepository() *MockEmailBatchRepository {
	return &MockEmailBatchRepository{Batches: make(map[string]*models.EmailBatch)}
}

func (m *MockEmailBatchRepository) Create(ctx context.Context, batch *models.EmailBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	copied := *batch
	m.Batches[batch.ID] = &copied
	return nil
}

func (m *MockEmailBatchRepository) GetByID(ctx context.Context, id string) (*models.EmailBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetFunc != nil {
		return m.GetFunc(m.GetCalls, id)
	}
	return m.Batches[id], nil
}

func (m *MockEmailBatchRepository) MarkFailed(ctx context.Context, id string, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if batch, ok := m.Batches[id]; ok {
		batch.Status = models.EmailBatchFailed
		batch.ErrorMessage = message
	}
	return nil
}
