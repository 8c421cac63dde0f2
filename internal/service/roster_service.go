package service

import (
	"context"
	"fmt"
	"io"

	"github.com/cert-roster-api/internal/config"
	"github.com/cert-roster-api/internal/ingest"
	"github.com/cert-roster-api/internal/matching"
	"github.com/cert-roster-api/internal/models"
	"github.com/cert-roster-api/internal/repository"
	"github.com/cert-roster-api/internal/validation"
	"github.com/rs/zerolog"
)

// UploadResult is the review payload produced from one uploaded file
type UploadResult struct {
	Entries []*models.RosterEntry `json:"entries"`

	TotalRows    int `json:"total_rows"`
	ValidRows    int `json:"valid_rows"`
	ErrorRows    int `json:"error_rows"`
	MismatchRows int `json:"mismatch_rows"`

	// Errors is the flattened, row-ordered error list shown during review.
	Errors []models.ValidationError `json:"errors,omitempty"`

	// NoActiveCourses means matching could not run at all; course-dependent
	// review steps must stay disabled.
	NoActiveCourses bool `json:"no_active_courses,omitempty"`
}

// rosterService is the concrete implementation of RosterService
type rosterService struct {
	repos *repository.Repositories
	cfg   *config.Config
	log   zerolog.Logger
}

// newRosterService creates a new RosterService
func newRosterService(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *rosterService {
	return &rosterService{
		repos: repos,
		cfg:   cfg,
		log:   log.With().Str("service", "roster").Logger(),
	}
}

// ProcessUpload parses the file and runs every row through normalization,
// validation, and course matching. Row failures never abort the upload;
// they are collected onto the rows that raised them.
func (s *rosterService) ProcessUpload(ctx context.Context, file io.Reader, selectedCourseID, defaultCourseID string) (*UploadResult, error) {
	records, err := ingest.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster file: %w", err)
	}

	activeCourses, err := s.repos.Course.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active courses: %w", err)
	}

	selected := findCourse(activeCourses, selectedCourseID)
	defaultCourse := findCourse(activeCourses, defaultCourseID)
	matcher := &matching.Matcher{
		Selected: selected,
		Default:  defaultCourse,
	}

	// Validation runs against the effective course for the batch: the
	// operator's selection, else the default, else the first active course.
	// Only a batch with no course at all raises the per-row course error.
	courseContext := selected
	if courseContext == nil {
		courseContext = defaultCourse
	}
	if courseContext == nil && len(activeCourses) > 0 {
		courseContext = &activeCourses[0]
	}

	validator := validation.NewValidator()
	validator.StrictDates = !s.cfg.Roster.DateFallbackToday

	policy := ingest.DateFallbackToday
	if validator.StrictDates {
		policy = ingest.DateStrict
	}

	result := &UploadResult{NoActiveCourses: len(activeCourses) == 0}

	for i, record := range records {
		rowIndex := i + 1
		entry := ingest.Normalize(record, rowIndex, policy)
		if entry == nil {
			continue // blank row
		}
		result.TotalRows++

		entry.AddErrors(validator.Validate(entry, courseContext))
		entry.Match = matcher.Match(entry, activeCourses)

		if entry.HasError {
			result.ErrorRows++
			result.Errors = append(result.Errors, entry.Errors...)
		} else if entry.Match.Blocking() {
			result.MismatchRows++
		} else {
			result.ValidRows++
		}

		result.Entries = append(result.Entries, entry)
	}

	s.log.Info().
		Int("total", result.TotalRows).
		Int("valid", result.ValidRows).
		Int("errors", result.ErrorRows).
		Int("mismatches", result.MismatchRows).
		Msg("Roster upload processed")

	return result, nil
}

func findCourse(courses []models.Course, id string) *models.Course {
	if id == "" {
		return nil
	}
	for i := range courses {
		if courses[i].ID == id {
			return &courses[i]
		}
	}
	return nil
}
