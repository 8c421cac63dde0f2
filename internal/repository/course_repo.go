package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cert-roster-api/internal/database"
	"github.com/cert-roster-api/internal/models"
)

// courseRepo is the concrete implementation of CourseRepository
type courseRepo struct {
	db *database.DB
}

// NewCourseRepo creates a new course repository
func NewCourseRepo(db *database.DB) CourseRepository {
	return &courseRepo{db: db}
}

// GetActive retrieves all active courses ordered by position. The ordering
// is what makes partial-match tie-breaks deterministic.
func (r *courseRepo) GetActive(ctx context.Context) ([]models.Course, error) {
	query := `
		SELECT id, name, first_aid_level, cpr_level, length_hours, expiration_months,
			certifications, instructor_level, optional_fields, active, position, created_at
		FROM courses WHERE active = true
		ORDER BY position, created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			continue
		}
		courses = append(courses, *course)
	}

	return courses, rows.Err()
}

// GetByID retrieves a course by ID
func (r *courseRepo) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := `
		SELECT id, name, first_aid_level, cpr_level, length_hours, expiration_months,
			certifications, instructor_level, optional_fields, active, position, created_at
		FROM courses WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	course, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return course, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var course models.Course
	var instructorLevel, certsJSON, optionalJSON sql.NullString

	err := row.Scan(
		&course.ID, &course.Name, &course.FirstAidLevel, &course.CPRLevel,
		&course.LengthHours, &course.ExpirationMonths, &certsJSON,
		&instructorLevel, &optionalJSON, &course.Active, &course.Position,
		&course.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	course.InstructorLevel = instructorLevel.String
	if certsJSON.Valid && certsJSON.String != "" {
		course.CertsJSON = certsJSON.String
		json.Unmarshal([]byte(certsJSON.String), &course.Certifications)
	}
	if optionalJSON.Valid && optionalJSON.String != "" {
		course.OptionalJSON = optionalJSON.String
		json.Unmarshal([]byte(optionalJSON.String), &course.OptionalFields)
	}

	return &course, nil
}
