package repository

import (
	"context"
	"database/sql"

	"github.com/cert-roster-api/internal/database"
	"github.com/cert-roster-api/internal/models"
	"github.com/lib/pq"
)

// rosterRepo is the concrete implementation of RosterRepository
type rosterRepo struct {
	db *database.DB
}

// NewRosterRepo creates a new roster repository
func NewRosterRepo(db *database.DB) RosterRepository {
	return &rosterRepo{db: db}
}

// Create inserts a new roster batch record
func (r *rosterRepo) Create(ctx context.Context, roster *models.Roster) error {
	query := `
		INSERT INTO rosters (id, name, location_id, course_id, status,
			total_records, processed_count, successful_count, failed_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		roster.ID, roster.Name, roster.LocationID, nullString(roster.CourseID),
		roster.Status, roster.TotalRecords, roster.ProcessedCount,
		roster.SuccessfulCount, roster.FailedCount, roster.CreatedAt,
	)
	return err
}

// Update updates roster status and counters
func (r *rosterRepo) Update(ctx context.Context, roster *models.Roster) error {
	query := `
		UPDATE rosters SET
			status = $1, total_records = $2, processed_count = $3,
			successful_count = $4, failed_count = $5, completed_at = $6
		WHERE id = $7
	`
	_, err := r.db.ExecContext(ctx, query,
		roster.Status, roster.TotalRecords, roster.ProcessedCount,
		roster.SuccessfulCount, roster.FailedCount, roster.CompletedAt, roster.ID,
	)
	return err
}

// GetByID retrieves a roster by ID
func (r *rosterRepo) GetByID(ctx context.Context, id string) (*models.Roster, error) {
	query := `
		SELECT id, name, location_id, course_id, status, total_records,
			processed_count, successful_count, failed_count, created_at, completed_at
		FROM rosters WHERE id = $1
	`

	var roster models.Roster
	var courseID sql.NullString
	var completedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&roster.ID, &roster.Name, &roster.LocationID, &courseID, &roster.Status,
		&roster.TotalRecords, &roster.ProcessedCount, &roster.SuccessfulCount,
		&roster.FailedCount, &roster.CreatedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	roster.CourseID = courseID.String
	if completedAt.Valid {
		roster.CompletedAt = &completedAt.Time
	}

	return &roster, nil
}

// AddErrors inserts row-scoped validation errors using the COPY protocol,
// which stays fast even when a large roster fails validation wholesale.
func (r *rosterRepo) AddErrors(ctx context.Context, rosterID string, errors []models.ValidationError) error {
	if len(errors) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("roster_errors",
		"roster_id", "row_number", "field", "message", "kind",
	))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range errors {
		stmt.ExecContext(ctx, rosterID, e.RowIndex, e.Field, e.Message, string(e.Kind))
	}

	// Flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		return err
	}

	return tx.Commit()
}

// GetErrors retrieves validation errors for a roster in row order
func (r *rosterRepo) GetErrors(ctx context.Context, rosterID string, limit int) ([]models.ValidationError, error) {
	query := `SELECT row_number, field, message, kind FROM roster_errors WHERE roster_id = $1 ORDER BY row_number`
	if limit > 0 {
		query += " LIMIT $2"
	}

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query, rosterID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, rosterID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errors []models.ValidationError
	for rows.Next() {
		var e models.ValidationError
		var kind string
		if err := rows.Scan(&e.RowIndex, &e.Field, &e.Message, &kind); err != nil {
			continue
		}
		e.Kind = models.ErrorKind(kind)
		errors = append(errors, e)
	}

	return errors, rows.Err()
}
