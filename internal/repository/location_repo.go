package repository

import (
	"context"
	"database/sql"

	"github.com/cert-roster-api/internal/database"
	"github.com/cert-roster-api/internal/models"
)

// locationRepo is the concrete implementation of LocationRepository
type locationRepo struct {
	db *database.DB
}

// NewLocationRepo creates a new location repository
func NewLocationRepo(db *database.DB) LocationRepository {
	return &locationRepo{db: db}
}

// GetActive retrieves all active locations
func (r *locationRepo) GetActive(ctx context.Context) ([]models.Location, error) {
	query := `
		SELECT id, name, city, province, active, created_at
		FROM locations WHERE active = true
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var loc models.Location
		err := rows.Scan(&loc.ID, &loc.Name, &loc.City, &loc.Province, &loc.Active, &loc.CreatedAt)
		if err != nil {
			continue
		}
		locations = append(locations, loc)
	}

	return locations, rows.Err()
}

// GetByID retrieves a location by ID
func (r *locationRepo) GetByID(ctx context.Context, id string) (*models.Location, error) {
	query := `
		SELECT id, name, city, province, active, created_at
		FROM locations WHERE id = $1
	`
	var loc models.Location
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&loc.ID, &loc.Name, &loc.City, &loc.Province, &loc.Active, &loc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
