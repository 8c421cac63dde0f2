package models

import (
	"time"
)

// Course represents an offered course that roster rows are matched against
type Course struct {
	ID               string    `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	FirstAidLevel    string    `json:"first_aid_level" db:"first_aid_level"`
	CPRLevel         string    `json:"cpr_level" db:"cpr_level"`
	LengthHours      float64   `json:"length_hours" db:"length_hours"`
	ExpirationMonths int       `json:"expiration_months" db:"expiration_months"`
	Certifications   []string  `json:"certifications" db:"-"` // Stored as JSON string in DB
	CertsJSON        string    `json:"-" db:"certifications"` // For DB storage
	InstructorLevel  string    `json:"instructor_level,omitempty" db:"instructor_level"`
	// OptionalFields lists canonical roster fields that are not required
	// when this course is selected for a batch.
	OptionalFields []string  `json:"optional_fields,omitempty" db:"-"`
	OptionalJSON   string    `json:"-" db:"optional_fields"`
	Active         bool      `json:"active" db:"active"`
	Position       int       `json:"position" db:"position"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// IsInstructorCourse reports whether the course certifies instructors
func (c *Course) IsInstructorCourse() bool {
	return c.InstructorLevel != ""
}

// ValidCPRLevels defines the accepted CPR level values (post-normalization)
var ValidCPRLevels = map[string]bool{
	"a":   true,
	"b":   true,
	"c":   true,
	"hcp": true,
	"bls": true,
}

// ValidFirstAidLevels defines the accepted first-aid level values (post-normalization)
var ValidFirstAidLevels = map[string]bool{
	"emergency": true,
	"standard":  true,
	"advanced":  true,
}
