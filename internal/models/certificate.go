package models

import (
	"time"
)

// CertificateStatus represents the lifecycle of an issued certificate
type CertificateStatus string

const (
	CertificateStatusPending CertificateStatus = "PENDING"
	CertificateStatusIssued  CertificateStatus = "ISSUED"
	CertificateStatusEmailed CertificateStatus = "EMAILED"
)

// Certificate is one certificate request created per valid roster row
type Certificate struct {
	ID               string            `json:"id" db:"id"`
	RecipientName    string            `json:"recipient_name" db:"recipient_name"`
	Email            string            `json:"email" db:"email"`
	Phone            string            `json:"phone" db:"phone"`
	Company          string            `json:"company" db:"company"`
	FirstAidLevel    string            `json:"first_aid_level" db:"first_aid_level"`
	CPRLevel         string            `json:"cpr_level" db:"cpr_level"`
	LengthHours      float64           `json:"length_hours" db:"length_hours"`
	AssessmentStatus AssessmentStatus  `json:"assessment_status" db:"assessment_status"`
	InstructorName   string            `json:"instructor_name" db:"instructor_name"`
	IssueDate        time.Time         `json:"issue_date" db:"issue_date"`
	ExpiryDate       time.Time         `json:"expiry_date" db:"expiry_date"`
	Status           CertificateStatus `json:"status" db:"status"`
	CourseID         string            `json:"course_id" db:"course_id"`
	LocationID       string            `json:"location_id" db:"location_id"`
	RosterID         string            `json:"roster_id" db:"roster_id"`
	EmailedAt        *time.Time        `json:"emailed_at,omitempty" db:"emailed_at"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
}

// Location represents a training location certificates are issued under
type Location struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	City      string    `json:"city" db:"city"`
	Province  string    `json:"province" db:"province"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
