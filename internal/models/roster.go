package models

import (
	"time"
)

// AssessmentStatus is the pass/fail outcome recorded for a trainee
type AssessmentStatus string

const (
	AssessmentPass    AssessmentStatus = "PASS"
	AssessmentFail    AssessmentStatus = "FAIL"
	AssessmentPending AssessmentStatus = "PENDING"
)

// ErrorKind classifies a row validation error
type ErrorKind string

const (
	ErrorRequired       ErrorKind = "required"
	ErrorFormat         ErrorKind = "format"
	ErrorInvalidEnum    ErrorKind = "invalid_enum"
	ErrorCourseMismatch ErrorKind = "course_mismatch"
)

// ValidationError represents a single row-scoped validation error.
// Purely descriptive, never mutated after creation.
type ValidationError struct {
	RowIndex int       `json:"row"`
	Field    string    `json:"field"`
	Message  string    `json:"message"`
	Kind     ErrorKind `json:"kind"`
}

// RosterEntry is one trainee row parsed from the uploaded spreadsheet.
// RowIndex is the 1-based position in the source file and is immutable
// once the entry is created.
type RosterEntry struct {
	RowIndex         int               `json:"row"`
	StudentName      string            `json:"student_name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	Company          string            `json:"company"`
	City             string            `json:"city"`
	Province         string            `json:"province"`
	PostalCode       string            `json:"postal_code"`
	FirstAidLevel    string            `json:"first_aid_level"`
	CPRLevel         string            `json:"cpr_level"`
	InstructorLevel  string            `json:"instructor_level,omitempty"`
	CourseLength     float64           `json:"course_length,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	IssueDate        time.Time         `json:"issue_date"`
	IssueDateRaw     string            `json:"-"`
	IssueDateParsed  bool              `json:"-"`
	ExpiryDate       *time.Time        `json:"expiry_date,omitempty"`
	AssessmentStatus AssessmentStatus  `json:"assessment_status"`
	AssessmentRaw    string            `json:"-"`
	Extra            map[string]string `json:"-"` // unknown columns, kept for certification-value matching
	HasError         bool              `json:"has_error"`
	Errors           []ValidationError `json:"errors,omitempty"`
	Match            *CourseMatch      `json:"match,omitempty"`
}

// AddErrors records validation errors on the entry
func (e *RosterEntry) AddErrors(errs []ValidationError) {
	if len(errs) == 0 {
		return
	}
	e.Errors = append(e.Errors, errs...)
	e.HasError = true
}

// Submittable reports whether the entry may be persisted as a certificate
func (e *RosterEntry) Submittable() bool {
	return !e.HasError && !e.Match.Blocking()
}

// RosterStatus represents the lifecycle of a persisted roster batch
type RosterStatus string

const (
	RosterStatusPending    RosterStatus = "pending"
	RosterStatusProcessing RosterStatus = "processing"
	RosterStatusCompleted  RosterStatus = "completed"
	RosterStatusFailed     RosterStatus = "failed"
)

// Roster is the persisted batch record for one submitted roster
type Roster struct {
	ID              string       `json:"roster_id" db:"id"`
	Name            string       `json:"name" db:"name"`
	LocationID      string       `json:"location_id" db:"location_id"`
	CourseID        string       `json:"course_id,omitempty" db:"course_id"`
	Status          RosterStatus `json:"status" db:"status"`
	TotalRecords    int          `json:"total_records" db:"total_records"`
	ProcessedCount  int          `json:"processed" db:"processed_count"`
	SuccessfulCount int          `json:"successful" db:"successful_count"`
	FailedCount     int          `json:"failed" db:"failed_count"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
}

// ProcessingStatus is the aggregate counter for an in-flight batch operation.
// Processed only increases; Processed <= Total and Successful+Failed <= Processed
// hold at all times.
type ProcessingStatus struct {
	Total      int      `json:"total"`
	Processed  int      `json:"processed"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

// RecordSuccess counts one row as successfully processed
func (s *ProcessingStatus) RecordSuccess() {
	s.Processed++
	s.Successful++
}

// RecordFailure counts one row as failed and keeps its message
func (s *ProcessingStatus) RecordFailure(msg string) {
	s.Processed++
	s.Failed++
	s.Errors = append(s.Errors, msg)
}

// Done reports whether every row has been attempted
func (s *ProcessingStatus) Done() bool {
	return s.Processed >= s.Total
}
