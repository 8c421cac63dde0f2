package models

// MatchType tags how a roster row was associated with a course offering
type MatchType string

const (
	MatchExact              MatchType = "exact"
	MatchPartial            MatchType = "partial"
	MatchCertificationValue MatchType = "certification_value"
	MatchInstructor         MatchType = "instructor"
	MatchInstructorFallback MatchType = "instructor_fallback"
	MatchManual             MatchType = "manual"
	MatchDefault            MatchType = "default"
	MatchMismatch           MatchType = "mismatch"
)

// CourseMatch is the outcome of matching a single roster row to a course.
// One optional CourseMatch per RosterEntry; never shared across entries.
type CourseMatch struct {
	CourseID         string    `json:"course_id"`
	CourseName       string    `json:"course_name"`
	MatchType        MatchType `json:"match_type"`
	ExpirationMonths int       `json:"expiration_months"`
	Certifications   []string  `json:"certifications,omitempty"`
}

// Blocking reports whether the match outcome prevents submission
func (m *CourseMatch) Blocking() bool {
	return m != nil && m.MatchType == MatchMismatch
}
