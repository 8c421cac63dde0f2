package validation

import (
	"regexp"
	"strings"

	"github.com/cert-roster-api/internal/ingest"
	"github.com/cert-roster-api/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)
)

// requiredFields is the fixed required-column set, in reporting order.
// A selected course may relax individual fields via OptionalFields.
var requiredFields = []string{
	ingest.FieldStudentName,
	ingest.FieldEmail,
	ingest.FieldPhone,
	ingest.FieldCompany,
	ingest.FieldFirstAidLevel,
	ingest.FieldCPRLevel,
	ingest.FieldPassFail,
	ingest.FieldCity,
	ingest.FieldProvince,
	ingest.FieldPostalCode,
	ingest.FieldIssueDate,
	ingest.FieldNotes,
}

// requiredMessages name the offending field the way operators see it.
var requiredMessages = map[string]string{
	ingest.FieldStudentName:   "Student name is required",
	ingest.FieldEmail:         "Email is required",
	ingest.FieldPhone:         "Phone is required",
	ingest.FieldCompany:       "Company is required",
	ingest.FieldFirstAidLevel: "First aid level is required",
	ingest.FieldCPRLevel:      "CPR level is required",
	ingest.FieldPassFail:      "Pass/Fail is required",
	ingest.FieldCity:          "City is required",
	ingest.FieldProvince:      "Province is required",
	ingest.FieldPostalCode:    "Postal code is required",
	ingest.FieldIssueDate:     "Issue date is required",
	ingest.FieldNotes:         "Notes is required",
}

// Validator applies per-row required-field and format rules
type Validator struct {
	// StrictDates turns unparseable issue dates into row errors instead of
	// accepting the lenient today fallback applied upstream.
	StrictDates bool
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// Validate applies all rules to one entry and returns every failure. Rules
// never short-circuit: a row with two blank required fields yields two
// errors. Format checks only run against non-blank values.
func (v *Validator) Validate(entry *models.RosterEntry, selectedCourse *models.Course) []models.ValidationError {
	var errors []models.ValidationError
	row := entry.RowIndex

	optional := make(map[string]bool)
	if selectedCourse != nil {
		for _, f := range selectedCourse.OptionalFields {
			optional[strings.ToLower(strings.TrimSpace(f))] = true
		}
	}

	for _, field := range requiredFields {
		if optional[field] {
			continue
		}
		if strings.TrimSpace(v.fieldValue(entry, field)) == "" {
			errors = append(errors, models.ValidationError{
				RowIndex: row,
				Field:    field,
				Message:  requiredMessages[field],
				Kind:     models.ErrorRequired,
			})
		}
	}

	if entry.Email != "" && !emailRegex.MatchString(entry.Email) {
		errors = append(errors, models.ValidationError{
			RowIndex: row,
			Field:    ingest.FieldEmail,
			Message:  "Email must be a valid address",
			Kind:     models.ErrorFormat,
		})
	}

	if entry.Phone != "" && !phoneRegex.MatchString(entry.Phone) {
		errors = append(errors, models.ValidationError{
			RowIndex: row,
			Field:    ingest.FieldPhone,
			Message:  "Phone must match (XXX) XXX-XXXX",
			Kind:     models.ErrorFormat,
		})
	}

	if entry.CPRLevel != "" && !models.ValidCPRLevels[BaseCPRLevel(entry.CPRLevel)] {
		errors = append(errors, models.ValidationError{
			RowIndex: row,
			Field:    ingest.FieldCPRLevel,
			Message:  "CPR level must be one of: A, B, C, HCP, BLS",
			Kind:     models.ErrorInvalidEnum,
		})
	}

	if entry.FirstAidLevel != "" && !models.ValidFirstAidLevels[NormalizeFirstAidLevel(entry.FirstAidLevel)] {
		errors = append(errors, models.ValidationError{
			RowIndex: row,
			Field:    ingest.FieldFirstAidLevel,
			Message:  "First aid level must be one of: Emergency, Standard, Advanced",
			Kind:     models.ErrorInvalidEnum,
		})
	}

	if raw := strings.ToUpper(strings.TrimSpace(entry.AssessmentRaw)); raw != "" && raw != "PASS" && raw != "FAIL" {
		errors = append(errors, models.ValidationError{
			RowIndex: row,
			Field:    ingest.FieldPassFail,
			Message:  "Pass/Fail must be PASS or FAIL",
			Kind:     models.ErrorInvalidEnum,
		})
	}

	if v.StrictDates && entry.IssueDateRaw != "" && !entry.IssueDateParsed {
		errors = append(errors, models.ValidationError{
			RowIndex: row,
			Field:    ingest.FieldIssueDate,
			Message:  "Issue date could not be parsed",
			Kind:     models.ErrorFormat,
		})
	}

	if selectedCourse == nil {
		errors = append(errors, models.ValidationError{
			RowIndex: row,
			Field:    "course",
			Message:  "No course selected for this batch",
			Kind:     models.ErrorCourseMismatch,
		})
	}

	return errors
}

// fieldValue maps a canonical field name to the entry value it governs
func (v *Validator) fieldValue(entry *models.RosterEntry, field string) string {
	switch field {
	case ingest.FieldStudentName:
		return entry.StudentName
	case ingest.FieldEmail:
		return entry.Email
	case ingest.FieldPhone:
		return entry.Phone
	case ingest.FieldCompany:
		return entry.Company
	case ingest.FieldFirstAidLevel:
		return entry.FirstAidLevel
	case ingest.FieldCPRLevel:
		return entry.CPRLevel
	case ingest.FieldPassFail:
		return entry.AssessmentRaw
	case ingest.FieldCity:
		return entry.City
	case ingest.FieldProvince:
		return entry.Province
	case ingest.FieldPostalCode:
		return entry.PostalCode
	case ingest.FieldIssueDate:
		return entry.IssueDateRaw
	case ingest.FieldNotes:
		return entry.Notes
	}
	return ""
}
