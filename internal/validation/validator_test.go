package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/cert-roster-api/internal/models"
)

func validEntry() *models.RosterEntry {
	return &models.RosterEntry{
		RowIndex:        1,
		StudentName:     "Jane Doe",
		Email:           "jane@example.com",
		Phone:           "(604) 555-0100",
		Company:         "Acme Safety",
		City:            "Vancouver",
		Province:        "BC",
		PostalCode:      "V5K 0A1",
		FirstAidLevel:   "Standard",
		CPRLevel:        "C",
		Notes:           "n/a",
		AssessmentRaw:   "PASS",
		IssueDateRaw:    "2024-03-01",
		IssueDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		IssueDateParsed: true,
	}
}

func testCourse() *models.Course {
	return &models.Course{
		ID:            "course-1",
		Name:          "Standard First Aid",
		FirstAidLevel: "Standard",
		CPRLevel:      "C",
		Active:        true,
	}
}

func TestValidateAcceptsCompleteRow(t *testing.T) {
	validator := NewValidator()
	if errs := validator.Validate(validEntry(), testCourse()); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*models.RosterEntry)
		wantErrors  int
		wantMessage string
	}{
		{
			name:        "blank student name",
			mutate:      func(e *models.RosterEntry) { e.StudentName = "" },
			wantErrors:  1,
			wantMessage: "Student name is required",
		},
		{
			name:        "whitespace-only name is not a valid absence",
			mutate:      func(e *models.RosterEntry) { e.StudentName = "   " },
			wantErrors:  1,
			wantMessage: "Student name is required",
		},
		{
			name: "blank name and blank email accumulate",
			mutate: func(e *models.RosterEntry) {
				e.StudentName = ""
				e.Email = ""
			},
			wantErrors: 2,
		},
		{
			name: "every required field blank",
			mutate: func(e *models.RosterEntry) {
				*e = models.RosterEntry{RowIndex: 1}
			},
			wantErrors: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			tt.mutate(entry)

			errs := NewValidator().Validate(entry, testCourse())
			if len(errs) != tt.wantErrors {
				t.Fatalf("got %d errors, want %d: %v", len(errs), tt.wantErrors, errs)
			}
			if tt.wantMessage != "" && errs[0].Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", errs[0].Message, tt.wantMessage)
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.RosterEntry)
		wantField string
		wantKind  models.ErrorKind
	}{
		{
			name:      "malformed email",
			mutate:    func(e *models.RosterEntry) { e.Email = "not-an-email" },
			wantField: "email",
			wantKind:  models.ErrorFormat,
		},
		{
			name:      "phone without area code parens",
			mutate:    func(e *models.RosterEntry) { e.Phone = "604-555-0100" },
			wantField: "phone",
			wantKind:  models.ErrorFormat,
		},
		{
			name:      "unknown CPR level",
			mutate:    func(e *models.RosterEntry) { e.CPRLevel = "D" },
			wantField: "cpr level",
			wantKind:  models.ErrorInvalidEnum,
		},
		{
			name:      "unknown first aid level",
			mutate:    func(e *models.RosterEntry) { e.FirstAidLevel = "Expert" },
			wantField: "first aid level",
			wantKind:  models.ErrorInvalidEnum,
		},
		{
			name:      "assessment neither pass nor fail",
			mutate:    func(e *models.RosterEntry) { e.AssessmentRaw = "MAYBE" },
			wantField: "pass/fail",
			wantKind:  models.ErrorInvalidEnum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			tt.mutate(entry)

			errs := NewValidator().Validate(entry, testCourse())
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", errs[0].Field, tt.wantField)
			}
			if errs[0].Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", errs[0].Kind, tt.wantKind)
			}
		})
	}
}

func TestValidateNormalizedEnums(t *testing.T) {
	// Month suffixes and AED phrasing variants are valid level spellings.
	for _, level := range []string{"BLS 24m", "bls", "C w/AED", "C & AED", " hcp "} {
		entry := validEntry()
		entry.CPRLevel = level
		if errs := NewValidator().Validate(entry, testCourse()); len(errs) != 0 {
			t.Errorf("CPR level %q should validate, got %v", level, errs)
		}
	}

	for _, level := range []string{"emergency", "Emergency First Aid", " STANDARD "} {
		entry := validEntry()
		entry.FirstAidLevel = level
		if errs := NewValidator().Validate(entry, testCourse()); len(errs) != 0 {
			t.Errorf("first aid level %q should validate, got %v", level, errs)
		}
	}
}

func TestValidateMissingCourse(t *testing.T) {
	errs := NewValidator().Validate(validEntry(), nil)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Kind != models.ErrorCourseMismatch {
		t.Errorf("kind = %q, want %q", errs[0].Kind, models.ErrorCourseMismatch)
	}
}

func TestValidateCourseOptionalFields(t *testing.T) {
	course := testCourse()
	course.OptionalFields = []string{"notes", "postal code"}

	entry := validEntry()
	entry.Notes = ""
	entry.PostalCode = ""

	if errs := NewValidator().Validate(entry, course); len(errs) != 0 {
		t.Errorf("relaxed fields should not be required, got %v", errs)
	}
}

func TestValidateStrictDates(t *testing.T) {
	entry := validEntry()
	entry.IssueDateRaw = "next tuesday"
	entry.IssueDateParsed = false

	validator := NewValidator()
	if errs := validator.Validate(entry, testCourse()); len(errs) != 0 {
		t.Errorf("lenient validator should accept the fallback, got %v", errs)
	}

	validator.StrictDates = true
	errs := validator.Validate(entry, testCourse())
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "Issue date") {
		t.Errorf("strict validator should reject unparseable dates, got %v", errs)
	}
}

func TestNormalizeCPRLevel(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"BLS 24m", "bls"},
		{"C w/AED", "C & AED"},
		{"  HCP ", "hcp"},
		{"A 36m", "a"},
	}

	for _, tt := range tests {
		if NormalizeCPRLevel(tt.a) != NormalizeCPRLevel(tt.b) {
			t.Errorf("%q and %q should normalize identically (%q vs %q)",
				tt.a, tt.b, NormalizeCPRLevel(tt.a), NormalizeCPRLevel(tt.b))
		}
	}
}

func TestNormalizeFirstAidLevel(t *testing.T) {
	if NormalizeFirstAidLevel("Emergency First Aid") != "emergency" {
		t.Errorf("got %q", NormalizeFirstAidLevel("Emergency First Aid"))
	}
	if NormalizeFirstAidLevel("  Standard  ") != "standard" {
		t.Errorf("got %q", NormalizeFirstAidLevel("  Standard  "))
	}
}
