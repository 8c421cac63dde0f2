package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/cert-roster-api/internal/models"
)

// DatePolicy controls what happens to issue dates that cannot be parsed.
type DatePolicy int

const (
	// DateFallbackToday silently substitutes today's date. This mirrors the
	// historical lenient behavior and is the default.
	DateFallbackToday DatePolicy = iota
	// DateStrict leaves the entry unparsed so validation can reject it.
	DateStrict
)

// LengthErrorMessage is attached to rows whose length cell is non-numeric.
const LengthErrorMessage = "Length must be a valid number"

// canonicalFields is used to split known columns from pass-through
// certification columns.
var canonicalFields = map[string]bool{
	FieldStudentName:     true,
	FieldEmail:           true,
	FieldPhone:           true,
	FieldCompany:         true,
	FieldCity:            true,
	FieldProvince:        true,
	FieldPostalCode:      true,
	FieldFirstAidLevel:   true,
	FieldCPRLevel:        true,
	FieldPassFail:        true,
	FieldIssueDate:       true,
	FieldExpiryDate:      true,
	FieldNotes:           true,
	FieldInstructorLevel: true,
	FieldLength:          true,
}

// dateLayouts are tried in order for non-serial date cells.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"2 January 2006",
}

// serialEpoch is the spreadsheet serial-date epoch (day 1 = 1899-12-31,
// with the historical off-by-two quirk folded in as day 0 = 1899-12-30).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Normalize converts a raw record into a RosterEntry. rowIndex is the
// 1-based position of the row in the source file. Returns nil for blank rows.
func Normalize(raw RawRecord, rowIndex int, policy DatePolicy) *models.RosterEntry {
	if raw.Blank {
		return nil
	}

	entry := &models.RosterEntry{
		RowIndex:    rowIndex,
		StudentName: raw.Fields[FieldStudentName],
		Email:       raw.Fields[FieldEmail],
		Phone:       raw.Fields[FieldPhone],
		Company:     raw.Fields[FieldCompany],
		City:        raw.Fields[FieldCity],
		Province:    raw.Fields[FieldProvince],
		PostalCode:  raw.Fields[FieldPostalCode],
		CPRLevel:    raw.Fields[FieldCPRLevel],
		Notes:       raw.Fields[FieldNotes],
		Extra:       make(map[string]string),
	}

	entry.FirstAidLevel, entry.InstructorLevel = splitInstructorLevel(raw.Fields[FieldFirstAidLevel])
	if lvl := raw.Fields[FieldInstructorLevel]; lvl != "" {
		entry.InstructorLevel = lvl
	}

	entry.AssessmentRaw = raw.Fields[FieldPassFail]
	entry.AssessmentStatus = parseAssessment(entry.AssessmentRaw)

	if length := raw.Fields[FieldLength]; length != "" {
		value, err := strconv.ParseFloat(length, 64)
		if err != nil {
			entry.AddErrors([]models.ValidationError{{
				RowIndex: rowIndex,
				Field:    FieldLength,
				Message:  LengthErrorMessage,
				Kind:     models.ErrorFormat,
			}})
		} else {
			entry.CourseLength = value
		}
	}

	entry.IssueDateRaw = raw.Fields[FieldIssueDate]
	if date, ok := ParseDate(entry.IssueDateRaw); ok {
		entry.IssueDate = date
		entry.IssueDateParsed = true
	} else if entry.IssueDateRaw != "" && policy == DateFallbackToday {
		entry.IssueDate = time.Now().Truncate(24 * time.Hour)
		entry.IssueDateParsed = true
	}

	if expiry := raw.Fields[FieldExpiryDate]; expiry != "" {
		if date, ok := ParseDate(expiry); ok {
			entry.ExpiryDate = &date
		}
	}

	// Unknown columns carry certification values for matching.
	for key, value := range raw.Fields {
		if !canonicalFields[key] && value != "" {
			entry.Extra[key] = value
		}
	}

	return entry
}

// ParseDate accepts spreadsheet-serial, ISO, and common free-text date forms.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// Spreadsheet serial: days since the 1899 epoch. Plausible serials for
	// issue dates fall well inside this range (1953..2135).
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial > 20000 && serial < 86000 {
			days := int(serial)
			return serialEpoch.AddDate(0, 0, days), true
		}
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// splitInstructorLevel extracts an embedded instructor level from a
// first-aid-level cell like "Standard First Aid Instructor".
func splitInstructorLevel(firstAid string) (level, instructor string) {
	trimmed := strings.TrimSpace(firstAid)
	lower := strings.ToLower(trimmed)
	if !strings.Contains(lower, "instructor") {
		return trimmed, ""
	}

	base := strings.TrimSpace(cutInsensitive(trimmed, "instructor"))
	base = strings.TrimSpace(cutInsensitive(base, "first aid"))
	return base, base
}

// cutInsensitive removes the first case-insensitive occurrence of sub from s.
func cutInsensitive(s, sub string) string {
	idx := strings.Index(strings.ToLower(s), strings.ToLower(sub))
	if idx < 0 {
		return s
	}
	return s[:idx] + s[idx+len(sub):]
}

func parseAssessment(s string) models.AssessmentStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PASS":
		return models.AssessmentPass
	case "FAIL":
		return models.AssessmentFail
	default:
		return models.AssessmentPending
	}
}
