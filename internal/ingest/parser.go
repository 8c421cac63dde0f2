package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// RawRecord is one spreadsheet row keyed by header text. Keys for known
// columns are already folded to canonical field names; unknown columns keep
// their original (trimmed) header so certification values can be extracted
// from them later.
type RawRecord struct {
	Fields map[string]string
	// Blank reports that every cell in the row was empty after trimming.
	Blank bool
}

// Canonical field names produced by the header alias table.
const (
	FieldStudentName     = "student name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldCompany         = "company"
	FieldCity            = "city"
	FieldProvince        = "province"
	FieldPostalCode      = "postal code"
	FieldFirstAidLevel   = "first aid level"
	FieldCPRLevel        = "cpr level"
	FieldPassFail        = "pass/fail"
	FieldIssueDate       = "issue date"
	FieldExpiryDate      = "expiry date"
	FieldNotes           = "notes"
	FieldInstructorLevel = "instructor level"
	FieldLength          = "length"
)

// headerAliases folds known column-name variants onto canonical fields.
// Comparison is against the lowercased, trimmed header text.
var headerAliases = map[string]string{
	"student name":     FieldStudentName,
	"name":             FieldStudentName,
	"student":          FieldStudentName,
	"full name":        FieldStudentName,
	"email":            FieldEmail,
	"email address":    FieldEmail,
	"e-mail":           FieldEmail,
	"phone":            FieldPhone,
	"phone number":     FieldPhone,
	"telephone":        FieldPhone,
	"company":          FieldCompany,
	"organization":     FieldCompany,
	"employer":         FieldCompany,
	"city":             FieldCity,
	"province":         FieldProvince,
	"state/province":   FieldProvince,
	"postal code":      FieldPostalCode,
	"postal":           FieldPostalCode,
	"zip":              FieldPostalCode,
	"zip code":         FieldPostalCode,
	"first aid level":  FieldFirstAidLevel,
	"first aid":        FieldFirstAidLevel,
	"fa level":         FieldFirstAidLevel,
	"cpr level":        FieldCPRLevel,
	"cpr":              FieldCPRLevel,
	"pass/fail":        FieldPassFail,
	"pass fail":        FieldPassFail,
	"result":           FieldPassFail,
	"issue date":       FieldIssueDate,
	"date issued":      FieldIssueDate,
	"course date":      FieldIssueDate,
	"expiry date":      FieldExpiryDate,
	"expiration date":  FieldExpiryDate,
	"notes":            FieldNotes,
	"comments":         FieldNotes,
	"instructor level": FieldInstructorLevel,
	"length":           FieldLength,
	"course length":    FieldLength,
	"hours":            FieldLength,
}

// Parse reads a tabular spreadsheet (row 1 = headers) into an ordered
// sequence of raw records, 1:1 with source rows. Blank rows are kept in the
// sequence (marked Blank) so row indexes stay stable for error reporting.
func Parse(r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are tolerated, missing cells read as empty

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := headerAliases[key]; ok {
			keys[i] = canonical
		} else {
			keys[i] = strings.TrimSpace(h)
		}
	}

	var records []RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+1, err)
		}

		rec := RawRecord{Fields: make(map[string]string, len(keys)), Blank: true}
		for i, cell := range row {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			value := strings.TrimSpace(cell)
			if value != "" {
				rec.Blank = false
			}
			rec.Fields[keys[i]] = value
		}
		records = append(records, rec)
	}

	return records, nil
}
