package matching

import (
	"github.com/cert-roster-api/internal/models"
	"github.com/cert-roster-api/internal/validation"
)

// Scoring weights for the partial match pass. First-aid level agreement
// dominates, then CPR level, then course length.
const (
	scoreFirstAid = 3
	scoreCPR      = 2
	scoreLength   = 1
)

// Matcher finds the best course offering for each roster row
type Matcher struct {
	// Default is the batch's default course, used as the last fallback.
	Default *models.Course
	// Selected is the operator's explicit course choice for the batch, if any.
	Selected *models.Course
}

// Match finds the best course for one entry. Returns nil for entries that
// already carry validation errors and when no active courses exist at all.
// The comparison normalization is identical on both sides of every check.
func (m *Matcher) Match(entry *models.RosterEntry, active []models.Course) *models.CourseMatch {
	if entry == nil || entry.HasError {
		return nil
	}
	if len(active) == 0 {
		return nil
	}

	entryFA := validation.NormalizeFirstAidLevel(entry.FirstAidLevel)
	entryCPR := validation.NormalizeCPRLevel(entry.CPRLevel)

	// 1. Exact: first aid, CPR, and length all agree.
	for i := range active {
		c := &active[i]
		if entryFA != "" && entryFA == validation.NormalizeFirstAidLevel(c.FirstAidLevel) &&
			entryCPR == validation.NormalizeCPRLevel(c.CPRLevel) &&
			entry.CourseLength != 0 && entry.CourseLength == c.LengthHours {
			return newMatch(c, models.MatchExact)
		}
	}

	// 2. Exact ignoring length.
	for i := range active {
		c := &active[i]
		if entryFA != "" && entryFA == validation.NormalizeFirstAidLevel(c.FirstAidLevel) &&
			entryCPR == validation.NormalizeCPRLevel(c.CPRLevel) {
			return newMatch(c, models.MatchExact)
		}
	}

	// 3. Certification values carried in unrecognized columns.
	if match := m.matchCertificationValue(entry, active); match != nil {
		return match
	}

	// 4. Scored partial match; ties go to the earliest course in the
	// active list.
	if match := m.matchPartial(entryFA, entryCPR, entry.CourseLength, active); match != nil {
		return match
	}

	// Instructor rows match instructor courses before any fallback.
	if entry.InstructorLevel != "" {
		if match := m.matchInstructor(entry, active); match != nil {
			return match
		}
	}

	// 5. Operator override: a compatible (or level-blank) row takes the
	// selected course; a row whose levels contradict it is a mismatch the
	// operator must resolve before submission.
	if m.Selected != nil {
		if m.conflicts(entryFA, entryCPR) {
			return newMatch(m.Selected, models.MatchMismatch)
		}
		return newMatch(m.Selected, models.MatchManual)
	}

	// 6. Default course, or else the first active course.
	if m.Default != nil {
		return newMatch(m.Default, models.MatchDefault)
	}
	return newMatch(&active[0], models.MatchDefault)
}

// matchCertificationValue compares pass-through column values against each
// course's declared certification values.
func (m *Matcher) matchCertificationValue(entry *models.RosterEntry, active []models.Course) *models.CourseMatch {
	if len(entry.Extra) == 0 {
		return nil
	}
	for i := range active {
		c := &active[i]
		for _, cert := range c.Certifications {
			certNorm := validation.NormalizeCPRLevel(cert)
			for _, value := range entry.Extra {
				if validation.NormalizeCPRLevel(value) == certNorm {
					return newMatch(c, models.MatchCertificationValue)
				}
			}
		}
	}
	return nil
}

func (m *Matcher) matchPartial(entryFA, entryCPR string, length float64, active []models.Course) *models.CourseMatch {
	bestScore := 0
	var best *models.Course
	for i := range active {
		c := &active[i]
		score := 0
		if entryFA != "" && entryFA == validation.NormalizeFirstAidLevel(c.FirstAidLevel) {
			score += scoreFirstAid
		}
		if entryCPR != "" && entryCPR == validation.NormalizeCPRLevel(c.CPRLevel) {
			score += scoreCPR
		}
		if length != 0 && length == c.LengthHours {
			score += scoreLength
		}
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return newMatch(best, models.MatchPartial)
}

// matchInstructor pairs instructor rows with instructor courses: level
// equality wins, otherwise the first instructor course is a fallback.
func (m *Matcher) matchInstructor(entry *models.RosterEntry, active []models.Course) *models.CourseMatch {
	level := validation.NormalizeFirstAidLevel(entry.InstructorLevel)
	var first *models.Course
	for i := range active {
		c := &active[i]
		if !c.IsInstructorCourse() {
			continue
		}
		if first == nil {
			first = c
		}
		if level == validation.NormalizeFirstAidLevel(c.InstructorLevel) {
			return newMatch(c, models.MatchInstructor)
		}
	}
	if first != nil {
		return newMatch(first, models.MatchInstructorFallback)
	}
	return nil
}

// conflicts reports whether non-blank entry levels contradict the selected course
func (m *Matcher) conflicts(entryFA, entryCPR string) bool {
	if entryFA != "" && entryFA != validation.NormalizeFirstAidLevel(m.Selected.FirstAidLevel) {
		return true
	}
	if entryCPR != "" && entryCPR != validation.NormalizeCPRLevel(m.Selected.CPRLevel) {
		return true
	}
	return false
}

func newMatch(c *models.Course, t models.MatchType) *models.CourseMatch {
	certs := make([]string, len(c.Certifications))
	copy(certs, c.Certifications)
	return &models.CourseMatch{
		CourseID:         c.ID,
		CourseName:       c.Name,
		MatchType:        t,
		ExpirationMonths: c.ExpirationMonths,
		Certifications:   certs,
	}
}
