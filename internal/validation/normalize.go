package validation

import (
	"regexp"
	"strings"
)

var (
	monthSuffixRegex = regexp.MustCompile(`\s*\d+\s*m$`)
	spaceRegex       = regexp.MustCompile(`\s+`)
)

// NormalizeCPRLevel canonicalizes a CPR level for comparison: trims,
// lower-cases, collapses whitespace, strips month suffixes ("BLS 24m"),
// and unifies AED phrasing ("C w/AED" -> "c & aed").
func NormalizeCPRLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = monthSuffixRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "w/aed", "& aed")
	s = strings.ReplaceAll(s, "w/ aed", "& aed")
	s = strings.ReplaceAll(s, "with aed", "& aed")
	s = spaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// BaseCPRLevel strips any AED suffix after normalization, leaving the bare
// level used for enum membership checks.
func BaseCPRLevel(s string) string {
	s = NormalizeCPRLevel(s)
	if idx := strings.Index(s, "& aed"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// NormalizeFirstAidLevel canonicalizes a first-aid level: trims,
// lower-cases, collapses whitespace, and strips a trailing "first aid"
// qualifier ("Emergency First Aid" -> "emergency").
func NormalizeFirstAidLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = spaceRegex.ReplaceAllString(s, " ")
	s = strings.TrimSuffix(s, " first aid")
	return strings.TrimSpace(s)
}
