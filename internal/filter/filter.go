// Package filter implements the keyword matching that decides whether a
// listing's title or description disqualifies it.
package filter

import "strings"

// Normalize lowercases and trims text so every keyword scan in the pipeline
// compares the same way.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// TitleExcluded scans text against terms case-insensitively and reports the
// first matching term. The order of terms is the tie-break: the first match
// wins and the scan short-circuits.
func TitleExcluded(text string, terms []string) (bool, string) {
	norm := Normalize(text)
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(norm, Normalize(term)) {
			return true, term
		}
	}
	return false, ""
}

// RequiredPresent reports whether every term in required is found in text.
// A multi-term set uses AND semantics: "hero 11" requires both "hero" and
// "11"-bearing terms to match, a subset is not enough.
func RequiredPresent(text string, required []string) bool {
	norm := Normalize(text)
	for _, term := range required {
		if term == "" {
			continue
		}
		if !strings.Contains(norm, Normalize(term)) {
			return false
		}
	}
	return true
}

// DescriptionExcluded is the same scan as TitleExcluded but intended for the
// separate, smaller defect/fraud term list. Placeholder descriptions always
// pass: absence of information is not evidence of a defect.
func DescriptionExcluded(text string, terms []string) (bool, string) {
	if PlaceholderDescription(text) {
		return false, ""
	}
	return TitleExcluded(text, terms)
}

var placeholders = []string{
	"no description available",
	"no description",
	"n/a",
	"-",
}

// PlaceholderDescription reports whether text is empty or one of the known
// "nothing here" placeholder strings.
func PlaceholderDescription(text string) bool {
	norm := Normalize(text)
	if norm == "" {
		return true
	}
	for _, p := range placeholders {
		if norm == p {
			return true
		}
	}
	return false
}
