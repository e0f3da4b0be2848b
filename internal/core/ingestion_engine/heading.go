package ingestion_engine

import (
	"strings"
	"unicode"
)

// maxHeadingLen bounds how long a line can be and still count as a heading.
const maxHeadingLen = 80

// structuralKeywords are heading openers common in reports and papers.
var structuralKeywords = []string{
	"introduction",
	"abstract",
	"conclusion",
	"conclusions",
	"references",
	"appendix",
	"acknowledgements",
	"overview",
	"summary",
	"background",
}

// connectives are small words allowed in lowercase inside a title-case heading.
var connectives = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "by": true,
	"for": true, "in": true, "of": true, "on": true, "or": true, "the": true,
	"to": true, "with": true,
}

// DetectHeading reports whether text looks like a section heading and, if so,
// returns the normalized heading. A heading is short, does not end in a
// sentence terminator, and is either fully upper-case, title-case, or starts
// with a structural keyword.
func DetectHeading(text string) (string, bool) {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return "", false
	}

	runes := []rune(normalized)
	if len(runes) > maxHeadingLen {
		return "", false
	}
	switch runes[len(runes)-1] {
	case '.', '!', '?', ',', ';', ':':
		return "", false
	}

	hasLetter := false
	for _, r := range runes {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return "", false
	}

	lower := strings.ToLower(normalized)
	for _, kw := range structuralKeywords {
		if strings.HasPrefix(lower, kw) {
			return normalized, true
		}
	}

	if normalized == strings.ToUpper(normalized) {
		return normalized, true
	}
	if isTitleCase(normalized) {
		return normalized, true
	}
	return "", false
}

// isTitleCase checks that every word opens with an upper-case letter, except
// for short connectives after the first word. Numbered headings ("2.1 Scope")
// pass because numeric prefixes are skipped.
func isTitleCase(s string) bool {
	words := strings.Fields(s)
	for i, w := range words {
		first := []rune(w)[0]
		if !unicode.IsLetter(first) {
			continue
		}
		if unicode.IsUpper(first) {
			continue
		}
		if i > 0 && connectives[strings.ToLower(w)] {
			continue
		}
		return false
	}
	return true
}
