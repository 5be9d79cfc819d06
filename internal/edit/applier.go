package edit

import (
	"strings"

	arcerrors "arc/internal/errors"
)

// NormalizeLineEndings converts CRLF to LF so literal matches behave the same
// across platforms.
func NormalizeLineEndings(content string) string {
	return strings.ReplaceAll(content, "\r\n", "\n")
}

// ApplyReplacement applies one replacement edit to in-memory content.
//
// It counts exact literal occurrences of old_string (not a regex), fails if
// none are found or the count does not equal the expected replacement count,
// and otherwise replaces all occurrences with new_string. The input content
// is expected to be line-ending normalized already.
func ApplyReplacement(path, content string, p SingleEditParams) (string, int, error) {
	oldString := NormalizeLineEndings(p.OldString)
	newString := NormalizeLineEndings(p.NewString)

	occurrences := strings.Count(content, oldString)
	if occurrences == 0 {
		return "", 0, &arcerrors.EditFailure{Path: path, Kind: arcerrors.EditNotFound}
	}
	if expected := p.Replacements(); occurrences != expected {
		return "", occurrences, &arcerrors.EditFailure{
			Path:     path,
			Kind:     arcerrors.EditOccurrenceMismatch,
			Found:    occurrences,
			Expected: expected,
		}
	}

	return strings.ReplaceAll(content, oldString, newString), occurrences, nil
}
