package translate

import (
	"fmt"
	"strings"

	"vprepair/internal/domain"
)

const failurePrefix = "[UNTRANSLATED "

// WrapFailed builds the stored failure marker for text that could not be
// translated from source. The original text is kept verbatim after the tag.
func WrapFailed(source domain.Language, text string) string {
	return fmt.Sprintf("%s%s] %s", failurePrefix, source, text)
}

func IsFailureMarker(s string) bool {
	if !strings.HasPrefix(s, failurePrefix) {
		return false
	}
	return strings.Contains(s[len(failurePrefix):], "] ")
}

// Unwrap returns the original text and language held by a failure marker.
func Unwrap(s string) (string, domain.Language, bool) {
	if !IsFailureMarker(s) {
		return s, "", false
	}
	rest := s[len(failurePrefix):]
	i := strings.Index(rest, "] ")
	return rest[i+2:], domain.Language(rest[:i]), true
}
