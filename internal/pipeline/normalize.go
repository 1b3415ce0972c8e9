package pipeline

import (
	"regexp"
	"strings"
)

var (
	urlPattern      = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	mentionPattern  = regexp.MustCompile(`@\w+`)
	nonWordPattern  = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spaceRunPattern = regexp.MustCompile(`\s+`)
)

// Normalize cleans free social-media text for scoring: URL tokens and
// @mention tokens are dropped entirely, hashtag markers are stripped while
// the tag text is kept, everything that is neither letter, digit nor
// whitespace is removed, whitespace runs collapse to a single space and the
// result is trimmed and lowercased. Normalize is pure and idempotent.
func Normalize(raw string) string {
	text := urlPattern.ReplaceAllString(raw, " ")
	text = mentionPattern.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "#", "")
	text = nonWordPattern.ReplaceAllString(text, "")
	text = spaceRunPattern.ReplaceAllString(text, " ")
	return strings.ToLower(strings.TrimSpace(text))
}
