package util

import (
	"regexp"
	"strings"
	"unicode"
)

// ExtractMentions extracts @username mentions from text content
// Returns a slice of unique usernames (lowercase, without @ symbol)
func ExtractMentions(content string) []string {
	var mentions []string
	words := strings.Fields(content)
	seen := make(map[string]bool)

	for _, word := range words {
		if strings.HasPrefix(word, "@") && len(word) > 1 {
			username := strings.TrimPrefix(word, "@")
			username = strings.TrimRight(username, ".,!?;:")
			username = strings.ToLower(username)

			if !seen[username] && IsValidUsername(username) {
				seen[username] = true
				mentions = append(mentions, username)
			}
		}
	}
	return mentions
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins alphanumeric runs with '-'
func Slugify(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}

// UsernameBase derives a handle prefix from a display name: letters and digits only,
// lowercased, at most 15 characters. Falls back to "user".
func UsernameBase(fullName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(fullName) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
		if b.Len() >= 15 {
			break
		}
	}
	if b.Len() < 3 {
		return "user"
	}
	return b.String()
}
