package services

import (
	"fmt"
	"strings"
)

// Slugify lowercases title and keeps letters and digits, joining words with
// single dashes.
func Slugify(title string) string {
	var result strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingDash && result.Len() > 0 {
				result.WriteByte('-')
			}
			pendingDash = false
			result.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '.' || r == '/':
			pendingDash = true
		}
	}
	return result.String()
}

// BuildProjectURL constructs a project page URL from base URL and slug
func BuildProjectURL(baseURL, slug string) string {
	if baseURL == "" || slug == "" {
		return ""
	}
	return fmt.Sprintf("%s/projects/%s", strings.TrimSuffix(baseURL, "/"), slug)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
