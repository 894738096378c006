// Package suggest relays visitor suggestions for new universities to a
// Discord channel, rejecting ones that already exist in the list.
package suggest

import (
	"strings"
	"unicode"

	"collegedecision/internal/model"
)

var fillerWords = map[string]struct{}{
	"university": {},
	"college":    {},
	"institute":  {},
	"of":         {},
	"technology": {},
}

// NormalizeName lowercases s, drops filler words and strips everything that
// is not a letter or digit. "Harvard University" becomes "harvard".
func NormalizeName(s string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if _, filler := fillerWords[word]; filler {
			continue
		}
		b.WriteString(word)
	}
	return b.String()
}

// IsDuplicate reports whether suggestion names a record already in list.
// Normalized names match when either contains the other. Domains match
// exactly, either whole or without the top-level label, so "mit.edu" and
// "MIT" both match mit.edu while "edu" matches nothing. Empty normalized
// strings never match.
func IsDuplicate(suggestion string, list []model.University) bool {
	s := NormalizeName(suggestion)
	if s == "" {
		return false
	}
	host := NormalizeName(hostPart(suggestion))
	for _, u := range list {
		if name := NormalizeName(u.Name); name != "" {
			if strings.Contains(name, s) || strings.Contains(s, name) {
				return true
			}
		}
		full, base := domainKeys(u.Domain)
		if host != "" && (host == full || host == base) {
			return true
		}
	}
	return false
}

// hostPart strips a URL scheme, a leading www. and trailing slashes.
func hostPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimRight(s, "/")
}

// domainKeys returns the normalized domain and the normalized domain
// without its top-level label ("mitedu", "mit").
func domainKeys(domain string) (full, base string) {
	domain = hostPart(domain)
	full = NormalizeName(domain)
	if i := strings.LastIndex(domain, "."); i > 0 {
		base = NormalizeName(domain[:i])
	}
	return full, base
}
