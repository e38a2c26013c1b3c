// Package pathenv manages the current user's PATH environment value.
//
// The value is a shared, human-edited resource, so every mutation is a
// fresh read-normalize-compare-write cycle; nothing is cached between
// calls. Two entries are considered the same when their normalized forms
// match, even if their literal text differs in quoting, slashes, trailing
// separator, case, or use of the %LOCALAPPDATA% token.
package pathenv

import (
	"os"
	"strings"
)

const (
	// Delimiter separates PATH entries in the stored value.
	Delimiter = ";"

	localAppDataToken = "%LOCALAPPDATA%"
)

// SplitEntries splits a stored PATH value into its ordered entries,
// dropping empty segments.
func SplitEntries(value string) []string {
	var out []string
	for _, e := range strings.Split(value, Delimiter) {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// JoinEntries rebuilds a stored PATH value from its entries.
func JoinEntries(entries []string) string {
	return strings.Join(entries, Delimiter)
}

// NormalizeEntry canonicalizes a PATH entry for equality comparison:
// surrounding whitespace and quotes are trimmed, forward slashes become
// backslashes, one trailing separator is stripped (unless the entry is a
// bare drive root), a %LOCALAPPDATA% token is expanded to the current
// environment value, and the result is lowercased.
func NormalizeEntry(entry string) string {
	return normalizeEntry(entry, os.Getenv("LOCALAPPDATA"))
}

func normalizeEntry(entry, localAppData string) string {
	out := strings.TrimSpace(entry)
	out = strings.Trim(out, `"`)
	out = strings.TrimSpace(out)
	out = strings.ReplaceAll(out, "/", `\`)

	if len(out) > 3 && strings.HasSuffix(out, `\`) {
		out = out[:len(out)-1]
	}

	if localAppData != "" {
		out = replaceFold(out, localAppDataToken, localAppData)
	}

	return strings.ToLower(out)
}

// entriesContain reports whether entries already holds dir under
// normalized equality.
func entriesContain(entries []string, dir, localAppData string) bool {
	norm := normalizeEntry(dir, localAppData)
	for _, e := range entries {
		if normalizeEntry(e, localAppData) == norm {
			return true
		}
	}
	return false
}

// appendEntry returns entries with dir appended, or unchanged when an
// equivalent entry is already present.
func appendEntry(entries []string, dir, localAppData string) ([]string, bool) {
	if entriesContain(entries, dir, localAppData) {
		return entries, false
	}
	return append(entries, dir), true
}

// dropEntry returns entries without every element equivalent to dir,
// preserving order and reporting whether anything was removed.
func dropEntry(entries []string, dir, localAppData string) ([]string, bool) {
	norm := normalizeEntry(dir, localAppData)
	out := make([]string, 0, len(entries))
	removed := false
	for _, e := range entries {
		if normalizeEntry(e, localAppData) == norm {
			removed = true
			continue
		}
		out = append(out, e)
	}
	return out, removed
}

// replaceFold replaces every case-insensitive occurrence of needle in s.
func replaceFold(s, needle, replacement string) string {
	lower := strings.ToLower(s)
	needleLower := strings.ToLower(needle)
	if !strings.Contains(lower, needleLower) {
		return s
	}

	var b strings.Builder
	i := 0
	for {
		pos := strings.Index(lower[i:], needleLower)
		if pos < 0 {
			break
		}
		abs := i + pos
		b.WriteString(s[i:abs])
		b.WriteString(replacement)
		i = abs + len(needle)
	}
	b.WriteString(s[i:])
	return b.String()
}
