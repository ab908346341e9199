package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lowercase LIKE operand matching s anywhere.
// Wildcards typed by the user match literally under MySQL's default
// backslash escape.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// truncateRunes caps s at n characters without splitting a UTF-8 sequence.
// VARCHAR lengths are counted in characters, not bytes.
func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
