package utils

import "strings"

// MaskSecret replaces every character but the last four with '*'.  Values
// of four characters or fewer are fully masked.
func MaskSecret(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}
