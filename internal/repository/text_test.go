package repository

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%amz-1%", containsPattern("AMZ-1"))
	assert.Equal(t, `%100\%%`, containsPattern("100%"))
	assert.Equal(t, `%order\_no%`, containsPattern("order_no"))
	assert.Equal(t, `%a\\b%`, containsPattern(`a\b`))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 512))
	assert.Equal(t, "abc", truncateRunes("abcdef", 3))

	long := strings.Repeat("é", 600)
	got := truncateRunes(long, 512)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 512, utf8.RuneCountInString(got))

	exact := strings.Repeat("ü", 512)
	assert.Equal(t, exact, truncateRunes(exact, 512))
}
