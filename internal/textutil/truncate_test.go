package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"shorter than limit", "abc", 5, "abc"},
		{"exact limit", "abcde", 5, "abcde"},
		{"cut ascii", "abcdef", 3, "abc"},
		{"cut multibyte", "héllo wörld", 7, "héllo w"},
		{"zero limit", "abc", 0, "abc"},
		{"empty", "", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.limit))
		})
	}
}

func TestTruncate_CountsRunesNotBytes(t *testing.T) {
	t.Parallel()

	in := strings.Repeat("日本", 4000)
	out := Truncate(in, 5000)

	assert.Equal(t, 5000, utf8.RuneCountInString(out))
	assert.True(t, utf8.ValidString(out))
}
