package sitegen

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugifyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Portfolio", "my-portfolio"},
		{"  Coffee & Cake!  ", "coffee-cake"},
		{"already-slugged", "already-slugged"},
		{"snake_case_name", "snake-case-name"},
		{"数字123", "123"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SlugifyName(tt.in), "input %q", tt.in)
	}
}

func TestRandomSubdomainShape(t *testing.T) {
	re := regexp.MustCompile(`^[a-z]+-[a-z]+-\d{4}$`)
	for i := 0; i < 20; i++ {
		sub := RandomSubdomain()
		assert.Regexp(t, re, sub)
	}
}
