package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authkit/pkg/sanitizer"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "John.Doe@Example.COM", "john.doe@example.com"},
		{"trims whitespace", "  user@example.com \n", "user@example.com"},
		{"consolidates dots", "john..doe@example.com", "john.doe@example.com"},
		{"trims leading dot", ".john@example.com", "john@example.com"},
		{"no at sign left alone", "not-an-email", "not-an-email"},
		{"multiple at signs left alone", "a@b@c", "a@b@c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizer.NormalizeEmail(tt.input))
		})
	}
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "j***@example.com", sanitizer.MaskEmail("john@example.com"))
	assert.Equal(t, "a***@x.com", sanitizer.MaskEmail("a@x.com"))
	assert.Equal(t, "not-an-email", sanitizer.MaskEmail("not-an-email"))
	assert.Equal(t, "", sanitizer.MaskEmail(""))
}
