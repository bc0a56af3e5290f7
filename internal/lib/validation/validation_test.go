package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugTag(t *testing.T) {
	v := New()

	tests := []struct {
		slug  string
		valid bool
	}{
		{"customer-survey-2024", true},
		{"a", true},
		{"Upper-Case", false},
		{"with space", false},
		{"../escape", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := v.Var(tt.slug, "slug")
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestIsoDateTag(t *testing.T) {
	v := New()

	assert.NoError(t, v.Var("2024-02-29", "isodate"))
	assert.NoError(t, v.Var("2024-02-29T23:30:00-05:00", "isodate"))
	assert.Error(t, v.Var("29/02/2024", "isodate"))
	assert.Error(t, v.Var("2023-02-29", "isodate"))
}
