package domain_test

import (
	"testing"

	"course-advisor/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw   string
		want  domain.Category
		valid bool
	}{
		{"document_related", domain.CategoryDocumentRelated, true},
		{"  General_Knowledge\n", domain.CategoryGeneralKnowledge, true},
		{"DOCUMENT_RELATED", domain.CategoryDocumentRelated, true},
		{"maybe", domain.Category("maybe"), false},
		{"", domain.Category(""), false},
		{"unknown", domain.CategoryUnknown, false},
	}

	for _, tt := range tests {
		got, ok := domain.ParseCategory(tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
		assert.Equal(t, tt.valid, ok, "raw=%q", tt.raw)
	}
}
