package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldConstantsAreDistinct(t *testing.T) {
	fields := []string{
		FieldFile, FieldMimeType, FieldParser, FieldDraftID, FieldCategory,
		FieldStatus, FieldReason, FieldOperation, FieldError, FieldDuration,
		FieldCount, FieldDelimiter, FieldLine, FieldOutputFile,
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		assert.NotEmpty(t, f)
		assert.False(t, seen[f], "duplicate field name %q", f)
		seen[f] = true
	}
}
