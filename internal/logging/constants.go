package logging

// Standardized field names for structured logging across the import pipeline.
const (
	FieldFile       = "file_name"
	FieldMimeType   = "mime_type"
	FieldParser     = "parser"
	FieldDraftID    = "draft_id"
	FieldCategory   = "category_id"
	FieldStatus     = "status"
	FieldReason     = "reason"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldDelimiter  = "delimiter"
	FieldLine       = "line"
	FieldOutputFile = "output_file"
)
