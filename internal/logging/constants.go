package logging

// Standard field names, so log lines can be filtered consistently.
const (
	FieldBank      = "bank"
	FieldFormat    = "format"
	FieldSchemaID  = "schema_id"
	FieldField     = "field"
	FieldValue     = "value"
	FieldReason    = "reason"
	FieldColumn    = "column"
	FieldMode      = "mode"
	FieldAction    = "action"
	FieldCount     = "count"
	FieldFile      = "file_path"
	FieldBackend   = "backend"
	FieldDelimiter = "delimiter"
	FieldRow       = "row"
	FieldComponent = "component"
)
