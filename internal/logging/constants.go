package logging

// Standardized field names for structured logging.
const (
	FieldFile       = "file_path"
	FieldLine       = "line"
	FieldRecordKey  = "record_key"
	FieldAccount    = "account"
	FieldCategory   = "category"
	FieldRule       = "rule"
	FieldStrategy   = "strategy"
	FieldReason     = "reason"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldCandidates = "candidates"
	FieldBackend    = "backend"
	FieldOutputFile = "output_file"
	FieldSchedule   = "schedule"
)
