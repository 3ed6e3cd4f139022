package logging

// Standard field names for structured log output. Batch jobs and the online
// query paths share them so a run summary can be joined with serving logs.
const (
	FieldRunID      = "run_id"
	FieldJob        = "job"
	FieldUserID     = "user_id"
	FieldCategoryID = "category_id"
	FieldCategory   = "category"
	FieldArtifact   = "artifact"
	FieldPath       = "path"
	FieldBackend    = "backend"
	FieldReason     = "reason"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldSource     = "source"
	FieldVersion    = "schema_version"
	FieldZScore     = "z_score"
)
