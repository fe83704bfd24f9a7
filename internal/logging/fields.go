package logging

// Standard attribute keys shared across components so log output stays
// greppable regardless of which component emitted a record.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldStep      = "step"
	FieldAssetID   = "asset_id"
	FieldJobID     = "job_id"
	FieldCycleID   = "cycle_id"
	FieldErrorHint = "error_hint"
)
