package logging

// Standard attribute keys shared by every component.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"
	FieldRunID     = "run_id"
	FieldSessionID = "session_id"
	FieldRoot      = "root"
	FieldSource    = "source"
	FieldTarget    = "destination"
	FieldKind      = "error_kind"
)
