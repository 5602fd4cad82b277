package logger

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so directory
// operations can be aggregated and queried by field.
const (
	// Request correlation
	KeyRequestID = "request_id" // inbound API request ID
	KeyTraceID   = "trace_id"   // OpenTelemetry trace ID

	// Directory operations
	KeyOperation = "operation" // directory operation name: CreateUser, AddGroupMember, etc.
	KeyUserID    = "user_id"   // directory object ID of a user
	KeyUsername  = "username"  // user principal name
	KeyGroupID   = "group_id"  // directory object ID of a group
	KeyGroup     = "group"     // group display name
	KeyStatus    = "status"    // HTTP status returned by the directory service
	KeyAttempt   = "attempt"   // reconciliation attempt number

	// Timing
	KeyDurationMs = "duration_ms" // operation duration in milliseconds

	// Errors
	KeyError = "error" // error message
)
