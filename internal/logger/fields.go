package logger

// Standard field keys for structured logging. Use these consistently so the
// kernel's startup and shutdown logs stay queryable.
const (
	// Lifecycle
	KeyFeature = "feature" // feature name a lifecycle message refers to
	KeyPhase   = "phase"   // kernel phase name
	KeyReason  = "reason"  // failure reason for fatal messages

	// Generic
	KeyError    = "error"       // error value
	KeyDuration = "duration_ms" // elapsed time in milliseconds
	KeyCount    = "count"       // generic counter
	KeyName     = "name"        // generic resource name
	KeyPath     = "path"        // filesystem path
	KeyAddress  = "address"     // listen address
)
