package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Engine Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryEngine,
		Message:  "Cyclic dependency detected",
		Detail:   "An expression read itself, directly or through other expressions. Reactive graphs must be acyclic.",
		DocURL:   "https://ripple.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryEngine,
		Message:  "Node used after destroy",
		Detail:   "A value, expression, or observer was read or written after Destroy was called on it.",
		DocURL:   "https://ripple.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryEngine,
		Message:  "Flush pass budget exceeded",
		Detail:   "Observers kept writing values that re-invalidated other observers until the flush pass limit was hit. This usually indicates two observers feeding each other.",
		DocURL:   "https://ripple.dev/docs/errors/E003",
	},

	// ============================================
	// Protocol Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "The inbound frame is not a valid protocol envelope.",
		DocURL:   "https://ripple.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryProtocol,
		Message:  "Frame too large",
		Detail:   "The inbound frame exceeds the configured read limit.",
		DocURL:   "https://ripple.dev/docs/errors/E021",
	},
	"E022": {
		Category: CategoryProtocol,
		Message:  "Unknown cell",
		Detail:   "The write names a cell the session program never registered.",
		DocURL:   "https://ripple.dev/docs/errors/E022",
	},

	// ============================================
	// Config Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		DocURL:   "https://ripple.dev/docs/errors/E040",
	},
	"E041": {
		Category: CategoryConfig,
		Message:  "Configuration file invalid",
		DocURL:   "https://ripple.dev/docs/errors/E041",
	},
	"E042": {
		Category: CategoryConfig,
		Message:  "Configuration value out of range",
		DocURL:   "https://ripple.dev/docs/errors/E042",
	},

	// ============================================
	// Snapshot Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategorySnapshot,
		Message:  "Unknown snapshot backend",
		Detail:   "The configured snapshot backend is not one of: memory, sql, s3.",
		DocURL:   "https://ripple.dev/docs/errors/E060",
	},
	"E061": {
		Category: CategorySnapshot,
		Message:  "Snapshot store unavailable",
		Detail:   "The snapshot store could not be opened with the configured settings.",
		DocURL:   "https://ripple.dev/docs/errors/E061",
	},

	// ============================================
	// CLI Errors (E080-E099)
	// ============================================

	"E080": {
		Category: CategoryCLI,
		Message:  "Server failed to start",
		DocURL:   "https://ripple.dev/docs/errors/E080",
	},
}
