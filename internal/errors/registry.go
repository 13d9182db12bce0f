package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

var (
	// registry maps error codes to their templates.
	registry = map[string]ErrorTemplate{
		// ============================================
		// Scope and binding errors (F001-F009)
		// ============================================

		"F001": {
			Category:   CategoryScope,
			Message:    "No active scope",
			Suggestion: "Activate the store with Provide (or Run) and pass the returned context down to the consumer",
		},
		"F002": {
			Category:   CategoryBinding,
			Message:    "Stale binding",
			Suggestion: "Create a new binding inside an active scope instead of reusing one after Close",
		},

		// ============================================
		// Partial update errors (F010-F019)
		// ============================================

		"F010": {
			Category:   CategoryPartial,
			Message:    "State is not a struct",
			Suggestion: "Field-name updates need a struct state; use NewField for other shapes",
		},
		"F011": {
			Category:   CategoryPartial,
			Message:    "Unknown field",
			Suggestion: "Use the Go field name, its json tag or its fastctx tag",
		},
		"F012": {
			Category:   CategoryPartial,
			Message:    "Field type mismatch",
			Suggestion: "Pass a value assignable or convertible to the field type",
		},

		// ============================================
		// Config errors (F050-F059)
		// ============================================

		"F050": {
			Category:   CategoryConfig,
			Message:    "Invalid configuration",
			Suggestion: "Check the FASTCTX_* environment variables and .env files",
		},
	}
)

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
