package errors

import (
	"maps"
	"slices"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://vango.dev/reactive/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (R001-R099)
	// ============================================

	"R001": {
		Category: CategoryRuntime,
		Message:  "Tracking misuse",
		Detail:   "An operation broke the graph's rules, for example a signal or collection was written while a computed was evaluating. Computeds must be pure.",
		DocURL:   docBase + "R001",
	},
	"R002": {
		Category: CategoryRuntime,
		Message:  "Cyclic effect",
		Detail:   "An effect kept re-triggering itself within one flush and was stopped after exceeding the re-run budget.",
		DocURL:   docBase + "R002",
	},
	"R003": {
		Category: CategoryWatch,
		Message:  "Watch getter failed",
		Detail:   "The getter of a watch panicked. The watch skipped this change and stays subscribed to its previous dependencies.",
		DocURL:   docBase + "R003",
	},
	"R004": {
		Category: CategoryWatch,
		Message:  "Callback failed",
		Detail:   "A watch callback or collection observer panicked. Other observers still ran.",
		DocURL:   docBase + "R004",
	},
	"R005": {
		Category: CategoryRuntime,
		Message:  "Effect failed",
		Detail:   "An effect panicked while running. Unrelated effects in the same flush still ran.",
		DocURL:   docBase + "R005",
	},
	"R006": {
		Category: CategoryRuntime,
		Message:  "Computed depends on itself",
		Detail:   "A computed read its own value, directly or through other computeds.",
		DocURL:   docBase + "R006",
	},
	"R007": {
		Category: CategoryRuntime,
		Message:  "Node disposed",
		Detail:   "A disposed signal, effect or owner was used.",
		DocURL:   docBase + "R007",
	},
	"R008": {
		Category: CategoryRuntime,
		Message:  "Computed has no setter",
		Detail:   "A computed member of a record or annotated struct cannot be assigned.",
		DocURL:   docBase + "R008",
	},
	"R010": {
		Category: CategoryAnnotation,
		Message:  "Invalid annotation",
		Detail:   "MakeObservable could not bind a field: the tag names an unknown kind, a missing method, or a field of the wrong type.",
		DocURL:   docBase + "R010",
	},
	"R011": {
		Category: CategoryAnnotation,
		Message:  "Unknown record member",
		Detail:   "The record has no member with this key.",
		DocURL:   docBase + "R011",
	},

	// ============================================
	// Config Errors (C001-C099)
	// ============================================

	"C001": {
		Category: CategoryConfig,
		Message:  "reactive.json not found",
		Detail:   "No reactive.json was found in the current directory or its parents.",
		DocURL:   docBase + "C001",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Invalid reactive.json",
		Detail:   "The configuration file is not valid JSON.",
		DocURL:   docBase + "C002",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or has the wrong format.",
		DocURL:   docBase + "C003",
	},

	// ============================================
	// Export Errors (X001-X099)
	// ============================================

	"X001": {
		Category: CategoryExport,
		Message:  "Snapshot encoding failed",
		Detail:   "The materialized state contains values that cannot be encoded as JSON.",
		DocURL:   docBase + "X001",
	},
	"X002": {
		Category: CategoryExport,
		Message:  "Snapshot upload failed",
		Detail:   "The snapshot could not be stored. Check the bucket name, region and credentials.",
		DocURL:   docBase + "X002",
	},
	"X003": {
		Category: CategoryExport,
		Message:  "Snapshot too large",
		Detail:   "The encoded snapshot exceeds the configured size limit.",
		DocURL:   docBase + "X003",
	},
	"X004": {
		Category: CategoryExport,
		Message:  "Snapshot not found",
		Detail:   "No snapshot is stored under this key.",
		DocURL:   docBase + "X004",
	},
	"X005": {
		Category: CategoryExport,
		Message:  "Missing S3 credentials",
		Detail:   "Set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY, or configure snapshot.s3 in reactive.json.",
		DocURL:   docBase + "X005",
	},

	// ============================================
	// CLI Errors (L001-L099)
	// ============================================

	"L001": {
		Category: CategoryCLI,
		Message:  "Unknown benchmark profile",
		Detail:   "Use one of the profiles listed by 'reactive bench --help'.",
		DocURL:   docBase + "L001",
	},
	"L002": {
		Category: CategoryCLI,
		Message:  "Inspector failed to start",
		Detail:   "The inspector could not listen on the configured address. Another process may be using the port.",
		DocURL:   docBase + "L002",
	},
	"L003": {
		Category: CategoryCLI,
		Message:  "Command failed",
		Detail:   "The command stopped with an unexpected error.",
		DocURL:   docBase + "L003",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	return slices.Sorted(maps.Keys(registry))
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
