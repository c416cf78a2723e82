package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod  = "method"
	AttrPath    = "path"
	AttrStatus  = "status"
	AttrOutcome = "outcome"
)

// Outcome values.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeCached  = "cached"
	OutcomeChanged = "changed"
)
