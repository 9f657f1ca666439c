package contracts

// Rule identifies a single validation rule
type Rule string

const (
	RuleSchema    Rule = "schema"    // required fields present with usable values
	RuleRange     Rule = "range"     // rate inside the plausibility band
	RuleFreshness Rule = "freshness" // observed_at not after fetched_at
	RulePair      Rule = "pair"      // base differs from target
)

// ValidationOutcome is the per-record classification produced by the
// validator. A record with no violations is valid. The record itself
// is never mutated.
type ValidationOutcome struct {
	Record     CleanRate `json:"record"`
	Violations []Rule    `json:"violations"`
}

// Valid reports whether the record passed every rule
func (o ValidationOutcome) Valid() bool {
	return len(o.Violations) == 0
}

// QualityMetrics aggregates data quality over one batch. Computed once
// per batch, always from the same batch that was attempted for load.
type QualityMetrics struct {
	RecordCount    int     `json:"record_count"`
	ValidCount     int     `json:"valid_count"`
	InvalidCount   int     `json:"invalid_count"`
	DuplicateCount int     `json:"duplicate_count"`
	DroppedCount   int     `json:"dropped_count"`
	Completeness   float64 `json:"completeness"`
	ValidityRate   float64 `json:"validity_rate"`
}

// LoadError records one failed row with a human-readable reason
type LoadError struct {
	Record PersistedRate `json:"record"`
	Reason string        `json:"reason"`
}

// LoadReport summarizes one load stage execution
type LoadReport struct {
	SuccessCount int         `json:"success_count"`
	ErrorCount   int         `json:"error_count"`
	ChunkCount   int         `json:"chunk_count"`
	Errors       []LoadError `json:"errors,omitempty"`
}
