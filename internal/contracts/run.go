package contracts

import (
	"time"
)

// RunState is the orchestration state of a pipeline run
type RunState string

const (
	StateIdle         RunState = "idle"
	StateExtracting   RunState = "extracting"
	StateTransforming RunState = "transforming"
	StateLoading      RunState = "loading"
	StateCompleted    RunState = "completed"
	StateAborted      RunState = "aborted"
)

// Terminal reports whether no further transitions are possible
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// StageOutcome records the result of one pipeline stage
type StageOutcome struct {
	Stage       string        `json:"stage"`
	Success     bool          `json:"success"`
	RecordCount int           `json:"record_count"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// PipelineRun is the report of one pipeline execution. It is created at
// orchestration start, mutated by each stage and finalized at the end.
// Its fields are populated on every path: a failed run still carries
// whatever metrics and counts were produced before the failure.
type PipelineRun struct {
	ID             string          `json:"id"`
	BaseCurrencies []string        `json:"base_currencies"`
	TargetCurrency string          `json:"target_currency"`
	TargetDate     time.Time       `json:"target_date"`
	State          RunState        `json:"state"`
	Stages         []StageOutcome  `json:"stages"`
	Metrics        *QualityMetrics `json:"quality_metrics,omitempty"`
	Load           *LoadReport     `json:"load_report,omitempty"`
	Success        bool            `json:"success"`
	Error          string          `json:"error,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
}

// RecordsProcessed returns the number of records that reached the store
func (r *PipelineRun) RecordsProcessed() int {
	if r.Load == nil {
		return 0
	}
	return r.Load.SuccessCount
}
