package models

import "time"

// SkipReason codes for events excluded from allocation.
type SkipReason string

const (
	SkipNegativePeople SkipReason = "NEGATIVE_PEOPLE_AFFECTED"
	SkipEmptyRecord    SkipReason = "EMPTY_RECORD"
)

// WarnUnknownSeverity marks events whose tier was unrecognized and defaulted
// to Low. The event still participates in allocation.
const WarnUnknownSeverity = "UNKNOWN_SEVERITY_DEFAULTED_LOW"

// Allocation is the outcome for one (event, resource) pair.
// 0 <= Allocated <= Requested and FulfillmentRate is in [0,1].
type Allocation struct {
	Requested       int64   `json:"requested"`
	Allocated       int64   `json:"allocated"`
	FulfillmentRate float64 `json:"fulfillment_rate"`
}

// EventResult is the per-event slice of a batch report.
type EventResult struct {
	Event       DisasterEvent               `json:"event"`
	Allocations map[ResourceKind]Allocation `json:"allocations"`
	// OverallRate is the demand-weighted mean fulfillment across kinds.
	OverallRate float64  `json:"overall_rate"`
	Warnings    []string `json:"warnings,omitempty"`
}

type SkippedEvent struct {
	ID     string     `json:"id"`
	Reason SkipReason `json:"reason"`
}

// Summary aggregates a batch the way operators read it: how much of each
// resource went out, and how well each severity tier was served.
type Summary struct {
	TotalEvents               int                      `json:"total_events"`
	TotalPeopleAffected       int64                    `json:"total_people_affected"`
	Utilization               map[ResourceKind]float64 `json:"utilization"`
	MeanFulfillmentBySeverity map[Severity]float64     `json:"mean_fulfillment_by_severity"`
	Remaining                 ResourcePool             `json:"remaining"`
}

// BatchResult is the full report for one allocation run. Results preserve
// input order; Skipped holds events excluded by validation.
type BatchResult struct {
	ID      string         `json:"id"`
	RunAt   time.Time      `json:"run_at"`
	Results []EventResult  `json:"results"`
	Skipped []SkippedEvent `json:"skipped"`
	Summary Summary        `json:"summary"`
}
