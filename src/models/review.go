package models

import "time"

// PeriodReview pairs the computed figures for one period with the filed
// return found for it, if any.
type PeriodReview struct {
	PeriodKey string       `json:"period_key"`
	Label     string       `json:"label"`
	Totals    PeriodTotals `json:"totals"`
	Declared  *Return      `json:"declared,omitempty"`
}

// ReviewResult is the complete output of one reconciliation run. The run ID is
// a content hash of the inputs, so re-running the pipeline on unchanged data
// yields the same ID and the same result.
type ReviewResult struct {
	RunID         string          `json:"run_id"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Cadence       string          `json:"cadence"`
	Basis         string          `json:"basis"`
	Summaries     []PeriodSummary `json:"summaries"`
	Periods       []PeriodReview  `json:"periods"`
	Discrepancies []Discrepancy   `json:"discrepancies"`
	Draft         DisclosureDraft `json:"draft"`

	// Transactions is the run's ledger snapshot after the date-range and
	// basis filters. The export renders its listings from this, never from
	// the full stored ledger. Kept out of the JSON response for size.
	Transactions []Transaction `json:"-"`
}
