package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisclosureSection is one entry of the qualifying disclosure draft, covering
// a single discrepancy.
type DisclosureSection struct {
	Kind                DiscrepancyKind `json:"kind"`
	PeriodKey           string          `json:"period_key"`
	Description         string          `json:"description"`
	SuggestedCorrection string          `json:"suggested_correction"`
}

// LiabilityEstimate approximates the exposure from the flagged mismatches:
// the sum of under-declared VAT plus statutory interest accrued daily since
// the end of the affected periods.
type LiabilityEstimate struct {
	Liability   decimal.Decimal `json:"liability"`
	Interest    decimal.Decimal `json:"interest"`
	DaysAccrued int             `json:"days_accrued"`
	Total       decimal.Decimal `json:"total"`
}

// DisclosureDraft is the structured qualifying-disclosure document assembled
// from the run's discrepancies. When there is nothing to disclose the draft
// says so explicitly and carries no sections; content is never fabricated.
type DisclosureDraft struct {
	NothingToDisclose bool                `json:"nothing_to_disclose"`
	GeneratedAt       time.Time           `json:"generated_at"`
	PeriodKeys        []string            `json:"period_keys,omitempty"`
	Sections          []DisclosureSection `json:"sections,omitempty"`
	Guidance          []string            `json:"guidance,omitempty"`
	Estimate          *LiabilityEstimate  `json:"estimate,omitempty"`
}
