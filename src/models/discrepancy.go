package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscrepancyKind classifies a detected inconsistency between the ledger and
// the filed returns.
type DiscrepancyKind string

const (
	DiscrepancyUnpaidPurchase DiscrepancyKind = "unpaid_purchase"
	DiscrepancyBadDebtRisk    DiscrepancyKind = "bad_debt_risk"
	DiscrepancyTotalMismatch  DiscrepancyKind = "total_mismatch"
	DiscrepancyMissingReturn  DiscrepancyKind = "missing_return"
	DiscrepancyOther          DiscrepancyKind = "other"
)

// Severity grades how urgently a discrepancy needs attention.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Discrepancy is a single flagged inconsistency produced by the reconciliation
// engine for one run. Transient: never persisted, only referenced by the
// disclosure draft and the export. TransactionIDs hold the hash IDs of the
// ledger rows involved, so a discrepancy never points at data outside the run.
type Discrepancy struct {
	Kind           DiscrepancyKind `json:"kind"`
	Severity       Severity        `json:"severity"`
	PeriodKey      string          `json:"period_key"`
	TransactionIDs []string        `json:"transaction_ids,omitempty"`
	Field          string          `json:"field,omitempty"` // which declared figure mismatched: sales_vat, purchase_vat, net_vat
	Expected       decimal.Decimal `json:"expected"`        // declared figure (zero when not applicable)
	Actual         decimal.Decimal `json:"actual"`          // computed figure
	Delta          decimal.Decimal `json:"delta"`
	Date           time.Time       `json:"date"` // transaction date, or period end for period-level findings
	Description    string          `json:"description"`
}
