package processors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/vatperiod"
)

// Thresholds are the business parameters of one reconciliation run. The
// reference time is part of the input so the engine stays a pure function of
// its arguments.
type Thresholds struct {
	UnpaidPurchaseFloor decimal.Decimal
	Tolerance           decimal.Decimal
	BadDebtAge          time.Duration
	ReferenceTime       time.Time
}

// ReturnLookup resolves a period key to the filed return for that period.
// Absence is a boolean, never an error: missing history is an expected
// business condition the engine turns into a discrepancy.
type ReturnLookup interface {
	Get(periodKey string) (models.Return, bool)
}

// severityEscalationFactor marks a finding high-severity once it exceeds the
// configured threshold tenfold.
var severityEscalationFactor = decimal.NewFromInt(10)

// ReconciliationEngine compares a period's extracted transactions against the
// filed return and the configured thresholds. It has no state and no side
// effects; the same inputs always produce the identical ordered output.
type ReconciliationEngine struct{}

func NewReconciliationEngine() *ReconciliationEngine { return &ReconciliationEngine{} }

// ComputeTotals sums the period's VAT figures: sales and purchase VAT, the
// net position, and VAT grouped by effective rate.
func (e *ReconciliationEngine) ComputeTotals(txs []models.Transaction) models.PeriodTotals {
	totals := models.PeriodTotals{VATByRate: make(map[string]decimal.Decimal)}
	for _, tx := range txs {
		totals.Gross = totals.Gross.Add(tx.Gross)
		totals.Net = totals.Net.Add(tx.Net)
		switch tx.Kind {
		case models.KindSale:
			totals.SalesVAT = totals.SalesVAT.Add(tx.VATAmount)
		case models.KindPurchase:
			totals.PurchaseVAT = totals.PurchaseVAT.Add(tx.VATAmount)
		}
		rateKey := tx.VATRate.String()
		totals.VATByRate[rateKey] = totals.VATByRate[rateKey].Add(tx.VATAmount)
	}
	totals.NetVAT = totals.SalesVAT.Sub(totals.PurchaseVAT)
	return totals
}

// Reconcile produces the period's discrepancies in a fixed, reproducible
// order: unpaid purchases first (date ascending), then bad-debt risks, then
// total mismatches (sales, purchase, net), then a missing return. A missing
// return suppresses mismatch checks since there is nothing to compare against.
func (e *ReconciliationEngine) Reconcile(period vatperiod.Period, txs []models.Transaction, lookup ReturnLookup, th Thresholds) []models.Discrepancy {
	var out []models.Discrepancy

	// Transactions arrive date-ordered from the extractor; iterate in order
	// so per-kind date ordering holds without re-sorting.
	for _, tx := range txs {
		if tx.Kind != models.KindPurchase || tx.Paid {
			continue
		}
		if tx.Gross.Cmp(th.UnpaidPurchaseFloor) <= 0 {
			continue
		}
		severity := models.SeverityMedium
		if tx.Gross.Cmp(th.UnpaidPurchaseFloor.Mul(severityEscalationFactor)) >= 0 {
			severity = models.SeverityHigh
		}
		out = append(out, models.Discrepancy{
			Kind:           models.DiscrepancyUnpaidPurchase,
			Severity:       severity,
			PeriodKey:      period.Key,
			TransactionIDs: []string{tx.HashID},
			Actual:         tx.Gross,
			Delta:          tx.VATAmount,
			Date:           tx.Date,
			Description: fmt.Sprintf("purchase of %s from %s (invoice %s) is recorded but not paid",
				tx.Gross.StringFixed(2), tx.Counterparty, tx.InvoiceNumber),
		})
	}

	if th.BadDebtAge > 0 && !th.ReferenceTime.IsZero() {
		cutoff := th.ReferenceTime.Add(-th.BadDebtAge)
		for _, tx := range txs {
			if tx.Paid || !tx.Date.Before(cutoff) {
				continue
			}
			out = append(out, models.Discrepancy{
				Kind:           models.DiscrepancyBadDebtRisk,
				Severity:       models.SeverityHigh,
				PeriodKey:      period.Key,
				TransactionIDs: []string{tx.HashID},
				Actual:         tx.Gross,
				Delta:          tx.VATAmount,
				Date:           tx.Date,
				Description: fmt.Sprintf("%s of %s from %s unpaid for more than %d days, bad debt relief rules may apply",
					tx.Kind, tx.Gross.StringFixed(2), tx.Counterparty, int(th.BadDebtAge.Hours()/24)),
			})
		}
	}

	if len(txs) == 0 {
		return out
	}

	declared, found := lookup.Get(period.Key)
	if !found {
		out = append(out, models.Discrepancy{
			Kind:      models.DiscrepancyMissingReturn,
			Severity:  models.SeverityHigh,
			PeriodKey: period.Key,
			Date:      period.End,
			Description: fmt.Sprintf("period %s has %d transactions but no filed VAT return",
				period.Label(), len(txs)),
		})
		return out
	}

	totals := e.ComputeTotals(txs)
	figures := []struct {
		field    string
		declared decimal.Decimal
		computed decimal.Decimal
	}{
		{"sales_vat", declared.SalesVAT, totals.SalesVAT},
		{"purchase_vat", declared.PurchaseVAT, totals.PurchaseVAT},
		{"net_vat", declared.NetVAT, totals.NetVAT},
	}
	var mismatches []models.Discrepancy
	for _, f := range figures {
		delta := f.computed.Sub(f.declared)
		if delta.Abs().Cmp(th.Tolerance) <= 0 {
			continue
		}
		severity := models.SeverityMedium
		if delta.Abs().Cmp(th.Tolerance.Mul(severityEscalationFactor)) >= 0 {
			severity = models.SeverityHigh
		}
		mismatches = append(mismatches, models.Discrepancy{
			Kind:      models.DiscrepancyTotalMismatch,
			Severity:  severity,
			PeriodKey: period.Key,
			Field:     f.field,
			Expected:  f.declared,
			Actual:    f.computed,
			Delta:     delta,
			Date:      period.End,
			Description: fmt.Sprintf("computed %s %s differs from declared %s by %s for period %s",
				f.field, f.computed.StringFixed(2), f.declared.StringFixed(2), delta.StringFixed(2), period.Label()),
		})
	}
	out = append(out, mismatches...)

	return out
}

// KindRank fixes the cross-period emission order of discrepancy kinds.
func KindRank(k models.DiscrepancyKind) int {
	switch k {
	case models.DiscrepancyUnpaidPurchase:
		return 0
	case models.DiscrepancyBadDebtRisk:
		return 1
	case models.DiscrepancyTotalMismatch:
		return 2
	case models.DiscrepancyMissingReturn:
		return 3
	default:
		return 4
	}
}
