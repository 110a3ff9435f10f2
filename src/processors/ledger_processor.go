package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/security/validation"
	"github.com/username/vatreview/src/vatperiod"
)

// Statuses that mean an invoice is approved but the money has not moved yet.
// Everything else (Paid, Reconciled, ...) counts as settled, mirroring how the
// Xero report flags Unpaid/Unreceived.
var unpaidStatuses = map[string]bool{
	"approved":          true,
	"awaiting payment":  true,
	"awaiting approval": true,
}

// LedgerProcessor turns canonical transactions into enriched, immutable ledger
// transactions: sanitized text, derived paid flag, effective VAT rate and
// period assignment.
type LedgerProcessor struct {
	knownRates []decimal.Decimal
}

// NewLedgerProcessor creates a processor that snaps derived VAT rates to the
// given known rate set. An empty set keeps the raw computed rate.
func NewLedgerProcessor(knownRates []decimal.Decimal) *LedgerProcessor {
	return &LedgerProcessor{knownRates: knownRates}
}

// Process enriches canonical transactions. The cadence determines the initial
// period assignment; reviews with a different cadence re-bucket at run time.
func (p *LedgerProcessor) Process(txs []models.CanonicalTransaction, cadence vatperiod.Cadence) []models.Transaction {
	var processed []models.Transaction
	for _, tx := range txs {
		counterparty := validation.SanitizeText(validation.StripUnprintable(tx.Counterparty))
		status := validation.SanitizeText(validation.StripUnprintable(tx.Status))

		processed = append(processed, models.Transaction{
			HashID:        generateHash(tx),
			Date:          tx.InvoiceDate,
			InvoiceNumber: strings.TrimSpace(tx.InvoiceNumber),
			Counterparty:  counterparty,
			Kind:          tx.Kind,
			Status:        status,
			Paid:          !unpaidStatuses[strings.ToLower(strings.TrimSpace(status))],
			Gross:         tx.Gross,
			VATAmount:     tx.VATAmount,
			Net:           tx.Net,
			VATRate:       p.deriveRate(tx),
			Currency:      tx.Currency,
			Source:        tx.Source,
			PeriodKey:     vatperiod.Of(tx.InvoiceDate, cadence).Key,
		})
	}
	return processed
}

// deriveRate computes the effective VAT percentage from the row's amounts and
// snaps it to the nearest known rate when one is close enough. Rows without a
// net amount get a zero rate.
func (p *LedgerProcessor) deriveRate(tx models.CanonicalTransaction) decimal.Decimal {
	if tx.Net.IsZero() {
		return decimal.Zero
	}
	computed := tx.VATAmount.Div(tx.Net).Mul(decimal.NewFromInt(100)).Round(1)

	if len(p.knownRates) == 0 {
		return computed
	}
	// Snap to a known rate within half a percentage point.
	snapWindow := decimal.NewFromFloat(0.5)
	best := computed
	bestDiff := decimal.Decimal{}
	found := false
	for _, rate := range p.knownRates {
		diff := computed.Sub(rate).Abs()
		if diff.Cmp(snapWindow) <= 0 && (!found || diff.Cmp(bestDiff) < 0) {
			best = rate
			bestDiff = diff
			found = true
		}
	}
	return best
}

// generateHash creates a stable identifier for the transaction based on the
// source row content, used for duplicate detection and discrepancy references.
func generateHash(tx models.CanonicalTransaction) string {
	input := tx.Source + "|" + tx.InvoiceDate.Format("2006-01-02") + "|" + tx.InvoiceNumber + "|" + tx.RawText
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
