package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes the two sides of the ledger.
type TransactionKind string

const (
	KindPurchase TransactionKind = "purchase"
	KindSale     TransactionKind = "sale"
)

// CanonicalTransaction is the unified, intermediate representation of a ledger
// row. Each parser is responsible for populating as many of these fields as
// possible directly from the source file, including the date coercion and the
// decimal normalization.
type CanonicalTransaction struct {
	Source        string          `json:"source"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	InvoiceNumber string          `json:"invoice_number"`
	Counterparty  string          `json:"counterparty"`
	Kind          TransactionKind `json:"kind"`
	Status        string          `json:"status"` // raw status text from the source file
	Gross         decimal.Decimal `json:"gross"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	Net           decimal.Decimal `json:"net"`
	Currency      string          `json:"currency"`
	RawText       string          `json:"raw_text"`
}

// Transaction is a ledger transaction after enrichment: sanitized text fields,
// derived paid flag, effective VAT rate and period assignment. Immutable once
// ingested.
type Transaction struct {
	ID            int64           `json:"id,omitempty"` // Database primary key
	HashID        string          `json:"hash_id"`      // Content hash for duplicate detection and stable references
	Date          time.Time       `json:"date"`
	InvoiceNumber string          `json:"invoice_number"`
	Counterparty  string          `json:"counterparty"`
	Kind          TransactionKind `json:"kind"`
	Status        string          `json:"status"`
	Paid          bool            `json:"paid"`
	Gross         decimal.Decimal `json:"gross"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	Net           decimal.Decimal `json:"net"`
	VATRate       decimal.Decimal `json:"vat_rate"` // percent, derived from vat/net when not supplied
	Currency      string          `json:"currency"`
	Source        string          `json:"source"`
	PeriodKey     string          `json:"period_key"`
}

// Return is a previously filed VAT declaration for a single period.
// Historical record, read-only input; unique per period key.
type Return struct {
	ID          int64           `json:"id,omitempty"`
	PeriodKey   string          `json:"period_key"`
	SalesVAT    decimal.Decimal `json:"sales_vat"`
	PurchaseVAT decimal.Decimal `json:"purchase_vat"`
	NetVAT      decimal.Decimal `json:"net_vat"`
	FiledAt     time.Time       `json:"filed_at,omitempty"`
}

// PeriodTotals are the VAT figures computed from the ledger for one period.
type PeriodTotals struct {
	Gross       decimal.Decimal            `json:"gross"`
	Net         decimal.Decimal            `json:"net"`
	SalesVAT    decimal.Decimal            `json:"sales_vat"`
	PurchaseVAT decimal.Decimal            `json:"purchase_vat"`
	NetVAT      decimal.Decimal            `json:"net_vat"` // sales VAT minus deductible purchase VAT
	VATByRate   map[string]decimal.Decimal `json:"vat_by_rate"`
}

// PeriodSummary is a per-period rollup of the ledger, shown to the user and
// exported in the VAT_Summary sheet.
type PeriodSummary struct {
	PeriodKey        string          `json:"period_key"`
	Label            string          `json:"label"`
	Start            time.Time       `json:"start"`
	End              time.Time       `json:"end"`
	Gross            decimal.Decimal `json:"gross"`
	VATAmount        decimal.Decimal `json:"vat_amount"`
	Net              decimal.Decimal `json:"net"`
	TransactionCount int             `json:"transaction_count"`
	UnpaidCount      int             `json:"unpaid_count"`
	BadDebtCount     int             `json:"bad_debt_count"`
}
