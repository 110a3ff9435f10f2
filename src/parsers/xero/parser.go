package xero

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/vatreview/src/logger"
	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/security/validation"
	"github.com/username/vatreview/src/utils"
)

// XeroParser implements the parsers.LedgerParser interface for Xero invoice
// summary exports (e.g. the Payable Invoice Summary report).
type XeroParser struct{}

// NewParser creates a new instance of the XeroParser.
func NewParser() *XeroParser {
	return &XeroParser{}
}

// Header names as they appear in Xero report exports, lowercased for lookup.
// The report prepends a few title rows before the real header; findHeader
// scans for the row that carries the invoice date column.
var headerAliases = map[string][]string{
	"date":         {"invoice date", "date"},
	"number":       {"invoice number", "number", "reference"},
	"counterparty": {"contact", "from", "to", "supplier", "customer"},
	"status":       {"status"},
	"gross":        {"gross (eur)", "gross"},
	"tax":          {"tax (eur)", "tax", "vat"},
	"net":          {"net (eur)", "net"},
	"type":         {"type"},
}

type columnMap map[string]int

func mapHeader(record []string) (columnMap, bool) {
	cols := make(columnMap)
	for i, cell := range record {
		name := strings.ToLower(strings.TrimSpace(cell))
		for field, aliases := range headerAliases {
			for _, alias := range aliases {
				if name == alias {
					if _, taken := cols[field]; !taken {
						cols[field] = i
					}
				}
			}
		}
	}
	// date and gross are the minimum to make sense of a row
	_, hasDate := cols["date"]
	_, hasGross := cols["gross"]
	return cols, hasDate && hasGross
}

// isTotalRow reports whether a row is one of the report's "Total" footer rows,
// which must not be ingested as transactions.
func isTotalRow(record []string) bool {
	for _, cell := range record {
		if strings.Contains(strings.ToLower(cell), "total") {
			return true
		}
	}
	return false
}

func isEmptyRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Parse reads a Xero CSV export and converts its rows into canonical
// transactions. The kind argument tells the parser which side of the ledger
// the report covers when the file has no Type column.
func (p *XeroParser) Parse(file io.Reader, kind models.TransactionKind) ([]models.CanonicalTransaction, []models.MalformedRecordError, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Xero preamble rows have fewer fields

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("xero parser: failed to read CSV records: %w", err)
	}

	// Scan past the report title rows for the header.
	var cols columnMap
	headerRow := -1
	for i, record := range records {
		if m, ok := mapHeader(record); ok {
			cols = m
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, nil, fmt.Errorf("xero parser: no recognisable header row found")
	}

	cell := func(record []string, field string) string {
		idx, ok := cols[field]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var (
		txs       []models.CanonicalTransaction
		malformed []models.MalformedRecordError
	)
	for i, record := range records[headerRow+1:] {
		rowNum := headerRow + i + 2 // 1-based, as a spreadsheet user would count

		if isEmptyRow(record) || isTotalRow(record) {
			continue
		}

		date, err := utils.ParseFlexibleDate(cell(record, "date"))
		if err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "invoice_date", Reason: err.Error(),
			})
			continue
		}

		gross, err := utils.ParseAmount(cell(record, "gross"))
		if err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "gross", Reason: fmt.Sprintf("invalid amount %q", cell(record, "gross")),
			})
			continue
		}
		vat, err := utils.ParseAmount(cell(record, "tax"))
		if err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "tax", Reason: fmt.Sprintf("invalid amount %q", cell(record, "tax")),
			})
			continue
		}
		net, err := utils.ParseAmount(cell(record, "net"))
		if err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "net", Reason: fmt.Sprintf("invalid amount %q", cell(record, "net")),
			})
			continue
		}
		if net.IsZero() && !gross.IsZero() {
			net = gross.Sub(vat)
		}

		counterparty := strings.TrimSpace(cell(record, "counterparty"))
		if err := validation.ValidateStringMaxLength(counterparty, validation.MaxCounterpartyLength, "counterparty"); err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "counterparty", Reason: err.Error(),
			})
			continue
		}
		invoiceNumber := strings.TrimSpace(cell(record, "number"))
		if err := validation.ValidateStringMaxLength(invoiceNumber, validation.MaxInvoiceNumberLength, "invoice_number"); err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "invoice_number", Reason: err.Error(),
			})
			continue
		}
		status := strings.TrimSpace(cell(record, "status"))
		if err := validation.ValidateStringMaxLength(status, validation.MaxStatusLength, "status"); err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "status", Reason: err.Error(),
			})
			continue
		}

		rowKind := kind
		if typeCell := strings.ToLower(strings.TrimSpace(cell(record, "type"))); typeCell != "" {
			switch {
			case strings.Contains(typeCell, "payable"), strings.Contains(typeCell, "bill"), strings.Contains(typeCell, "purchase"):
				rowKind = models.KindPurchase
			case strings.Contains(typeCell, "receivable"), strings.Contains(typeCell, "invoice"), strings.Contains(typeCell, "sale"):
				rowKind = models.KindSale
			}
		}

		txs = append(txs, models.CanonicalTransaction{
			Source:        "xero",
			InvoiceDate:   date,
			InvoiceNumber: invoiceNumber,
			Counterparty:  counterparty,
			Kind:          rowKind,
			Status:        status,
			Gross:         gross,
			VATAmount:     vat,
			Net:           net,
			Currency:      "EUR",
			RawText:       strings.Join(record, ","),
		})
	}

	if len(malformed) > 0 {
		logger.L.Warn("Xero parser skipped malformed rows", "count", len(malformed), "parsed", len(txs))
	}
	return txs, malformed, nil
}
