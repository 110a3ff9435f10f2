package revenue

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/username/vatreview/src/logger"
	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/security/validation"
	"github.com/username/vatreview/src/utils"
)

// RevenueParser implements the parsers.ReturnsParser interface for filed VAT
// return exports. Expected columns: a period identifier plus the declared
// figures (T1 sales VAT, T2 purchase VAT, and optionally the net).
type RevenueParser struct{}

// NewParser creates a new instance of the RevenueParser.
func NewParser() *RevenueParser {
	return &RevenueParser{}
}

var periodKeyRe = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

var headerAliases = map[string][]string{
	"period":   {"vat period", "period", "period key"},
	"sales":    {"t1", "sales vat", "vat on sales", "tax (eur)"},
	"purchase": {"t2", "purchase vat", "vat on purchases"},
	"net":      {"t3", "net vat", "payable"},
	"filed":    {"filed", "filed at", "filing date"},
}

func mapHeader(record []string) (map[string]int, bool) {
	cols := make(map[string]int)
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
	_, hasPeriod := cols["period"]
	_, hasSales := cols["sales"]
	return cols, hasPeriod && hasSales
}

// NormalizePeriodKey turns a period identifier into the canonical
// "YYYY-MM" form keyed on the period's first month. Accepts "2025-05",
// "2025/05", "May 2025" and "2025-5".
func NormalizePeriodKey(s string) (string, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return "", fmt.Errorf("empty period identifier")
	}
	cleaned = strings.ReplaceAll(cleaned, "/", "-")
	if m := periodKeyRe.FindStringSubmatch(cleaned); m != nil {
		return cleaned, nil
	}
	for _, layout := range []string{"2006-1", "2006-01", "Jan 2006", "January 2006", "2006 Jan"} {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format("2006-01"), nil
		}
	}
	return "", fmt.Errorf("unrecognized period identifier %q", s)
}

// Parse reads a filed-returns CSV and converts its rows into Return records.
// Duplicate period keys are a per-row error: the first filing wins, matching
// the invariant that a declared return is unique per period.
func (p *RevenueParser) Parse(file io.Reader) ([]models.Return, []models.MalformedRecordError, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("revenue parser: failed to read CSV records: %w", err)
	}

	var cols map[string]int
	headerRow := -1
	for i, record := range records {
		if m, ok := mapHeader(record); ok {
			cols = m
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, nil, fmt.Errorf("revenue parser: no recognisable header row found")
	}

	cell := func(record []string, field string) string {
		idx, ok := cols[field]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var (
		returns   []models.Return
		malformed []models.MalformedRecordError
	)
	seen := make(map[string]bool)
	for i, record := range records[headerRow+1:] {
		rowNum := headerRow + i + 2

		empty := true
		for _, c := range record {
			if strings.TrimSpace(c) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		if err := validation.ValidateStringNotEmpty(cell(record, "period"), "period"); err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "period", Reason: err.Error(),
			})
			continue
		}
		periodKey, err := NormalizePeriodKey(cell(record, "period"))
		if err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "period", Reason: err.Error(),
			})
			continue
		}
		if seen[periodKey] {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "period", Reason: fmt.Sprintf("duplicate return for period %s", periodKey),
			})
			continue
		}

		salesVAT, err := utils.ParseAmount(cell(record, "sales"))
		if err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "sales_vat", Reason: fmt.Sprintf("invalid amount %q", cell(record, "sales")),
			})
			continue
		}
		purchaseVAT, err := utils.ParseAmount(cell(record, "purchase"))
		if err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "purchase_vat", Reason: fmt.Sprintf("invalid amount %q", cell(record, "purchase")),
			})
			continue
		}
		netVAT, err := utils.ParseAmount(cell(record, "net"))
		if err != nil {
			malformed = append(malformed, models.MalformedRecordError{
				Row: rowNum, Field: "net_vat", Reason: fmt.Sprintf("invalid amount %q", cell(record, "net")),
			})
			continue
		}
		if netVAT.IsZero() {
			netVAT = salesVAT.Sub(purchaseVAT)
		}

		ret := models.Return{
			PeriodKey:   periodKey,
			SalesVAT:    salesVAT,
			PurchaseVAT: purchaseVAT,
			NetVAT:      netVAT,
		}
		if filed := strings.TrimSpace(cell(record, "filed")); filed != "" {
			if t, err := time.Parse(time.DateOnly, filed); err == nil {
				ret.FiledAt = t
			}
		}

		seen[periodKey] = true
		returns = append(returns, ret)
	}

	if len(malformed) > 0 {
		logger.L.Warn("Revenue parser skipped malformed rows", "count", len(malformed), "parsed", len(returns))
	}
	return returns, malformed, nil
}
