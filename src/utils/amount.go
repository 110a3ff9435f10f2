package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

func normalizeDecimalString(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, "\"")
	cleaned = strings.ReplaceAll(cleaned, "€", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	// Thousands separators: "1,234.56" keeps the dot, "1.234,56" keeps the comma.
	if strings.Contains(cleaned, ",") && strings.Contains(cleaned, ".") {
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	return cleaned
}

// ParseAmount converts a spreadsheet money cell into a decimal: currency
// symbols and thousands separators are stripped, parenthesized amounts are
// negative, and an empty cell is zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := normalizeDecimalString(s)
	if cleaned == "" {
		return decimal.Zero, nil
	}
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.Trim(cleaned, "()")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
