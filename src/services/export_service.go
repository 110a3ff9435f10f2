package services

import (
	"fmt"
	"time"

	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/security/validation"
	"github.com/xuri/excelize/v2"
)

const (
	sheetListings      = "Purchases_Listings"
	sheetSummary       = "VAT_Summary"
	sheetDiscrepancies = "Discrepancies"
	sheetDisclosure    = "Disclosure"
)

type exportServiceImpl struct{}

// NewExportService creates the spreadsheet export adapter. It renders a
// review result into listings, summary, discrepancy and disclosure sheets;
// the listings come from the run's own transaction snapshot so the workbook
// reflects the same date-range and basis filters as the review.
func NewExportService() ExportService {
	return &exportServiceImpl{}
}

// cellText guards every free-text cell against spreadsheet formula injection.
func cellText(s string) string {
	return validation.SanitizeForFormulaInjection(s)
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	return nil
}

func (s *exportServiceImpl) BuildWorkbook(result *models.ReviewResult) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetListings)

	if err := s.writeListings(f, result.Transactions); err != nil {
		return nil, fmt.Errorf("writing %s: %w", sheetListings, err)
	}
	if err := s.writeSummary(f, result); err != nil {
		return nil, fmt.Errorf("writing %s: %w", sheetSummary, err)
	}
	if err := s.writeDiscrepancies(f, result); err != nil {
		return nil, fmt.Errorf("writing %s: %w", sheetDiscrepancies, err)
	}
	if err := s.writeDisclosure(f, result); err != nil {
		return nil, fmt.Errorf("writing %s: %w", sheetDisclosure, err)
	}

	if index, err := f.GetSheetIndex(sheetListings); err == nil {
		f.SetActiveSheet(index)
	}
	return f, nil
}

func (s *exportServiceImpl) writeListings(f *excelize.File, txs []models.Transaction) error {
	headers := []string{"Date", "Invoice Number", "Counterparty", "Kind", "Status", "Paid", "Net (EUR)", "Tax (EUR)", "Gross (EUR)", "VAT Rate %", "VAT Period"}
	if err := writeHeader(f, sheetListings, headers); err != nil {
		return err
	}

	for i, tx := range txs {
		row := i + 2
		paid := "No"
		if tx.Paid {
			paid = "Yes"
		}
		values := []interface{}{
			tx.Date.Format(time.DateOnly),
			cellText(tx.InvoiceNumber),
			cellText(tx.Counterparty),
			string(tx.Kind),
			cellText(tx.Status),
			paid,
			tx.Net.StringFixed(2),
			tx.VATAmount.StringFixed(2),
			tx.Gross.StringFixed(2),
			tx.VATRate.String(),
			tx.PeriodKey,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetListings, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *exportServiceImpl) writeSummary(f *excelize.File, result *models.ReviewResult) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}
	headers := []string{"VAT Period", "Gross (EUR)", "Tax (EUR)", "Net (EUR)", "Transactions", "Unpaid/Unreceived", "Bad Debt Risk", "Declared Sales VAT", "Declared Purchase VAT", "Declared Net VAT"}
	if err := writeHeader(f, sheetSummary, headers); err != nil {
		return err
	}

	declaredByKey := make(map[string]*models.Return)
	for _, p := range result.Periods {
		declaredByKey[p.PeriodKey] = p.Declared
	}

	for i, sum := range result.Summaries {
		row := i + 2
		values := []interface{}{
			sum.Label,
			sum.Gross.StringFixed(2),
			sum.VATAmount.StringFixed(2),
			sum.Net.StringFixed(2),
			sum.TransactionCount,
			sum.UnpaidCount,
			sum.BadDebtCount,
		}
		if declared := declaredByKey[sum.PeriodKey]; declared != nil {
			values = append(values,
				declared.SalesVAT.StringFixed(2),
				declared.PurchaseVAT.StringFixed(2),
				declared.NetVAT.StringFixed(2))
		} else {
			values = append(values, "not filed", "not filed", "not filed")
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetSummary, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *exportServiceImpl) writeDiscrepancies(f *excelize.File, result *models.ReviewResult) error {
	if _, err := f.NewSheet(sheetDiscrepancies); err != nil {
		return err
	}
	headers := []string{"Kind", "Severity", "VAT Period", "Field", "Declared", "Computed", "Delta", "Date", "Description"}
	if err := writeHeader(f, sheetDiscrepancies, headers); err != nil {
		return err
	}

	for i, disc := range result.Discrepancies {
		row := i + 2
		values := []interface{}{
			string(disc.Kind),
			string(disc.Severity),
			disc.PeriodKey,
			disc.Field,
			disc.Expected.StringFixed(2),
			disc.Actual.StringFixed(2),
			disc.Delta.StringFixed(2),
			disc.Date.Format(time.DateOnly),
			cellText(disc.Description),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetDiscrepancies, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *exportServiceImpl) writeDisclosure(f *excelize.File, result *models.ReviewResult) error {
	if _, err := f.NewSheet(sheetDisclosure); err != nil {
		return err
	}

	draft := result.Draft
	if draft.NothingToDisclose {
		return f.SetCellValue(sheetDisclosure, "A1", "No discrepancies found. Nothing to disclose for the reviewed periods.")
	}

	headers := []string{"Kind", "VAT Period", "Description", "Suggested Correction"}
	if err := writeHeader(f, sheetDisclosure, headers); err != nil {
		return err
	}

	row := 2
	for _, section := range draft.Sections {
		values := []interface{}{
			string(section.Kind),
			section.PeriodKey,
			cellText(section.Description),
			cellText(section.SuggestedCorrection),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetDisclosure, cell, v); err != nil {
				return err
			}
		}
		row++
	}

	row++ // blank separator line
	if est := draft.Estimate; est != nil {
		lines := [][]interface{}{
			{"Estimated liability", est.Liability.StringFixed(2)},
			{"Estimated interest", est.Interest.StringFixed(2)},
			{"Days accrued", est.DaysAccrued},
			{"Estimated total", est.Total.StringFixed(2)},
		}
		for _, line := range lines {
			for col, v := range line {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheetDisclosure, cell, v); err != nil {
					return err
				}
			}
			row++
		}
		row++
	}

	for _, guidance := range draft.Guidance {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetDisclosure, cell, guidance); err != nil {
			return err
		}
		row++
	}
	return nil
}
