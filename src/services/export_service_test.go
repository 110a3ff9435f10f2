package services_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/services"
)

func TestBuildWorkbookSheets(t *testing.T) {
	svc := services.NewExportService()

	ref := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	result := &models.ReviewResult{
		RunID:       "abc123",
		GeneratedAt: ref,
		Cadence:     "bimonthly",
		Basis:       "accrual",
		Summaries: []models.PeriodSummary{
			{PeriodKey: "2025-01", Label: "2025-01 to 2025-02", TransactionCount: 2},
		},
		Periods: []models.PeriodReview{
			{PeriodKey: "2025-01", Label: "2025-01 to 2025-02"},
		},
		Discrepancies: []models.Discrepancy{
			{
				Kind:        models.DiscrepancyTotalMismatch,
				Severity:    models.SeverityMedium,
				PeriodKey:   "2025-01",
				Field:       "net_vat",
				Expected:    dec("1215"),
				Actual:      dec("1265"),
				Delta:       dec("50"),
				Date:        time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
				Description: "computed net_vat 1265.00 differs from declared 1215.00 by 50.00",
			},
		},
		Draft: models.DisclosureDraft{
			GeneratedAt: ref,
			PeriodKeys:  []string{"2025-01"},
			Sections: []models.DisclosureSection{
				{
					Kind:                models.DiscrepancyTotalMismatch,
					PeriodKey:           "2025-01",
					Description:         "computed net_vat 1265.00 differs from declared 1215.00 by 50.00",
					SuggestedCorrection: "Amend the net_vat figure for period 2025-01 and file a corrected return with the difference of 50.00.",
				},
			},
			Guidance: []string{"Submit via ROS or MyEnquiries before Revenue issues a notification of audit."},
			Estimate: &models.LiabilityEstimate{
				Liability:   dec("50"),
				Interest:    dec("0.69"),
				DaysAccrued: 63,
				Total:       dec("50.69"),
			},
		},
	}

	f, err := svc.BuildWorkbook(result)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t,
		[]string{"Purchases_Listings", "VAT_Summary", "Discrepancies", "Disclosure"},
		f.GetSheetList())

	// Discrepancy sheet carries the mismatch row under its header.
	kind, err := f.GetCellValue("Discrepancies", "A2")
	require.NoError(t, err)
	assert.Equal(t, "total_mismatch", kind)
	delta, err := f.GetCellValue("Discrepancies", "G2")
	require.NoError(t, err)
	assert.Equal(t, "50.00", delta)

	// Summary sheet shows "not filed" when the period has no declared return.
	declared, err := f.GetCellValue("VAT_Summary", "H2")
	require.NoError(t, err)
	assert.Equal(t, "not filed", declared)

	// Disclosure sheet ends with the liability estimate and guidance.
	liability, err := f.GetCellValue("Disclosure", "B4")
	require.NoError(t, err)
	assert.Equal(t, "50.00", liability)
}

func TestBuildWorkbookNothingToDisclose(t *testing.T) {
	svc := services.NewExportService()

	result := &models.ReviewResult{
		RunID: "empty",
		Draft: models.DisclosureDraft{NothingToDisclose: true},
	}

	f, err := svc.BuildWorkbook(result)
	require.NoError(t, err)
	defer f.Close()

	msg, err := f.GetCellValue("Disclosure", "A1")
	require.NoError(t, err)
	assert.Contains(t, msg, "Nothing to disclose")
}

func TestBuildWorkbookEscapesFormulaInjection(t *testing.T) {
	svc := services.NewExportService()

	result := &models.ReviewResult{
		Transactions: []models.Transaction{
			{
				HashID:        "h1",
				Date:          time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
				InvoiceNumber: `=HYPERLINK("http://evil")`,
				Counterparty:  "Acme",
				Kind:          models.KindPurchase,
				Status:        "Paid",
				Paid:          true,
				Gross:         dec("123"),
				VATAmount:     dec("23"),
				Net:           dec("100"),
				VATRate:       dec("23"),
				PeriodKey:     "2025-01",
			},
		},
		Draft: models.DisclosureDraft{NothingToDisclose: true},
	}

	f, err := svc.BuildWorkbook(result)
	require.NoError(t, err)
	defer f.Close()

	invoice, err := f.GetCellValue("Purchases_Listings", "B2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(invoice, "'="), "formula text must be escaped, got %q", invoice)
}

// The listings sheet must carry the run's own snapshot, so a date-range
// restricted review exports only the rows inside that range.
func TestBuildWorkbookUsesRunScope(t *testing.T) {
	svc, _ := newTestService(t)
	export := services.NewExportService()

	_, err := svc.IngestLedger(strings.NewReader(salesCSV), models.KindSale)
	require.NoError(t, err)

	result, err := svc.RunReview(services.RunInput{
		StartDate:     time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		ReferenceTime: time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	f, err := export.BuildWorkbook(result)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Purchases_Listings")
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the single in-range transaction")
	assert.Equal(t, "SI-003", rows[1][1])
	assert.Equal(t, "2025-05-10", rows[1][0])
}
