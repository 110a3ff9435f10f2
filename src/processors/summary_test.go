package processors_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/processors"
	"github.com/username/vatreview/src/vatperiod"
)

func TestSummarise(t *testing.T) {
	ref := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		purchase("p-old", "2025-01-10", "400", "74.80", false), // bad-debt aged
		sale("s-1", "2025-01-20", "1230", "230"),
		sale("s-2", "2025-05-05", "615", "115"),
		purchase("p-recent", "2025-06-01", "246", "46", false), // unpaid but young
	}

	got := processors.Summarise(txs, vatperiod.CadenceBimonthly, 180*24*time.Hour, ref)

	require.Len(t, got, 2)

	jan := got[0]
	assert.Equal(t, "2025-01", jan.PeriodKey)
	assert.Equal(t, "2025-01 to 2025-02", jan.Label)
	assert.Equal(t, 2, jan.TransactionCount)
	assert.Equal(t, 1, jan.UnpaidCount)
	assert.Equal(t, 1, jan.BadDebtCount)
	assert.True(t, jan.Gross.Equal(dec("1630")), "gross %s", jan.Gross)
	assert.True(t, jan.VATAmount.Equal(dec("304.80")), "vat %s", jan.VATAmount)

	may := got[1]
	assert.Equal(t, "2025-05", may.PeriodKey)
	assert.Equal(t, 2, may.TransactionCount)
	assert.Equal(t, 1, may.UnpaidCount)
	assert.Equal(t, 0, may.BadDebtCount, "recent unpaid invoices are not bad-debt aged")
}

func TestSummariseZeroAgeDisablesBadDebtCount(t *testing.T) {
	ref := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{purchase("p-old", "2024-01-10", "400", "74.80", false)}

	got := processors.Summarise(txs, vatperiod.CadenceBimonthly, 0, ref)

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].UnpaidCount)
	assert.Equal(t, 0, got[0].BadDebtCount)
}

func TestSummariseEmptyLedger(t *testing.T) {
	got := processors.Summarise(nil, vatperiod.CadenceBimonthly, 0, time.Time{})
	assert.Empty(t, got)
}
