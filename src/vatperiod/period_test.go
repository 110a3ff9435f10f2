package vatperiod_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/vatperiod"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseCadence(t *testing.T) {
	tests := []struct {
		input   string
		want    vatperiod.Cadence
		wantErr bool
	}{
		{"bimonthly", vatperiod.CadenceBimonthly, false},
		{"2M", vatperiod.CadenceBimonthly, false},
		{"Q", vatperiod.CadenceQuarterly, false},
		{"quarterly", vatperiod.CadenceQuarterly, false},
		{"4m", vatperiod.CadenceFourMonthly, false},
		{"6M", vatperiod.CadenceSixMonthly, false},
		{"Y", vatperiod.CadenceAnnual, false},
		{"m", vatperiod.CadenceMonthly, false},
		{"weekly", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := vatperiod.ParseCadence(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, vatperiod.ErrUnknownCadence)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOf(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		cadence   vatperiod.Cadence
		wantKey   string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "bimonthly mid-period",
			date:      date(2025, time.June, 15),
			cadence:   vatperiod.CadenceBimonthly,
			wantKey:   "2025-05",
			wantStart: date(2025, time.May, 1),
			wantEnd:   date(2025, time.June, 30),
		},
		{
			name:      "fourmonthly second window",
			date:      date(2025, time.June, 10),
			cadence:   vatperiod.CadenceFourMonthly,
			wantKey:   "2025-05",
			wantStart: date(2025, time.May, 1),
			wantEnd:   date(2025, time.August, 31),
		},
		{
			name:      "quarterly year end",
			date:      date(2025, time.December, 31),
			cadence:   vatperiod.CadenceQuarterly,
			wantKey:   "2025-10",
			wantStart: date(2025, time.October, 1),
			wantEnd:   date(2025, time.December, 31),
		},
		{
			name:      "annual",
			date:      date(2025, time.July, 4),
			cadence:   vatperiod.CadenceAnnual,
			wantKey:   "2025-01",
			wantStart: date(2025, time.January, 1),
			wantEnd:   date(2025, time.December, 31),
		},
		{
			name:      "monthly february keeps leap day",
			date:      date(2024, time.February, 29),
			cadence:   vatperiod.CadenceMonthly,
			wantKey:   "2024-02",
			wantStart: date(2024, time.February, 1),
			wantEnd:   date(2024, time.February, 29),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := vatperiod.Of(tt.date, tt.cadence)
			assert.Equal(t, tt.wantKey, p.Key)
			assert.Equal(t, tt.wantStart, p.Start)
			assert.Equal(t, tt.wantEnd, p.End)
			assert.True(t, p.Contains(tt.date))
		})
	}
}

func TestNewRejectsInvertedBounds(t *testing.T) {
	_, err := vatperiod.New(date(2025, time.March, 1), date(2025, time.January, 1), vatperiod.CadenceBimonthly)
	assert.ErrorIs(t, err, vatperiod.ErrInvalidPeriod)
}

func ledgerTx(d time.Time, invoice string) models.Transaction {
	return models.Transaction{
		HashID:        invoice,
		Date:          d,
		InvoiceNumber: invoice,
		Kind:          models.KindPurchase,
		Gross:         decimal.NewFromInt(100),
		VATAmount:     decimal.NewFromInt(23),
		Net:           decimal.NewFromInt(77),
	}
}

func TestExtract(t *testing.T) {
	period, err := vatperiod.New(date(2025, time.May, 1), date(2025, time.June, 30), vatperiod.CadenceBimonthly)
	require.NoError(t, err)

	txs := []models.Transaction{
		ledgerTx(date(2025, time.June, 10), "INV-3"),
		ledgerTx(date(2025, time.April, 30), "INV-0"), // day before the window
		ledgerTx(date(2025, time.May, 1), "INV-1"),    // first day
		ledgerTx(date(2025, time.June, 30), "INV-4"),  // last day
		ledgerTx(date(2025, time.July, 1), "INV-5"),   // day after
		ledgerTx(date(2025, time.May, 1), "INV-2"),    // same date as INV-1, later insertion
	}

	got, err := vatperiod.Extract(txs, period)
	require.NoError(t, err)

	// Soundness: every extracted transaction is inside the window.
	for _, tx := range got {
		assert.True(t, period.Contains(tx.Date), "transaction %s outside period", tx.InvoiceNumber)
	}

	// Completeness plus ordering: date ascending, insertion order breaking ties.
	var invoices []string
	for _, tx := range got {
		invoices = append(invoices, tx.InvoiceNumber)
	}
	assert.Equal(t, []string{"INV-1", "INV-2", "INV-3", "INV-4"}, invoices)
}

func TestExtractInvalidPeriod(t *testing.T) {
	p := vatperiod.Period{
		Start: date(2025, time.June, 30),
		End:   date(2025, time.May, 1),
	}
	_, err := vatperiod.Extract(nil, p)
	assert.ErrorIs(t, err, vatperiod.ErrInvalidPeriod)
}

func TestCovering(t *testing.T) {
	txs := []models.Transaction{
		ledgerTx(date(2025, time.November, 2), "INV-3"),
		ledgerTx(date(2025, time.January, 15), "INV-1"),
		ledgerTx(date(2025, time.February, 20), "INV-2"), // same bimonthly period as INV-1
	}
	periods := vatperiod.Covering(txs, vatperiod.CadenceBimonthly)
	require.Len(t, periods, 2)
	assert.Equal(t, "2025-01", periods[0].Key)
	assert.Equal(t, "2025-11", periods[1].Key)
}
