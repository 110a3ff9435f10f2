package revenue_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/vatreview/src/logger"
	"github.com/username/vatreview/src/parsers/revenue"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	m.Run()
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNormalizePeriodKey(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2025-05", "2025-05", false},
		{"2025/05", "2025-05", false},
		{"2025-5", "2025-05", false},
		{"May 2025", "2025-05", false},
		{"January 2025", "2025-01", false},
		{"  2025-11  ", "2025-11", false},
		{"sometime", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := revenue.NormalizePeriodKey(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReturns(t *testing.T) {
	const export = `VAT Period,T1,T2,T3,Filed
2025-01,1000.00,300.00,700.00,2025-03-19
2025-03,1200.00,400.00,,
2025-01,9999.00,9999.00,0.00,
bad-period,100.00,50.00,50.00,
`
	p := revenue.NewParser()
	returns, malformed, err := p.Parse(strings.NewReader(export))
	require.NoError(t, err)

	require.Len(t, malformed, 2)
	assert.Equal(t, 4, malformed[0].Row)
	assert.Contains(t, malformed[0].Reason, "duplicate return for period 2025-01")
	assert.Equal(t, 5, malformed[1].Row)

	require.Len(t, returns, 2)

	jan := returns[0]
	assert.Equal(t, "2025-01", jan.PeriodKey)
	assert.True(t, jan.SalesVAT.Equal(dec("1000")))
	assert.True(t, jan.PurchaseVAT.Equal(dec("300")))
	assert.True(t, jan.NetVAT.Equal(dec("700")))
	assert.Equal(t, time.Date(2025, time.March, 19, 0, 0, 0, 0, time.UTC), jan.FiledAt)

	mar := returns[1]
	assert.True(t, mar.NetVAT.Equal(dec("800")), "missing T3 falls back to T1 minus T2, got %s", mar.NetVAT)
	assert.True(t, mar.FiledAt.IsZero())
}

func TestParseReturnsThousandsSeparators(t *testing.T) {
	const export = `VAT Period,T1,T2,T3
2025-01,"1,215.00","1,000.50",
2025-03,"1.215,00",€500.00,
`
	p := revenue.NewParser()
	returns, malformed, err := p.Parse(strings.NewReader(export))
	require.NoError(t, err)
	require.Empty(t, malformed, "grouped amounts must parse, not be skipped as malformed")
	require.Len(t, returns, 2)

	assert.True(t, returns[0].SalesVAT.Equal(dec("1215")), "sales %s", returns[0].SalesVAT)
	assert.True(t, returns[0].PurchaseVAT.Equal(dec("1000.50")))
	assert.True(t, returns[1].SalesVAT.Equal(dec("1215")), "european grouping, got %s", returns[1].SalesVAT)
	assert.True(t, returns[1].PurchaseVAT.Equal(dec("500")))
}

func TestParseReturnsNoHeader(t *testing.T) {
	p := revenue.NewParser()
	_, _, err := p.Parse(strings.NewReader("just,some,cells\n1,2,3\n"))
	assert.Error(t, err)
}
