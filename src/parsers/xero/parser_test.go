package xero_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/vatreview/src/logger"
	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/parsers/xero"
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

const payableReport = `Payable Invoice Summary
Demo Company (IE)
1 January 2025 to 30 June 2025
Invoice Date,Invoice Number,Contact,Status,Gross (EUR),Tax (EUR),Net (EUR)
10/01/2025,INV-001,Supplies Ltd,Paid,"1,230.00",230.00,"1,000.00"
45790,INV-002,Office World,Approved,615.00,115.00,500.00
not-a-date,INV-003,Broken Row,Paid,100.00,18.70,81.30
15/02/2025,INV-004,Paper Co,Awaiting Payment,(246.00),(46.00),(200.00)
,,,,,,
Total,,,,"2,091.00",391.00,"1,700.00"
`

func TestParsePayableReport(t *testing.T) {
	p := xero.NewParser()

	txs, malformed, err := p.Parse(strings.NewReader(payableReport), models.KindPurchase)
	require.NoError(t, err)

	require.Len(t, malformed, 1, "the unparseable date row is reported, not dropped silently")
	assert.Equal(t, 7, malformed[0].Row)
	assert.Equal(t, "invoice_date", malformed[0].Field)

	require.Len(t, txs, 3, "preamble, empty and Total rows are skipped")

	first := txs[0]
	assert.Equal(t, "xero", first.Source)
	assert.Equal(t, models.KindPurchase, first.Kind)
	assert.Equal(t, "INV-001", first.InvoiceNumber)
	assert.Equal(t, "Supplies Ltd", first.Counterparty)
	assert.Equal(t, "Paid", first.Status)
	assert.Equal(t, time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), first.InvoiceDate)
	assert.True(t, first.Gross.Equal(dec("1230")), "gross %s", first.Gross)
	assert.True(t, first.VATAmount.Equal(dec("230")))
	assert.True(t, first.Net.Equal(dec("1000")))
	assert.Equal(t, "EUR", first.Currency)

	// Excel serial 45790 is 2025-05-13.
	assert.Equal(t, time.Date(2025, time.May, 13, 0, 0, 0, 0, time.UTC), txs[1].InvoiceDate)

	// Parenthesized amounts are credit notes.
	credit := txs[2]
	assert.True(t, credit.Gross.Equal(dec("-246")), "gross %s", credit.Gross)
	assert.True(t, credit.VATAmount.Equal(dec("-46")))
	assert.True(t, credit.Net.Equal(dec("-200")))
}

func TestParseTypeColumnOverridesKind(t *testing.T) {
	const report = `Date,Number,Contact,Type,Gross,Tax,Net
10/01/2025,INV-1,Acme,Receivable Invoice,123.00,23.00,100.00
11/01/2025,BILL-1,Acme,Payable Bill,246.00,46.00,200.00
`
	p := xero.NewParser()
	txs, malformed, err := p.Parse(strings.NewReader(report), models.KindPurchase)
	require.NoError(t, err)
	require.Empty(t, malformed)
	require.Len(t, txs, 2)
	assert.Equal(t, models.KindSale, txs[0].Kind)
	assert.Equal(t, models.KindPurchase, txs[1].Kind)
}

func TestParseNetFallsBackToGrossMinusTax(t *testing.T) {
	const report = `Invoice Date,Invoice Number,Contact,Status,Gross,Tax
10/01/2025,INV-1,Acme,Paid,123.00,23.00
`
	p := xero.NewParser()
	txs, malformed, err := p.Parse(strings.NewReader(report), models.KindPurchase)
	require.NoError(t, err)
	require.Empty(t, malformed)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Net.Equal(dec("100")), "net %s", txs[0].Net)
}

func TestParseRejectsOverlongFields(t *testing.T) {
	report := "Invoice Date,Invoice Number,Contact,Status,Gross,Tax,Net\n" +
		"10/01/2025,INV-1," + strings.Repeat("x", 300) + ",Paid,123.00,23.00,100.00\n"

	p := xero.NewParser()
	txs, malformed, err := p.Parse(strings.NewReader(report), models.KindPurchase)
	require.NoError(t, err)
	assert.Empty(t, txs)
	require.Len(t, malformed, 1)
	assert.Equal(t, "counterparty", malformed[0].Field)
}

func TestParseNoHeaderFails(t *testing.T) {
	const junk = `Some report
with no usable
columns at all
`
	p := xero.NewParser()
	_, _, err := p.Parse(strings.NewReader(junk), models.KindPurchase)
	assert.Error(t, err)
}
