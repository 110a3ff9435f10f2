package processors

import (
	"sort"
	"time"

	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/vatperiod"
)

// Summarise rolls the ledger up into one summary row per VAT period for the
// given cadence, sorted chronologically. The reference time drives the
// bad-debt aging count; a zero badDebtAge disables it.
func Summarise(txs []models.Transaction, cadence vatperiod.Cadence, badDebtAge time.Duration, ref time.Time) []models.PeriodSummary {
	byKey := make(map[string]*models.PeriodSummary)
	var cutoff time.Time
	if badDebtAge > 0 && !ref.IsZero() {
		cutoff = ref.Add(-badDebtAge)
	}

	for _, tx := range txs {
		p := vatperiod.Of(tx.Date, cadence)
		s, ok := byKey[p.Key]
		if !ok {
			s = &models.PeriodSummary{
				PeriodKey: p.Key,
				Label:     p.Label(),
				Start:     p.Start,
				End:       p.End,
			}
			byKey[p.Key] = s
		}
		s.Gross = s.Gross.Add(tx.Gross)
		s.VATAmount = s.VATAmount.Add(tx.VATAmount)
		s.Net = s.Net.Add(tx.Net)
		s.TransactionCount++
		if !tx.Paid {
			s.UnpaidCount++
			if !cutoff.IsZero() && tx.Date.Before(cutoff) {
				s.BadDebtCount++
			}
		}
	}

	summaries := make([]models.PeriodSummary, 0, len(byKey))
	for _, s := range byKey {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Start.Before(summaries[j].Start)
	})
	return summaries
}
