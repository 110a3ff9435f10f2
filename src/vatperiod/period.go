package vatperiod

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/username/vatreview/src/models"
)

// Cadence is the VAT filing frequency.
type Cadence string

const (
	CadenceMonthly     Cadence = "monthly"
	CadenceBimonthly   Cadence = "bimonthly"
	CadenceQuarterly   Cadence = "quarterly"
	CadenceFourMonthly Cadence = "fourmonthly"
	CadenceSixMonthly  Cadence = "sixmonthly"
	CadenceAnnual      Cadence = "annual"
)

// ErrInvalidPeriod is returned when a period's bounds are malformed.
var ErrInvalidPeriod = errors.New("invalid period: start date is after end date")

// ErrUnknownCadence is returned for cadence strings outside the known set.
var ErrUnknownCadence = errors.New("unknown VAT cadence")

var cadenceMonths = map[Cadence]int{
	CadenceMonthly:     1,
	CadenceBimonthly:   2,
	CadenceQuarterly:   3,
	CadenceFourMonthly: 4,
	CadenceSixMonthly:  6,
	CadenceAnnual:      12,
}

// ParseCadence normalizes a cadence string, accepting both the long form
// ("bimonthly") and the filing shorthand used in Revenue exports ("2M", "Q").
func ParseCadence(s string) (Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "monthly":
		return CadenceMonthly, nil
	case "2m", "bimonthly":
		return CadenceBimonthly, nil
	case "q", "3m", "quarterly":
		return CadenceQuarterly, nil
	case "4m", "fourmonthly":
		return CadenceFourMonthly, nil
	case "6m", "sixmonthly":
		return CadenceSixMonthly, nil
	case "y", "12m", "annual", "yearly":
		return CadenceAnnual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCadence, s)
	}
}

// Months returns the number of calendar months one period spans.
func (c Cadence) Months() int {
	return cadenceMonths[c]
}

// Period is a single VAT filing window. Start and End are inclusive dates.
type Period struct {
	Key     string    `json:"key"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Cadence Cadence   `json:"cadence"`
}

// New builds a period with explicit bounds, failing on start > end.
func New(start, end time.Time, c Cadence) (Period, error) {
	start = dateOnly(start)
	end = dateOnly(end)
	if start.After(end) {
		return Period{}, fmt.Errorf("%w (%s > %s)", ErrInvalidPeriod,
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return Period{
		Key:     fmt.Sprintf("%04d-%02d", start.Year(), int(start.Month())),
		Start:   start,
		End:     end,
		Cadence: c,
	}, nil
}

// Of returns the period a date falls into for the given cadence. Period
// windows are anchored at January: a bimonthly cadence yields Jan-Feb,
// Mar-Apr and so on, matching the Revenue filing calendar.
func Of(date time.Time, c Cadence) Period {
	months := c.Months()
	startMonth := ((int(date.Month())-1)/months)*months + 1
	start := time.Date(date.Year(), time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, months, -1) // last day of the window's final month
	p, _ := New(start, end, c)
	return p
}

// Contains reports whether t falls within [Start, End], at date granularity.
func (p Period) Contains(t time.Time) bool {
	d := dateOnly(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Label renders the window the way the review reports show it, e.g.
// "2025-01 to 2025-04". Single-month periods use the bare month.
func (p Period) Label() string {
	if p.Cadence.Months() <= 1 {
		return p.Start.Format("2006-01")
	}
	return fmt.Sprintf("%s to %s", p.Start.Format("2006-01"), p.End.Format("2006-01"))
}

// Extract returns the subset of transactions whose date falls within the
// period, ordered by date ascending with the original position breaking ties.
// The input slice is not modified.
func Extract(txs []models.Transaction, p Period) ([]models.Transaction, error) {
	if p.Start.After(p.End) {
		return nil, fmt.Errorf("%w (%s > %s)", ErrInvalidPeriod,
			p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
	}
	var out []models.Transaction
	for _, tx := range txs {
		if p.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// Covering returns the distinct periods touched by the given transactions for
// one cadence, sorted chronologically.
func Covering(txs []models.Transaction, c Cadence) []Period {
	seen := make(map[string]Period)
	for _, tx := range txs {
		p := Of(tx.Date, c)
		seen[p.Key] = p
	}
	periods := make([]Period, 0, len(seen))
	for _, p := range seen {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Start.Before(periods[j].Start)
	})
	return periods
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
