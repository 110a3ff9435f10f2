// Package history exposes previously filed VAT returns as an immutable
// lookup snapshot, keyed by period identifier. A missing period is a boolean
// result, not an error: the reconciliation engine treats absent history as a
// discrepancy of its own.
package history

import (
	"database/sql"

	"github.com/username/vatreview/src/model"
	"github.com/username/vatreview/src/models"
)

// Lookup is a point-in-time snapshot of filed returns. It is built once per
// run and never mutated afterwards.
type Lookup struct {
	byPeriod map[string]models.Return
}

// Get returns the filed return for a period key, with found=false when no
// return was filed for that period.
func (l Lookup) Get(periodKey string) (models.Return, bool) {
	ret, ok := l.byPeriod[periodKey]
	return ret, ok
}

// Len reports how many periods have filed returns.
func (l Lookup) Len() int {
	return len(l.byPeriod)
}

// BuildLookup indexes a slice of returns by period key. Later duplicates are
// ignored; uniqueness is enforced upstream at ingestion and in the schema.
func BuildLookup(returns []models.Return) Lookup {
	byPeriod := make(map[string]models.Return, len(returns))
	for _, ret := range returns {
		if _, exists := byPeriod[ret.PeriodKey]; !exists {
			byPeriod[ret.PeriodKey] = ret
		}
	}
	return Lookup{byPeriod: byPeriod}
}

// LoadLookup reads all filed returns from storage and builds the snapshot.
func LoadLookup(db *sql.DB) (Lookup, error) {
	returns, err := model.GetReturns(db)
	if err != nil {
		return Lookup{}, err
	}
	return BuildLookup(returns), nil
}
