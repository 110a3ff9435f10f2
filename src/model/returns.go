package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/vatreview/src/models"
)

// UpsertReturns stores filed returns, replacing any previous filing for the
// same period. The period key is unique; the latest upload wins.
func UpsertReturns(db *sql.DB, returns []models.Return) error {
	dbTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`
		INSERT INTO filed_returns (period_key, sales_vat, purchase_vat, net_vat, filed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(period_key) DO UPDATE SET
			sales_vat = excluded.sales_vat,
			purchase_vat = excluded.purchase_vat,
			net_vat = excluded.net_vat,
			filed_at = excluded.filed_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, ret := range returns {
		filedAt := ""
		if !ret.FiledAt.IsZero() {
			filedAt = ret.FiledAt.Format(time.DateOnly)
		}
		if _, err := stmt.Exec(ret.PeriodKey, ret.SalesVAT.String(), ret.PurchaseVAT.String(),
			ret.NetVAT.String(), filedAt); err != nil {
			return fmt.Errorf("upsert return for period %s: %w", ret.PeriodKey, err)
		}
	}

	return dbTx.Commit()
}

// GetReturns loads all filed returns ordered by period key.
func GetReturns(db *sql.DB) ([]models.Return, error) {
	rows, err := db.Query(`
		SELECT id, period_key, sales_vat, purchase_vat, net_vat, filed_at
		FROM filed_returns
		ORDER BY period_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("query returns: %w", err)
	}
	defer rows.Close()

	var returns []models.Return
	for rows.Next() {
		var ret models.Return
		var salesStr, purchaseStr, netStr, filedAt string
		if err := rows.Scan(&ret.ID, &ret.PeriodKey, &salesStr, &purchaseStr, &netStr, &filedAt); err != nil {
			return nil, fmt.Errorf("scan return: %w", err)
		}
		if ret.SalesVAT, err = decimal.NewFromString(salesStr); err != nil {
			return nil, fmt.Errorf("parse stored sales vat %q: %w", salesStr, err)
		}
		if ret.PurchaseVAT, err = decimal.NewFromString(purchaseStr); err != nil {
			return nil, fmt.Errorf("parse stored purchase vat %q: %w", purchaseStr, err)
		}
		if ret.NetVAT, err = decimal.NewFromString(netStr); err != nil {
			return nil, fmt.Errorf("parse stored net vat %q: %w", netStr, err)
		}
		if filedAt != "" {
			if ret.FiledAt, err = time.Parse(time.DateOnly, filedAt); err != nil {
				return nil, fmt.Errorf("parse stored filed_at %q: %w", filedAt, err)
			}
		}
		returns = append(returns, ret)
	}
	return returns, rows.Err()
}
