package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/vatreview/src/models"
)

// ReplaceTransactions swaps the stored ledger for the given set atomically.
// Ingestion is whole-file: a new upload replaces the previous ledger so a run
// always reconciles one coherent snapshot.
func ReplaceTransactions(db *sql.DB, txs []models.Transaction) error {
	dbTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM ledger_transactions`); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}

	stmt, err := dbTx.Prepare(`
		INSERT INTO ledger_transactions
			(hash_id, date, invoice_number, counterparty, kind, status, paid,
			 gross, vat_amount, net, vat_rate, currency, source, period_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		paid := 0
		if tx.Paid {
			paid = 1
		}
		_, err := stmt.Exec(
			tx.HashID,
			tx.Date.Format(time.DateOnly),
			tx.InvoiceNumber,
			tx.Counterparty,
			string(tx.Kind),
			tx.Status,
			paid,
			tx.Gross.String(),
			tx.VATAmount.String(),
			tx.Net.String(),
			tx.VATRate.String(),
			tx.Currency,
			tx.Source,
			tx.PeriodKey,
		)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.HashID, err)
		}
	}

	return dbTx.Commit()
}

// GetTransactions loads the full stored ledger ordered by date then insertion
// order, so downstream extraction sees a stable sequence.
func GetTransactions(db *sql.DB) ([]models.Transaction, error) {
	rows, err := db.Query(`
		SELECT id, hash_id, date, invoice_number, counterparty, kind, status, paid,
		       gross, vat_amount, net, vat_rate, currency, source, period_key
		FROM ledger_transactions
		ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var paid int
		var dateStr, kind, grossStr, vatStr, netStr, rateStr string
		if err := rows.Scan(&tx.ID, &tx.HashID, &dateStr, &tx.InvoiceNumber, &tx.Counterparty,
			&kind, &tx.Status, &paid, &grossStr, &vatStr, &netStr, &rateStr,
			&tx.Currency, &tx.Source, &tx.PeriodKey); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Kind = models.TransactionKind(kind)
		tx.Paid = paid != 0
		if tx.Date, err = time.Parse(time.DateOnly, dateStr); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", dateStr, err)
		}
		if tx.Gross, err = decimal.NewFromString(grossStr); err != nil {
			return nil, fmt.Errorf("parse stored gross %q: %w", grossStr, err)
		}
		if tx.VATAmount, err = decimal.NewFromString(vatStr); err != nil {
			return nil, fmt.Errorf("parse stored vat %q: %w", vatStr, err)
		}
		if tx.Net, err = decimal.NewFromString(netStr); err != nil {
			return nil, fmt.Errorf("parse stored net %q: %w", netStr, err)
		}
		if tx.VATRate, err = decimal.NewFromString(rateStr); err != nil {
			return nil, fmt.Errorf("parse stored rate %q: %w", rateStr, err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// CountTransactions reports the stored ledger size, used by the health report.
func CountTransactions(db *sql.DB) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_transactions`).Scan(&n)
	return n, err
}
