package parsers

import (
	"io"

	"github.com/username/vatreview/src/models"
)

// LedgerParser converts a source-specific ledger export into canonical
// transactions. Rows that fail schema validation are returned as
// MalformedRecordErrors alongside the good rows; only a structurally unusable
// file (no header, unreadable CSV) produces the error return.
type LedgerParser interface {
	Parse(file io.Reader, kind models.TransactionKind) ([]models.CanonicalTransaction, []models.MalformedRecordError, error)
}

// ReturnsParser converts a filed-returns export into Return records, with the
// same per-row error contract as LedgerParser.
type ReturnsParser interface {
	Parse(file io.Reader) ([]models.Return, []models.MalformedRecordError, error)
}
