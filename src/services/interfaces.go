package services

import (
	"errors"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/vatreview/src/models"
	"github.com/xuri/excelize/v2"
)

// IngestResult reports what a single upload produced: how many rows became
// typed records and which rows were excluded, with the per-row reason.
type IngestResult struct {
	Accepted int                           `json:"accepted"`
	Skipped  []models.MalformedRecordError `json:"skipped"`
}

// RunInput are the caller-supplied parameters of one reconciliation run.
// Zero-valued dates mean no bound; a zero ReferenceTime defaults to now.
type RunInput struct {
	Cadence       string    `json:"cadence"`
	Basis         string    `json:"basis"` // accrual or cash
	StartDate     time.Time `json:"start_date,omitzero"`
	EndDate       time.Time `json:"end_date,omitzero"`
	ReferenceTime time.Time `json:"reference_time,omitzero"`
}

// ReviewConfig carries the business parameters the pipeline needs. Populated
// from application config at startup; fixed for the process lifetime.
type ReviewConfig struct {
	UnpaidPurchaseThreshold decimal.Decimal
	TotalMismatchTolerance  decimal.Decimal
	BadDebtAge              time.Duration
	DefaultCadence          string
	DefaultBasis            string
}

// Define common service errors
var (
	ErrParsingFailed    = errors.New("csv parsing failed")
	ErrProcessingFailed = errors.New("ledger processing failed")
	ErrNoLedger         = errors.New("no ledger has been uploaded")
	ErrRunNotFound      = errors.New("review run not found")
	ErrInvalidRunInput  = errors.New("invalid review parameters")
)

// ReviewService defines the interface for the core reconciliation pipeline.
type ReviewService interface {
	IngestLedger(fileReader io.Reader, kind models.TransactionKind) (*IngestResult, error)
	IngestReturns(fileReader io.Reader) (*IngestResult, error)
	RunReview(input RunInput) (*models.ReviewResult, error)
	GetReview(runID string) (*models.ReviewResult, error)
	PeriodSummaries(cadence string) ([]models.PeriodSummary, error)
}

// ExportService renders a finished review as a spreadsheet workbook.
type ExportService interface {
	BuildWorkbook(result *models.ReviewResult) (*excelize.File, error)
}
