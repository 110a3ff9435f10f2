package services

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/vatreview/src/history"
	"github.com/username/vatreview/src/logger"
	"github.com/username/vatreview/src/model"
	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/parsers"
	"github.com/username/vatreview/src/processors"
	"github.com/username/vatreview/src/vatperiod"
)

type reviewServiceImpl struct {
	db            *sql.DB
	ledgerParser  parsers.LedgerParser
	returnsParser parsers.ReturnsParser
	processor     *processors.LedgerProcessor
	engine        *processors.ReconciliationEngine
	drafter       *processors.DisclosureDrafter
	reportCache   *cache.Cache
	cfg           ReviewConfig
}

// NewReviewService wires the reconciliation pipeline: parsers for the two
// upload kinds, the ledger processor, the engine and the drafter, plus a
// cache holding finished reports by run ID.
func NewReviewService(
	db *sql.DB,
	ledgerParser parsers.LedgerParser,
	returnsParser parsers.ReturnsParser,
	processor *processors.LedgerProcessor,
	engine *processors.ReconciliationEngine,
	drafter *processors.DisclosureDrafter,
	reportCache *cache.Cache,
	cfg ReviewConfig,
) ReviewService {
	return &reviewServiceImpl{
		db:            db,
		ledgerParser:  ledgerParser,
		returnsParser: returnsParser,
		processor:     processor,
		engine:        engine,
		drafter:       drafter,
		reportCache:   reportCache,
		cfg:           cfg,
	}
}

func (s *reviewServiceImpl) IngestLedger(fileReader io.Reader, kind models.TransactionKind) (*IngestResult, error) {
	cadence, err := vatperiod.ParseCadence(s.cfg.DefaultCadence)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	canonical, malformed, err := s.ledgerParser.Parse(fileReader, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	processed := s.processor.Process(canonical, cadence)
	if err := model.ReplaceTransactions(s.db, processed); err != nil {
		return nil, fmt.Errorf("%w: storing ledger: %v", ErrProcessingFailed, err)
	}

	// Stored ledger changed; every cached report is stale.
	s.reportCache.Flush()

	logger.L.Info("Ledger ingested", "accepted", len(processed), "skipped", len(malformed))
	return &IngestResult{Accepted: len(processed), Skipped: malformed}, nil
}

func (s *reviewServiceImpl) IngestReturns(fileReader io.Reader) (*IngestResult, error) {
	returns, malformed, err := s.returnsParser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	if err := model.UpsertReturns(s.db, returns); err != nil {
		return nil, fmt.Errorf("%w: storing returns: %v", ErrProcessingFailed, err)
	}

	s.reportCache.Flush()

	logger.L.Info("Filed returns ingested", "accepted", len(returns), "skipped", len(malformed))
	return &IngestResult{Accepted: len(returns), Skipped: malformed}, nil
}

// RunReview executes the synchronous pipeline: extract the ledger into
// periods, look up filed history, reconcile each period and draft the
// disclosure. All inputs are immutable snapshots for the duration of the run;
// the run ID is a content hash so identical inputs reproduce the identical
// result.
func (s *reviewServiceImpl) RunReview(input RunInput) (*models.ReviewResult, error) {
	cadenceStr := input.Cadence
	if cadenceStr == "" {
		cadenceStr = s.cfg.DefaultCadence
	}
	cadence, err := vatperiod.ParseCadence(cadenceStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRunInput, err)
	}

	basis := input.Basis
	if basis == "" {
		basis = s.cfg.DefaultBasis
	}
	if basis != "accrual" && basis != "cash" {
		return nil, fmt.Errorf("%w: unknown VAT basis %q", ErrInvalidRunInput, basis)
	}

	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && input.StartDate.After(input.EndDate) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRunInput, vatperiod.ErrInvalidPeriod)
	}

	ref := input.ReferenceTime
	if ref.IsZero() {
		ref = time.Now().UTC()
	}

	stored, err := model.GetTransactions(s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: loading ledger: %v", ErrProcessingFailed, err)
	}
	if len(stored) == 0 {
		return nil, ErrNoLedger
	}

	// Snapshot for this run: date-range filter, basis filter, and period
	// re-assignment for the requested cadence.
	var txs []models.Transaction
	for _, tx := range stored {
		if !input.StartDate.IsZero() && tx.Date.Before(input.StartDate) {
			continue
		}
		if !input.EndDate.IsZero() && tx.Date.After(input.EndDate) {
			continue
		}
		if basis == "cash" && !tx.Paid {
			continue
		}
		tx.PeriodKey = vatperiod.Of(tx.Date, cadence).Key
		txs = append(txs, tx)
	}

	lookup, err := history.LoadLookup(s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: loading filed returns: %v", ErrProcessingFailed, err)
	}

	runID := buildRunID(cadence, basis, input.StartDate, input.EndDate, ref, txs, lookup)
	if cached, found := s.reportCache.Get(runID); found {
		return cached.(*models.ReviewResult), nil
	}

	thresholds := processors.Thresholds{
		UnpaidPurchaseFloor: s.cfg.UnpaidPurchaseThreshold,
		Tolerance:           s.cfg.TotalMismatchTolerance,
		BadDebtAge:          s.cfg.BadDebtAge,
		ReferenceTime:       ref,
	}
	// Bad-debt aging only makes sense on the accrual basis; on the cash basis
	// unpaid rows are excluded outright.
	if basis == "cash" {
		thresholds.BadDebtAge = 0
	}

	result := &models.ReviewResult{
		RunID:        runID,
		GeneratedAt:  ref,
		Cadence:      string(cadence),
		Basis:        basis,
		Summaries:    processors.Summarise(txs, cadence, thresholds.BadDebtAge, ref),
		Transactions: txs,
	}

	var discrepancies []models.Discrepancy
	for _, period := range vatperiod.Covering(txs, cadence) {
		extracted, err := vatperiod.Extract(txs, period)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
		}

		review := models.PeriodReview{
			PeriodKey: period.Key,
			Label:     period.Label(),
			Totals:    s.engine.ComputeTotals(extracted),
		}
		if declared, found := lookup.Get(period.Key); found {
			review.Declared = &declared
		}
		result.Periods = append(result.Periods, review)

		discrepancies = append(discrepancies, s.engine.Reconcile(period, extracted, lookup, thresholds)...)
	}

	// Fixed cross-period emission order: kind rank first. Periods were walked
	// chronologically and each period is date-ordered within kind, so a stable
	// sort keeps dates ascending inside every kind bucket.
	sort.SliceStable(discrepancies, func(i, j int) bool {
		return processors.KindRank(discrepancies[i].Kind) < processors.KindRank(discrepancies[j].Kind)
	})
	result.Discrepancies = discrepancies
	result.Draft = s.drafter.Draft(discrepancies, ref)

	s.reportCache.Set(runID, result, cache.DefaultExpiration)

	logger.L.Info("Review run completed",
		"runID", runID, "cadence", cadence, "basis", basis,
		"periods", len(result.Periods), "discrepancies", len(discrepancies))
	return result, nil
}

func (s *reviewServiceImpl) GetReview(runID string) (*models.ReviewResult, error) {
	if cached, found := s.reportCache.Get(runID); found {
		return cached.(*models.ReviewResult), nil
	}
	return nil, ErrRunNotFound
}

func (s *reviewServiceImpl) PeriodSummaries(cadenceStr string) ([]models.PeriodSummary, error) {
	if cadenceStr == "" {
		cadenceStr = s.cfg.DefaultCadence
	}
	cadence, err := vatperiod.ParseCadence(cadenceStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRunInput, err)
	}
	txs, err := model.GetTransactions(s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: loading ledger: %v", ErrProcessingFailed, err)
	}
	return processors.Summarise(txs, cadence, s.cfg.BadDebtAge, time.Now().UTC()), nil
}

// buildRunID hashes everything the pipeline's output depends on.
func buildRunID(cadence vatperiod.Cadence, basis string, start, end, ref time.Time, txs []models.Transaction, lookup history.Lookup) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%d\n",
		cadence, basis,
		start.Format(time.DateOnly), end.Format(time.DateOnly),
		ref.Format(time.RFC3339), lookup.Len())
	for _, tx := range txs {
		fmt.Fprintf(h, "%s|%s\n", tx.HashID, tx.PeriodKey)
		if ret, ok := lookup.Get(tx.PeriodKey); ok {
			fmt.Fprintf(h, "%s|%s|%s|%s\n", ret.PeriodKey, ret.SalesVAT, ret.PurchaseVAT, ret.NetVAT)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
