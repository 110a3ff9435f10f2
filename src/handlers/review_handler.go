package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/vatreview/src/logger"
	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/services"
	"github.com/username/vatreview/src/utils"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(service services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: service}
}

// HandleRunReview runs the reconciliation pipeline with the posted
// parameters and returns the full report, including the run ID used for
// later report and export fetches.
func (h *ReviewHandler) HandleRunReview(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var input services.RunInput
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			ctxLogger.Warn("Invalid review request body", "error", err)
			utils.SendJSONError(w, "Invalid JSON request body", http.StatusBadRequest)
			return
		}
	}

	result, err := h.reviewService.RunReview(input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRunInput):
			ctxLogger.Warn("Review run rejected", "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrNoLedger):
			ctxLogger.Warn("Review run without ledger")
			utils.SendJSONError(w, "No ledger uploaded yet. Upload a ledger CSV before running a review.", http.StatusConflict)
		default:
			ctxLogger.Error("Review run failed", "error", err)
			utils.SendJSONError(w, "Review run failed", http.StatusInternalServerError)
		}
		return
	}

	writeReviewResult(w, ctxLogger, result)
}

// HandleGetReview returns a previously computed report by run ID.
func (h *ReviewHandler) HandleGetReview(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())
	runID := chi.URLParam(r, "runID")

	result, err := h.reviewService.GetReview(runID)
	if err != nil {
		if errors.Is(err, services.ErrRunNotFound) {
			utils.SendJSONError(w, "Review run not found or expired. Re-run the review.", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Error retrieving review run", "runID", runID, "error", err)
		utils.SendJSONError(w, "Error retrieving review run", http.StatusInternalServerError)
		return
	}

	writeReviewResult(w, ctxLogger, result)
}

// HandlePeriodSummaries returns per-period ledger rollups for the cadence in
// the "cadence" query parameter (the configured default when absent).
func (h *ReviewHandler) HandlePeriodSummaries(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	summaries, err := h.reviewService.PeriodSummaries(r.URL.Query().Get("cadence"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidRunInput) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctxLogger.Error("Error building period summaries", "error", err)
		utils.SendJSONError(w, "Error building period summaries", http.StatusInternalServerError)
		return
	}

	if summaries == nil {
		summaries = []models.PeriodSummary{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		ctxLogger.Error("Error encoding period summaries", "error", err)
	}
}

func writeReviewResult(w http.ResponseWriter, ctxLogger *slog.Logger, result *models.ReviewResult) {
	if result.Discrepancies == nil {
		result.Discrepancies = []models.Discrepancy{}
	}
	if result.Summaries == nil {
		result.Summaries = []models.PeriodSummary{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		ctxLogger.Error("Error encoding review result", "runID", result.RunID, "error", err)
	}
}
