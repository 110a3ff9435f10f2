package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/username/vatreview/src/logger"
	"github.com/username/vatreview/src/services"
	"github.com/username/vatreview/src/utils"
)

type ExportHandler struct {
	reviewService services.ReviewService
	exportService services.ExportService
}

func NewExportHandler(reviewService services.ReviewService, exportService services.ExportService) *ExportHandler {
	return &ExportHandler{
		reviewService: reviewService,
		exportService: exportService,
	}
}

// HandleExport streams the review identified by runID as an XLSX workbook.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())
	runID := chi.URLParam(r, "runID")

	result, err := h.reviewService.GetReview(runID)
	if err != nil {
		if errors.Is(err, services.ErrRunNotFound) {
			utils.SendJSONError(w, "Review run not found or expired. Re-run the review before exporting.", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Error retrieving review run for export", "runID", runID, "error", err)
		utils.SendJSONError(w, "Error retrieving review run", http.StatusInternalServerError)
		return
	}

	workbook, err := h.exportService.BuildWorkbook(result)
	if err != nil {
		ctxLogger.Error("Failed to build export workbook", "runID", runID, "error", err)
		utils.SendJSONError(w, "Failed to build export workbook", http.StatusInternalServerError)
		return
	}

	fileName := fmt.Sprintf("vat_review_exports_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
	if err := workbook.Write(w); err != nil {
		ctxLogger.Error("Failed to write Excel file to response", "runID", runID, "error", err)
	}
}
