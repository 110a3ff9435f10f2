package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/username/vatreview/src/config"
	"github.com/username/vatreview/src/logger"
	"github.com/username/vatreview/src/models"
	"github.com/username/vatreview/src/security/validation"
	"github.com/username/vatreview/src/services"
	"github.com/username/vatreview/src/utils"
)

type UploadHandler struct {
	reviewService services.ReviewService
}

func NewUploadHandler(service services.ReviewService) *UploadHandler {
	return &UploadHandler{
		reviewService: service,
	}
}

// HandleLedgerUpload ingests a ledger CSV export. The optional "kind" form
// field says which side of the ledger the report covers (purchases by
// default, matching the payable invoice summary).
func (h *UploadHandler) HandleLedgerUpload(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	file, filename, ok := h.extractUploadFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	kind := models.KindPurchase
	switch strings.ToLower(r.FormValue("kind")) {
	case "", "purchases", "purchase", "payable":
		kind = models.KindPurchase
	case "sales", "sale", "receivable":
		kind = models.KindSale
	default:
		utils.SendJSONError(w, fmt.Sprintf("unknown ledger kind %q, expected purchases or sales", r.FormValue("kind")), http.StatusBadRequest)
		return
	}

	ctxLogger.Info("Processing ledger upload", "filename", filename, "kind", kind)

	result, err := h.reviewService.IngestLedger(file, kind)
	if err != nil {
		if errors.Is(err, services.ErrParsingFailed) {
			ctxLogger.Warn("Ledger upload failed to parse", "filename", filename, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		ctxLogger.Error("Ledger upload failed", "filename", filename, "error", err)
		utils.SendJSONError(w, "Failed to process ledger upload", http.StatusInternalServerError)
		return
	}

	writeIngestResponse(w, ctxLogger, result)
}

// HandleReturnsUpload ingests a filed-returns CSV export.
func (h *UploadHandler) HandleReturnsUpload(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	file, filename, ok := h.extractUploadFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	ctxLogger.Info("Processing filed-returns upload", "filename", filename)

	result, err := h.reviewService.IngestReturns(file)
	if err != nil {
		if errors.Is(err, services.ErrParsingFailed) {
			ctxLogger.Warn("Returns upload failed to parse", "filename", filename, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		ctxLogger.Error("Returns upload failed", "filename", filename, "error", err)
		utils.SendJSONError(w, "Failed to process returns upload", http.StatusInternalServerError)
		return
	}

	writeIngestResponse(w, ctxLogger, result)
}

// extractUploadFile does the shared multipart plumbing: size limits, the
// "file" form field, and content validation (client content type plus magic
// bytes). Responds with the error itself when validation fails.
func (h *UploadHandler) extractUploadFile(w http.ResponseWriter, r *http.Request) (multipart.File, string, bool) {
	ctxLogger := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return nil, "", false
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return nil, "", false
	}

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		file.Close()
		ctxLogger.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return nil, "", false
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		file.Close()
		ctxLogger.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, "", false
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		file.Close()
		ctxLogger.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	ctxLogger.Debug("File content validated", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	return file, fileHeader.Filename, true
}

func writeIngestResponse(w http.ResponseWriter, ctxLogger *slog.Logger, result *services.IngestResult) {
	if result.Skipped == nil {
		result.Skipped = []models.MalformedRecordError{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		ctxLogger.Error("Error encoding JSON response for ingest result", "error", err)
	}
}
