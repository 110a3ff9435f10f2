package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/username/vatreview/src/logger"
	"github.com/username/vatreview/src/model"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthResponse struct {
	Status             string `json:"status"`
	LedgerTransactions int    `json:"ledger_transactions"`
	RequestID          string `json:"request_id,omitempty"`
}

// HandleHealth reports service liveness plus the stored ledger size, so a
// quick curl shows whether an upload actually landed.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	resp := healthResponse{Status: "ok"}
	if id, ok := GetRequestIDFromContext(r.Context()); ok {
		resp.RequestID = id
	}

	count, err := model.CountTransactions(h.db)
	if err != nil {
		ctxLogger.Error("Health check failed to count ledger", "error", err)
		resp.Status = "degraded"
	} else {
		resp.LedgerTransactions = count
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		ctxLogger.Error("Error encoding health response", "error", err)
	}
}
