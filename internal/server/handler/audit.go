package handler

import (
	"log/slog"
	"net/http"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// AuditHandler exposes the most recent audit log entries to operators.
type AuditHandler struct {
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(audit domain.AuditStore, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger}
}

// ListRecent returns audit entries, newest first.
// GET /api/audit?limit=50
func (h *AuditHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.ListRecent(r.Context(), parseLimit(r, 50, 500))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list audit entries failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
