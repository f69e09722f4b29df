package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nearscan/explorer-api/internal/export"
)

// HandleAccountTxnsExport streams the account's transactions for a date
// range as a CSV attachment.
func (h *Handler) HandleAccountTxnsExport(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]

	rng, err := parseExportRange(account, r.URL.Query())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := h.Store.AccountTxnsForExport(r.Context(), rng)
	if err != nil {
		h.Logger.Error("failed to export account txns",
			zap.String("account", account),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=txns.csv`)
	w.WriteHeader(http.StatusOK)

	if err := export.WriteTxns(w, txns); err != nil {
		// Headers are gone; all we can do is log and drop the connection.
		h.Logger.Warn("csv export aborted",
			zap.String("account", account),
			zap.Error(err),
		)
	}
}

// HandleAccountReceiptsExport streams the account's receipts for a date
// range as a CSV attachment.
func (h *Handler) HandleAccountReceiptsExport(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]

	rng, err := parseExportRange(account, r.URL.Query())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipts, err := h.Store.AccountReceiptsForExport(r.Context(), rng)
	if err != nil {
		h.Logger.Error("failed to export account receipts",
			zap.String("account", account),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=receipts.csv`)
	w.WriteHeader(http.StatusOK)

	if err := export.WriteReceipts(w, receipts); err != nil {
		h.Logger.Warn("csv export aborted",
			zap.String("account", account),
			zap.Error(err),
		)
	}
}
