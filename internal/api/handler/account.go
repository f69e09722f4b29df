package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	models "github.com/nearscan/explorer-api/pkg/db/models/indexer"
	"go.uber.org/zap"
)

// HandleAccountTxns lists the transactions an account participates in.
// A from/to pair that can never match the account is a well-formed
// request for an empty set, not an error.
func (h *Handler) HandleAccountTxns(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Account = mux.Vars(r)["account"]

	txns, err := h.Store.AccountTxns(r.Context(), f)
	if err != nil {
		h.Logger.Error("failed to list account txns",
			zap.String("account", f.Account),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := listResponse{Txns: txns}
	if len(txns) > 0 {
		resp.Cursor = nextCursor(txns[len(txns)-1].ID, len(txns), f.PerPage)
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// HandleAccountTxnsCount counts the account listing through the cost
// gate.
func (h *Handler) HandleAccountTxnsCount(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Account = mux.Vars(r)["account"]

	// A from/to pair that excludes the account counts nothing; the
	// response is an empty set, not a zero row.
	if f.Contradictory() {
		h.respondJSON(w, http.StatusOK, countResponse{Txns: []models.CountRow{}})
		return
	}

	count, err := h.Store.AccountTxnsCount(r.Context(), f)
	if err != nil {
		h.Logger.Error("failed to count account txns",
			zap.String("account", f.Account),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.respondJSON(w, http.StatusOK, countResponse{Txns: []models.CountRow{count}})
}

// HandleAccountReceipts lists the receipts an account participates in.
func (h *Handler) HandleAccountReceipts(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Account = mux.Vars(r)["account"]

	receipts, err := h.Store.AccountReceipts(r.Context(), f)
	if err != nil {
		h.Logger.Error("failed to list account receipts",
			zap.String("account", f.Account),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := listResponse{Txns: receipts}
	if len(receipts) > 0 {
		resp.Cursor = nextCursor(receipts[len(receipts)-1].ID, len(receipts), f.PerPage)
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// HandleAccountReceiptsCount counts the receipt listing through the
// cost gate.
func (h *Handler) HandleAccountReceiptsCount(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Account = mux.Vars(r)["account"]

	if f.Contradictory() {
		h.respondJSON(w, http.StatusOK, countResponse{Txns: []models.CountRow{}})
		return
	}

	count, err := h.Store.AccountReceiptsCount(r.Context(), f)
	if err != nil {
		h.Logger.Error("failed to count account receipts",
			zap.String("account", f.Account),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.respondJSON(w, http.StatusOK, countResponse{Txns: []models.CountRow{count}})
}
