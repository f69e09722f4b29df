package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	models "github.com/nearscan/explorer-api/pkg/db/models/indexer"
	"go.uber.org/zap"
)

const (
	latestTxnsLimit = 10
	latestTxnsTTL   = 5 * time.Second
)

// HandleTxns lists transactions chain-wide.
func (h *Handler) HandleTxns(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := h.Store.Txns(r.Context(), f)
	if err != nil {
		h.Logger.Error("failed to list txns", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := listResponse{Txns: txns}
	if len(txns) > 0 {
		resp.Cursor = nextCursor(txns[len(txns)-1].ID, len(txns), f.PerPage)
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// HandleTxnsCount counts the chain-wide listing through the cost gate.
func (h *Handler) HandleTxnsCount(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := h.Store.TxnsCount(r.Context(), f)
	if err != nil {
		h.Logger.Error("failed to count txns", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.respondJSON(w, http.StatusOK, countResponse{Txns: []models.CountRow{count}})
}

// HandleTxnsLatest returns the most recent transactions. The response
// body is cached whole in Redis for a few seconds; the home page polls
// this endpoint from every visitor.
func (h *Handler) HandleTxnsLatest(w http.ResponseWriter, r *http.Request) {
	limit := latestTxnsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.respondError(w, http.StatusBadRequest, "invalid limit: expected a positive integer")
			return
		}
		if n > defaultPerPage {
			n = defaultPerPage
		}
		limit = n
	}

	key := "txns:latest:" + strconv.Itoa(limit)
	body, err := h.Cache.Remember(r.Context(), key, latestTxnsTTL, func(ctx context.Context) ([]byte, error) {
		txns, err := h.Store.LatestTxns(ctx, limit)
		if err != nil {
			return nil, err
		}
		return json.Marshal(listResponse{Txns: txns})
	})
	if err != nil {
		h.Logger.Error("failed to load latest txns", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// HandleTxnDetail returns one transaction by hash.
func (h *Handler) HandleTxnDetail(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]

	txns, err := h.Store.TxnByHash(r.Context(), hash)
	if err != nil {
		h.Logger.Error("failed to fetch txn", zap.String("hash", hash), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.respondJSON(w, http.StatusOK, listResponse{Txns: txns})
}
