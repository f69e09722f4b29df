package handler

import (
	"context"
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"github.com/nearscan/explorer-api/internal/cache"
	"github.com/nearscan/explorer-api/internal/feed"
	models "github.com/nearscan/explorer-api/pkg/db/models/indexer"
	"github.com/nearscan/explorer-api/pkg/db/postgres/chain"
	"go.uber.org/zap"
)

// Store is the read surface the handlers need from the chain database.
type Store interface {
	Txns(ctx context.Context, f chain.TxnFilter) ([]models.Txn, error)
	TxnsCount(ctx context.Context, f chain.TxnFilter) (models.CountRow, error)
	LatestTxns(ctx context.Context, limit int) ([]models.Txn, error)
	TxnByHash(ctx context.Context, hash string) ([]models.Txn, error)
	AccountTxns(ctx context.Context, f chain.TxnFilter) ([]models.Txn, error)
	AccountTxnsCount(ctx context.Context, f chain.TxnFilter) (models.CountRow, error)
	AccountReceipts(ctx context.Context, f chain.TxnFilter) ([]models.Receipt, error)
	AccountReceiptsCount(ctx context.Context, f chain.TxnFilter) (models.CountRow, error)
	AccountTxnsForExport(ctx context.Context, r chain.ExportRange) ([]models.Txn, error)
	AccountReceiptsForExport(ctx context.Context, r chain.ExportRange) ([]models.Receipt, error)
}

// Handler holds the dependencies for API handlers
type Handler struct {
	Store  Store
	Cache  *cache.Cache
	Hub    *feed.Hub
	Logger *zap.Logger
}

// NewHandler creates a new Handler instance. Hub may be nil when the
// live feed is disabled.
func NewHandler(store Store, c *cache.Cache, hub *feed.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		Cache:  c,
		Hub:    hub,
		Logger: logger,
	}
}

// NewRouter creates and configures the HTTP router with all API routes
func (h *Handler) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/v1/health", h.HandleHealth).Methods(http.MethodGet)

	r.HandleFunc("/v1/txns", h.HandleTxns).Methods(http.MethodGet)
	r.HandleFunc("/v1/txns/count", h.HandleTxnsCount).Methods(http.MethodGet)
	r.HandleFunc("/v1/txns/latest", h.HandleTxnsLatest).Methods(http.MethodGet)
	r.HandleFunc("/v1/txns/{hash}", h.HandleTxnDetail).Methods(http.MethodGet)

	r.HandleFunc("/v1/account/{account}/txns", h.HandleAccountTxns).Methods(http.MethodGet)
	r.HandleFunc("/v1/account/{account}/txns/count", h.HandleAccountTxnsCount).Methods(http.MethodGet)
	r.HandleFunc("/v1/account/{account}/txns/export", h.HandleAccountTxnsExport).Methods(http.MethodGet)
	r.HandleFunc("/v1/account/{account}/receipts", h.HandleAccountReceipts).Methods(http.MethodGet)
	r.HandleFunc("/v1/account/{account}/receipts/count", h.HandleAccountReceiptsCount).Methods(http.MethodGet)
	r.HandleFunc("/v1/account/{account}/receipts/export", h.HandleAccountReceiptsExport).Methods(http.MethodGet)

	if h.Hub != nil {
		r.HandleFunc("/v1/ws/txns", h.Hub.HandleWS).Methods(http.MethodGet)
	}

	return r
}

// HandleHealth returns a simple health check response
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// listResponse is the shared shape of every listing endpoint. Cursor is
// set only when the page came back exactly full, so its presence tells
// the client whether another page may exist.
type listResponse struct {
	Cursor int64 `json:"cursor,omitempty"`
	Txns   any   `json:"txns"`
}

// countResponse wraps a count row the way listing rows are wrapped.
type countResponse struct {
	Txns []models.CountRow `json:"txns"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
