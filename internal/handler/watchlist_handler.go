package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tabiplan/internal/middleware"
	"github.com/hitoshi/tabiplan/internal/model"
)

// WatchlistService はウォッチリストハンドラーが必要とするサービス操作を定義する。
type WatchlistService interface {
	List(ctx context.Context, userID string) ([]*model.Watchlist, error)
	Create(ctx context.Context, userID, name string, symbols []string) (*model.Watchlist, error)
	Delete(ctx context.Context, userID, watchlistID string) error
}

// WatchlistHandler はウォッチリストのHTTPハンドラー。
type WatchlistHandler struct {
	service WatchlistService
}

// NewWatchlistHandler はWatchlistHandlerを生成する。
func NewWatchlistHandler(service WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{service: service}
}

type watchlistResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Symbols   []string  `json:"symbols"`
	CreatedAt time.Time `json:"created_at"`
}

func newWatchlistResponse(w *model.Watchlist) watchlistResponse {
	symbols := w.Symbols
	if symbols == nil {
		symbols = []string{}
	}
	return watchlistResponse{
		ID:        w.ID,
		Name:      w.Name,
		Symbols:   symbols,
		CreatedAt: w.CreatedAt,
	}
}

type createWatchlistRequest struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols"`
}

// List はGET /api/watchlistsを処理する。
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthenticatedError())
		return
	}

	watchlists, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]watchlistResponse, 0, len(watchlists))
	for _, wl := range watchlists {
		responses = append(responses, newWatchlistResponse(wl))
	}

	writeJSON(w, http.StatusOK, responses)
}

// Create はPOST /api/watchlistsを処理する。
func (h *WatchlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthenticatedError())
		return
	}

	var req createWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	watchlist, err := h.service.Create(r.Context(), userID, req.Name, req.Symbols)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newWatchlistResponse(watchlist))
}

// Delete はDELETE /api/watchlists/{watchlistID}を処理する。
func (h *WatchlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthenticatedError())
		return
	}

	watchlistID := chi.URLParam(r, "watchlistID")
	if err := h.service.Delete(r.Context(), userID, watchlistID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
