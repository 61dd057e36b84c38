package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/tabiplan/internal/backtest"
	"github.com/hitoshi/tabiplan/internal/middleware"
	"github.com/hitoshi/tabiplan/internal/model"
)

// BacktestService はバックテストハンドラーが必要とするサービス操作を定義する。
type BacktestService interface {
	List(ctx context.Context, userID string) ([]*model.Backtest, error)
	Create(ctx context.Context, userID string, input backtest.CreateInput) (*model.Backtest, error)
}

// BacktestHandler はバックテストのHTTPハンドラー。
type BacktestHandler struct {
	service BacktestService
}

// NewBacktestHandler はBacktestHandlerを生成する。
func NewBacktestHandler(service BacktestService) *BacktestHandler {
	return &BacktestHandler{service: service}
}

type backtestResponse struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Params    json.RawMessage `json:"params"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Results   json.RawMessage `json:"results"`
	CreatedAt time.Time       `json:"created_at"`
}

func newBacktestResponse(b *model.Backtest) backtestResponse {
	return backtestResponse{
		ID:        b.ID,
		Title:     b.Title,
		Symbol:    b.Symbol,
		Timeframe: b.Timeframe,
		Params:    json.RawMessage(b.ParamsJSON),
		From:      b.From.Format("2006-01-02"),
		To:        b.To.Format("2006-01-02"),
		Results:   json.RawMessage(b.ResultsJSON),
		CreatedAt: b.CreatedAt,
	}
}

type createBacktestRequest struct {
	Title     string                 `json:"title"`
	Symbol    string                 `json:"symbol"`
	Timeframe string                 `json:"timeframe"`
	Params    map[string]interface{} `json:"params"`
	From      string                 `json:"from"`
	To        string                 `json:"to"`
}

// parseDate は日付文字列を解析する。YYYY-MM-DDとRFC3339の両形式を受け付ける。
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// List はGET /api/backtestsを処理する。
func (h *BacktestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthenticatedError())
		return
	}

	backtests, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]backtestResponse, 0, len(backtests))
	for _, b := range backtests {
		responses = append(responses, newBacktestResponse(b))
	}

	writeJSON(w, http.StatusOK, responses)
}

// Create はPOST /api/backtestsを処理する。
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthenticatedError())
		return
	}

	var req createBacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	from, err := parseDate(req.From)
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("開始日の形式が不正です。"))
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("終了日の形式が不正です。"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, backtest.CreateInput{
		Title:     req.Title,
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Params:    req.Params,
		From:      from,
		To:        to,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newBacktestResponse(created))
}
